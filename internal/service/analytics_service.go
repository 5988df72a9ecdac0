package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/internal/repository"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

// salesWindow is how far back the sales timeline reaches.
const salesWindow = 30 * 24 * time.Hour

// AnalyticsService assembles per-event sales and engagement figures for
// event hosts.
type AnalyticsService interface {
	EventAnalytics(ctx context.Context, eventID, callerID uuid.UUID) (*dto.EventAnalyticsResponse, error)
	// HostAnalytics rolls sales and engagement up across every event the
	// caller hosts.
	HostAnalytics(ctx context.Context, callerID uuid.UUID) (*dto.HostOverview, error)
}

type analyticsService struct {
	analytics repository.AnalyticsRepository
	events    repository.EventRepository
}

// NewAnalyticsService creates the analytics service.
func NewAnalyticsService(analytics repository.AnalyticsRepository, events repository.EventRepository) AnalyticsService {
	return &analyticsService{analytics: analytics, events: events}
}

var _ AnalyticsService = (*analyticsService)(nil)

func (s *analyticsService) EventAnalytics(ctx context.Context, eventID, callerID uuid.UUID) (*dto.EventAnalyticsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.analytics.event")
	defer span.End()

	// Analytics are host-only.
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.HostID != callerID {
		return nil, domain.ErrEventNotFound
	}

	overview, err := s.analytics.Overview(ctx, eventID)
	if err != nil {
		return nil, err
	}
	byType, err := s.analytics.SalesByType(ctx, eventID)
	if err != nil {
		return nil, err
	}
	overTime, err := s.analytics.SalesOverTime(ctx, eventID, time.Now().UTC().Add(-salesWindow))
	if err != nil {
		return nil, err
	}

	return &dto.EventAnalyticsResponse{
		Overview:      *overview,
		SalesByType:   byType,
		SalesOverTime: overTime,
	}, nil
}

func (s *analyticsService) HostAnalytics(ctx context.Context, callerID uuid.UUID) (*dto.HostOverview, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.analytics.host")
	defer span.End()

	return s.analytics.HostOverview(ctx, callerID)
}
