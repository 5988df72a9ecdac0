package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/internal/metrics"
	"github.com/bodefavour/web3event/internal/repository"
	"github.com/bodefavour/web3event/pkg/logger"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

// EventService manages the event catalog.
type EventService interface {
	Create(ctx context.Context, hostID uuid.UUID, req *dto.CreateEventRequest) (*domain.Event, error)
	// Get returns one event and records a page view. View counting is
	// advisory and never fails the read.
	Get(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	List(ctx context.Context, query *dto.EventListQuery) ([]*domain.Event, error)
	Update(ctx context.Context, id, callerID uuid.UUID, req *dto.UpdateEventRequest) (*domain.Event, error)
	Delete(ctx context.Context, id, callerID uuid.UUID) error
	Favorite(ctx context.Context, id uuid.UUID) error
	Unfavorite(ctx context.Context, id uuid.UUID) error
}

type eventService struct {
	repo    repository.EventRepository
	views   repository.ViewCounter
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewEventService creates the event service.
func NewEventService(repo repository.EventRepository, views repository.ViewCounter, m *metrics.Metrics) EventService {
	return &eventService{
		repo:    repo,
		views:   views,
		metrics: m,
		log:     logger.Get(),
	}
}

var _ EventService = (*eventService)(nil)

func (s *eventService) Create(ctx context.Context, hostID uuid.UUID, req *dto.CreateEventRequest) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	if !req.EndDate.After(req.StartDate) {
		return nil, domain.ErrInvalidDates
	}

	network := req.Network
	if network == "" {
		network = "sepolia"
	}

	event := &domain.Event{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		HostID:      hostID,
		Category:    req.Category,
		Venue:       req.Venue,
		Location: domain.Location{
			Address:   req.Location.Address,
			City:      req.Location.City,
			Country:   req.Location.Country,
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
		},
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		ImageURL:  req.ImageURL,
		Status:    domain.EventStatusDraft,
		Chain:     domain.ChainInfo{Network: network},
	}
	for _, tier := range req.TicketTypes {
		event.TicketTypes = append(event.TicketTypes, domain.TicketType{
			ID:          uuid.New(),
			Name:        tier.Name,
			Description: tier.Description,
			Price:       tier.Price,
			Quantity:    tier.Quantity,
			Benefits:    tier.Benefits,
		})
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.log.Info("event created",
		zap.String("event_id", event.ID.String()),
		zap.String("title", event.Title),
		zap.Int("tiers", len(event.TicketTypes)))
	return event, nil
}

func (s *eventService) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.get")
	defer span.End()

	span.SetAttributes(attribute.String("event.id", id.String()))

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.views.Record(ctx, id); err != nil {
		s.log.Warn("view recording failed", zap.String("event_id", id.String()), zap.Error(err))
	} else {
		s.metrics.EventViewsRecorded.Inc(ctx)
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context, query *dto.EventListQuery) ([]*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.list")
	defer span.End()

	return s.repo.List(ctx, repository.EventFilter{
		Category: query.Category,
		Status:   query.Status,
		City:     query.City,
		HostID:   query.HostID,
		Search:   query.Search,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
}

func (s *eventService) Update(ctx context.Context, id, callerID uuid.UUID, req *dto.UpdateEventRequest) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.update")
	defer span.End()

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.HostID != callerID {
		return nil, domain.ErrEventNotFound
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Category != nil {
		event.Category = *req.Category
	}
	if req.Venue != nil {
		event.Venue = *req.Venue
	}
	if req.Location != nil {
		event.Location = domain.Location{
			Address:   req.Location.Address,
			City:      req.Location.City,
			Country:   req.Location.Country,
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
		}
	}
	if req.StartDate != nil {
		event.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		event.EndDate = *req.EndDate
	}
	if req.ImageURL != nil {
		event.ImageURL = req.ImageURL
	}
	if req.Status != nil {
		status := domain.EventStatus(*req.Status)
		if !domain.ValidEventStatus(status) {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEventStatus, *req.Status)
		}
		event.Status = status
	}

	if !event.EndDate.After(event.StartDate) {
		return nil, domain.ErrInvalidDates
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "service.event.delete")
	defer span.End()

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event.HostID != callerID {
		return domain.ErrEventNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("event deleted", zap.String("event_id", id.String()))
	return nil
}

func (s *eventService) Favorite(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "service.event.favorite")
	defer span.End()

	return s.repo.IncrementFavorites(ctx, id, 1)
}

func (s *eventService) Unfavorite(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "service.event.unfavorite")
	defer span.End()

	return s.repo.IncrementFavorites(ctx, id, -1)
}
