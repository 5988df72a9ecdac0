package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/internal/repository"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

// NotificationService manages in-app notifications.
type NotificationService interface {
	Create(ctx context.Context, req *dto.CreateNotificationRequest) (*domain.Notification, error)
	List(ctx context.Context, userID uuid.UUID, query *dto.NotificationListQuery) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

// NewNotificationService creates the notification service.
func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

var _ NotificationService = (*notificationService)(nil)

func (s *notificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) (*domain.Notification, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.create")
	defer span.End()

	ntype := domain.NotificationType(req.Type)
	if !domain.ValidNotificationType(ntype) {
		return nil, domain.ErrInvalidNotification
	}

	n := &domain.Notification{
		ID:      uuid.New(),
		UserID:  req.UserID,
		Type:    ntype,
		Title:   req.Title,
		Message: req.Message,
		Data: domain.NotificationData{
			EventID:       req.EventID,
			TicketID:      req.TicketID,
			TransactionID: req.TransactionID,
			ActionURL:     req.ActionURL,
		},
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, query *dto.NotificationListQuery) (*dto.NotificationListResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.list")
	defer span.End()

	items, err := s.repo.ListByUser(ctx, userID, query.UnreadOnly, query.Limit, query.Offset)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.NotificationListResponse{
		Notifications: items,
		UnreadCount:   unread,
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.mark_read")
	defer span.End()

	return s.repo.MarkRead(ctx, id, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.mark_all_read")
	defer span.End()

	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "service.notification.delete")
	defer span.End()

	return s.repo.Delete(ctx, id, userID)
}
