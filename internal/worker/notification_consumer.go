package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/internal/events"
	"github.com/bodefavour/web3event/internal/metrics"
	"github.com/bodefavour/web3event/internal/service"
	"github.com/bodefavour/web3event/pkg/logger"
)

// NotificationConsumer turns ticket topic events into in-app
// notifications for the affected user.
type NotificationConsumer struct {
	notifications service.NotificationService
	metrics       *metrics.Metrics
	log           *zap.Logger
}

// NewNotificationConsumer creates the fan-out consumer.
func NewNotificationConsumer(notifications service.NotificationService, m *metrics.Metrics) *NotificationConsumer {
	return &NotificationConsumer{
		notifications: notifications,
		metrics:       m,
		log:           logger.Get(),
	}
}

// Handle processes one record from the ticket topic. Unknown kinds are
// skipped so new producers do not wedge the consumer group.
func (c *NotificationConsumer) Handle(ctx context.Context, record *kgo.Record) error {
	kind, payload, err := events.DecodeEnvelope(record.Value)
	if err != nil {
		c.log.Warn("undecodable record skipped",
			zap.Int64("offset", record.Offset), zap.Error(err))
		return nil
	}

	switch kind {
	case events.KindTicketPurchased:
		return c.onTicketPurchased(ctx, payload)
	case events.KindTicketCheckedIn:
		return c.onTicketCheckedIn(ctx, payload)
	case events.KindTransactionSettled:
		return c.onTransactionSettled(ctx, payload)
	default:
		return nil
	}
}

func (c *NotificationConsumer) onTicketPurchased(ctx context.Context, payload json.RawMessage) error {
	var e events.TicketPurchased
	if err := json.Unmarshal(payload, &e); err != nil {
		c.log.Warn("undecodable purchase payload skipped", zap.Error(err))
		return nil
	}

	_, err := c.notifications.Create(ctx, &dto.CreateNotificationRequest{
		UserID:        e.OwnerID,
		Type:          string(domain.NotificationTypeTicket),
		Title:         "Ticket purchased",
		Message:       fmt.Sprintf("You bought %d x %s", e.Quantity, e.TicketTypeName),
		EventID:       &e.EventID,
		TicketID:      &e.TicketID,
		TransactionID: &e.TransactionID,
	})
	if err != nil {
		return err
	}
	c.metrics.NotificationsPushed.Inc(ctx)
	return nil
}

func (c *NotificationConsumer) onTicketCheckedIn(ctx context.Context, payload json.RawMessage) error {
	var e events.TicketCheckedIn
	if err := json.Unmarshal(payload, &e); err != nil {
		c.log.Warn("undecodable check-in payload skipped", zap.Error(err))
		return nil
	}

	_, err := c.notifications.Create(ctx, &dto.CreateNotificationRequest{
		UserID:   e.OwnerID,
		Type:     string(domain.NotificationTypeTicket),
		Title:    "Ticket used",
		Message:  "Your ticket was scanned at the gate. Enjoy the event!",
		EventID:  &e.EventID,
		TicketID: &e.TicketID,
	})
	if err != nil {
		return err
	}
	c.metrics.NotificationsPushed.Inc(ctx)
	return nil
}

func (c *NotificationConsumer) onTransactionSettled(ctx context.Context, payload json.RawMessage) error {
	var e events.TransactionSettled
	if err := json.Unmarshal(payload, &e); err != nil {
		c.log.Warn("undecodable settlement payload skipped", zap.Error(err))
		return nil
	}

	title := "Payment confirmed"
	message := "Your payment was confirmed on chain."
	if e.Status == string(domain.TransactionStatusFailed) {
		title = "Payment failed"
		message = "Your payment could not be confirmed on chain."
		if e.ErrorMessage != nil {
			message = fmt.Sprintf("%s Reason: %s", message, *e.ErrorMessage)
		}
	}

	_, err := c.notifications.Create(ctx, &dto.CreateNotificationRequest{
		UserID:        e.UserID,
		Type:          string(domain.NotificationTypeTransaction),
		Title:         title,
		Message:       message,
		EventID:       &e.EventID,
		TransactionID: &e.TransactionID,
	})
	if err != nil {
		return err
	}
	c.metrics.NotificationsPushed.Inc(ctx)
	return nil
}
