package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

type postgresNotificationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresNotificationRepository creates a PostgreSQL-backed notification repository.
func NewPostgresNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &postgresNotificationRepository{pool: pool}
}

var _ NotificationRepository = (*postgresNotificationRepository)(nil)

const notificationColumns = `
	id, user_id, type, title, message, read, event_id, ticket_id,
	transaction_id, action_url, created_at, updated_at`

func (r *postgresNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.create")
	defer span.End()

	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (
			id, user_id, type, title, message, event_id, ticket_id,
			transaction_id, action_url
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		n.ID, n.UserID, n.Type, n.Title, n.Message,
		n.Data.EventID, n.Data.TicketID, n.Data.TransactionID, n.Data.ActionURL,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *postgresNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*domain.Notification, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.list_by_user")
	defer span.End()

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	args := []interface{}{userID}
	idx := 2

	if unreadOnly {
		query += " AND read = FALSE"
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var items []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *postgresNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.count_unread")
	defer span.End()

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`,
		userID).Scan(&count)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.mark_read")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE, updated_at = now()
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.mark_all_read")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE, updated_at = now()
		WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (r *postgresNotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.delete")
	defer span.End()

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	var eventID, ticketID, transactionID *uuid.UUID
	var actionURL *string

	err := row.Scan(
		&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read,
		&eventID, &ticketID, &transactionID, &actionURL,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Data.EventID = eventID
	n.Data.TicketID = ticketID
	n.Data.TransactionID = transactionID
	n.Data.ActionURL = actionURL
	return &n, nil
}
