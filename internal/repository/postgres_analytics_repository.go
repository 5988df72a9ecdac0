package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

type postgresAnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAnalyticsRepository creates a PostgreSQL-backed analytics repository.
func NewPostgresAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &postgresAnalyticsRepository{pool: pool}
}

var _ AnalyticsRepository = (*postgresAnalyticsRepository)(nil)

// Overview aggregates capacity, sales, revenue, and engagement for one
// event. Revenue comes from completed purchase transactions, so pending
// payments do not inflate it.
func (r *postgresAnalyticsRepository) Overview(ctx context.Context, eventID uuid.UUID) (*dto.AnalyticsOverview, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.analytics.overview")
	defer span.End()

	var o dto.AnalyticsOverview
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(tt.total_quantity, 0),
			COALESCE(tt.total_sold, 0),
			COALESCE(tx.revenue, 0),
			e.views,
			e.favorites
		FROM events e
		LEFT JOIN (
			SELECT event_id,
			       SUM(quantity) AS total_quantity,
			       SUM(sold) AS total_sold
			FROM ticket_types
			GROUP BY event_id
		) tt ON tt.event_id = e.id
		LEFT JOIN (
			SELECT event_id, SUM(amount) AS revenue
			FROM transactions
			WHERE type = 'purchase' AND status = 'completed'
			GROUP BY event_id
		) tx ON tx.event_id = e.id
		WHERE e.id = $1`, eventID,
	).Scan(&o.TotalTickets, &o.SoldTickets, &o.TotalRevenue, &o.Views, &o.Favorites)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("analytics overview: %w", err)
	}

	if o.SoldTickets > 0 {
		o.AveragePrice = o.TotalRevenue / float64(o.SoldTickets)
	}
	if o.TotalTickets > 0 {
		o.ConversionPct = float64(o.SoldTickets) / float64(o.TotalTickets) * 100
	}
	return &o, nil
}

func (r *postgresAnalyticsRepository) SalesByType(ctx context.Context, eventID uuid.UUID) ([]dto.TypeSales, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.analytics.sales_by_type")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
		SELECT name, sold, quantity, price * sold AS revenue
		FROM ticket_types
		WHERE event_id = $1
		ORDER BY price ASC`, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("sales by type: %w", err)
	}
	defer rows.Close()

	var sales []dto.TypeSales
	for rows.Next() {
		var s dto.TypeSales
		if err := rows.Scan(&s.Name, &s.Sold, &s.Quantity, &s.Revenue); err != nil {
			return nil, fmt.Errorf("scan type sales: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// SalesOverTime buckets ticket sales by purchase day from since onward.
// Days without sales are absent; the client fills gaps.
func (r *postgresAnalyticsRepository) SalesOverTime(ctx context.Context, eventID uuid.UUID, since time.Time) ([]dto.DailySales, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.analytics.sales_over_time")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', purchase_date) AS day,
		       SUM(quantity) AS tickets,
		       SUM(price * quantity) AS revenue
		FROM tickets
		WHERE event_id = $1
		  AND purchase_date >= $2
		  AND status <> 'cancelled'
		GROUP BY day
		ORDER BY day ASC`, eventID, since)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("sales over time: %w", err)
	}
	defer rows.Close()

	var buckets []dto.DailySales
	for rows.Next() {
		var b dto.DailySales
		if err := rows.Scan(&b.Date, &b.Tickets, &b.Revenue); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// HostOverview aggregates across every event the host owns. A host with
// no events gets a zeroed rollup rather than an error.
func (r *postgresAnalyticsRepository) HostOverview(ctx context.Context, hostID uuid.UUID) (*dto.HostOverview, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.analytics.host_overview")
	defer span.End()

	var o dto.HostOverview
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(e.id),
			COALESCE(SUM(tt.total_quantity), 0),
			COALESCE(SUM(tt.total_sold), 0),
			COALESCE(SUM(tx.revenue), 0),
			COALESCE(SUM(e.views), 0),
			COALESCE(SUM(e.favorites), 0)
		FROM events e
		LEFT JOIN (
			SELECT event_id,
			       SUM(quantity) AS total_quantity,
			       SUM(sold) AS total_sold
			FROM ticket_types
			GROUP BY event_id
		) tt ON tt.event_id = e.id
		LEFT JOIN (
			SELECT event_id, SUM(amount) AS revenue
			FROM transactions
			WHERE type = 'purchase' AND status = 'completed'
			GROUP BY event_id
		) tx ON tx.event_id = e.id
		WHERE e.host_id = $1`, hostID,
	).Scan(&o.Events, &o.TotalTickets, &o.SoldTickets, &o.TotalRevenue, &o.Views, &o.Favorites)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("host overview: %w", err)
	}
	return &o, nil
}
