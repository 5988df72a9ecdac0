package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

type postgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a PostgreSQL-backed event repository.
func NewPostgresEventRepository(pool *pgxpool.Pool) EventRepository {
	return &postgresEventRepository{pool: pool}
}

var _ EventRepository = (*postgresEventRepository)(nil)

const eventColumns = `
	id, title, description, host_id, category, venue, address, city, country,
	latitude, longitude, start_date, end_date, image_url, status,
	chain_network, contract_address, deployed_at, views, favorites,
	created_at, updated_at`

// Create inserts the event and all its tiers in one transaction.
func (r *postgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.create")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return fmt.Errorf("begin event create: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO events (
			id, title, description, host_id, category, venue, address, city,
			country, latitude, longitude, start_date, end_date, image_url,
			status, chain_network, contract_address, deployed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING created_at, updated_at`,
		event.ID, event.Title, event.Description, event.HostID, event.Category,
		event.Venue, event.Location.Address, event.Location.City,
		event.Location.Country, event.Location.Latitude, event.Location.Longitude,
		event.StartDate, event.EndDate, event.ImageURL, event.Status,
		event.Chain.Network, event.Chain.ContractAddress, event.Chain.DeployedAt,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "event insert failed")
		return fmt.Errorf("insert event: %w", err)
	}

	for i := range event.TicketTypes {
		tier := &event.TicketTypes[i]
		tier.EventID = event.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO ticket_types (
				id, event_id, name, description, price, quantity, benefits
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING created_at, updated_at`,
			tier.ID, tier.EventID, tier.Name, tier.Description,
			tier.Price, tier.Quantity, tier.Benefits,
		).Scan(&tier.CreatedAt, &tier.UpdatedAt)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "tier insert failed")
			return fmt.Errorf("insert ticket type %q: %w", tier.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return fmt.Errorf("commit event create: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("event.id", id.String()))

	row := r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("get event: %w", err)
	}

	tiers, err := r.loadTiers(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tier load failed")
		return nil, err
	}
	event.TicketTypes = tiers
	return event, nil
}

func (r *postgresEventRepository) loadTiers(ctx context.Context, eventID uuid.UUID) ([]domain.TicketType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, name, description, price, quantity, sold,
		       benefits, created_at, updated_at
		FROM ticket_types
		WHERE event_id = $1
		ORDER BY price ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("load ticket types: %w", err)
	}
	defer rows.Close()

	var tiers []domain.TicketType
	for rows.Next() {
		var t domain.TicketType
		if err := rows.Scan(
			&t.ID, &t.EventID, &t.Name, &t.Description, &t.Price,
			&t.Quantity, &t.Sold, &t.Benefits, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ticket type: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *postgresEventRepository) List(ctx context.Context, filter EventFilter) ([]*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.list")
	defer span.End()

	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, filter.Category)
		idx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, filter.Status)
		idx++
	}
	if filter.City != "" {
		query += fmt.Sprintf(" AND city = $%d", idx)
		args = append(args, filter.City)
		idx++
	}
	if filter.HostID != nil {
		query += fmt.Sprintf(" AND host_id = $%d", idx)
		args = append(args, *filter.HostID)
		idx++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", idx, idx)
		args = append(args, "%"+filter.Search+"%")
		idx++
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY start_date ASC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Listings include tiers so clients can show prices without a second
	// round trip per event.
	for _, event := range events {
		tiers, err := r.loadTiers(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		event.TicketTypes = tiers
	}
	return events, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.update")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `
		UPDATE events
		SET title = $1, description = $2, category = $3, venue = $4,
		    address = $5, city = $6, country = $7, latitude = $8,
		    longitude = $9, start_date = $10, end_date = $11, image_url = $12,
		    status = $13, contract_address = $14, deployed_at = $15,
		    updated_at = now()
		WHERE id = $16`,
		event.Title, event.Description, event.Category, event.Venue,
		event.Location.Address, event.Location.City, event.Location.Country,
		event.Location.Latitude, event.Location.Longitude,
		event.StartDate, event.EndDate, event.ImageURL, event.Status,
		event.Chain.ContractAddress, event.Chain.DeployedAt, event.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// Delete removes an event unless any of its tickets are still active.
func (r *postgresEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.delete")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("begin event delete: %w", err)
	}
	defer tx.Rollback(ctx)

	var hasActive bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tickets WHERE event_id = $1 AND status = 'active'
		)`, id).Scan(&hasActive)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("probe active tickets: %w", err)
	}
	if hasActive {
		return domain.ErrEventHasActiveSales
	}

	tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}

	return tx.Commit(ctx)
}

// AddViews applies buffered view counts in one batch.
func (r *postgresEventRepository) AddViews(ctx context.Context, counts map[uuid.UUID]int64) error {
	if len(counts) == 0 {
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.add_views")
	defer span.End()

	span.SetAttributes(attribute.Int("events", len(counts)))

	batch := &pgx.Batch{}
	for id, n := range counts {
		batch.Queue(
			`UPDATE events SET views = views + $1 WHERE id = $2`, n, id)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range counts {
		if _, err := results.Exec(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch update failed")
			return fmt.Errorf("apply view counts: %w", err)
		}
	}
	return nil
}

func (r *postgresEventRepository) IncrementFavorites(ctx context.Context, id uuid.UUID, delta int64) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.increment_favorites")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `
		UPDATE events
		SET favorites = GREATEST(favorites + $1, 0), updated_at = now()
		WHERE id = $2`, delta, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("increment favorites: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// scanEvent reads one event row. Nullable columns go through locals.
func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	var imageURL, contractAddress *string
	var deployedAt *time.Time

	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.HostID, &e.Category, &e.Venue,
		&e.Location.Address, &e.Location.City, &e.Location.Country,
		&e.Location.Latitude, &e.Location.Longitude,
		&e.StartDate, &e.EndDate, &imageURL, &e.Status,
		&e.Chain.Network, &contractAddress, &deployedAt,
		&e.Views, &e.Favorites, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.ImageURL = imageURL
	e.Chain.ContractAddress = contractAddress
	e.Chain.DeployedAt = deployedAt
	return &e, nil
}
