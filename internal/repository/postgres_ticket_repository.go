package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

const pgUniqueViolation = "23505"

type postgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository creates a PostgreSQL-backed ticket repository.
func NewPostgresTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &postgresTicketRepository{pool: pool}
}

var _ TicketRepository = (*postgresTicketRepository)(nil)

const ticketColumns = `
	id, event_id, owner_id, ticket_type_id, ticket_type_name, price,
	quantity, qr_code, status, tx_hash, contract_address, token_id,
	chain_network, purchase_date, used_date, created_at, updated_at`

// Purchase claims tier capacity, then writes the ticket and its
// transaction, all inside one database transaction. The conditional
// UPDATE is what prevents overselling: two concurrent claims for the
// last seats serialize on the row, and the loser's predicate no longer
// holds.
func (r *postgresTicketRepository) Purchase(ctx context.Context, ticket *domain.Ticket, txn *domain.Transaction) (*PurchaseResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.purchase")
	defer span.End()

	span.SetAttributes(
		attribute.String("event.id", ticket.EventID.String()),
		attribute.String("ticket_type.name", ticket.TicketTypeName),
		attribute.Int("quantity", ticket.Quantity),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return nil, fmt.Errorf("begin purchase tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Claim capacity. Tiers are unique per (event_id, name), so the
	// caller-supplied name pins exactly one row, and the predicate
	// rejects any claim that would push sold past quantity.
	var tierID uuid.UUID
	var tierPrice float64
	err = tx.QueryRow(ctx, `
		UPDATE ticket_types
		SET sold = sold + $1, updated_at = now()
		WHERE event_id = $2 AND name = $3 AND sold + $1 <= quantity
		RETURNING id, price`,
		ticket.Quantity, ticket.EventID, ticket.TicketTypeName,
	).Scan(&tierID, &tierPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			claimErr := r.classifyClaimFailure(ctx, tx, ticket.EventID, ticket.TicketTypeName)
			span.SetStatus(codes.Error, claimErr.Error())
			return nil, claimErr
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "claim failed")
		return nil, fmt.Errorf("claim ticket capacity: %w", err)
	}

	// Snapshot tier id and price from the claimed row so later tier
	// edits cannot rewrite purchase history.
	ticket.TicketTypeID = tierID
	ticket.Price = tierPrice
	txn.Amount = tierPrice * float64(ticket.Quantity)

	err = tx.QueryRow(ctx, `
		INSERT INTO tickets (
			id, event_id, owner_id, ticket_type_id, ticket_type_name, price,
			quantity, qr_code, status, tx_hash, contract_address, token_id,
			chain_network, purchase_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING purchase_date, created_at, updated_at`,
		ticket.ID, ticket.EventID, ticket.OwnerID, ticket.TicketTypeID,
		ticket.TicketTypeName, ticket.Price, ticket.Quantity, ticket.QRCode,
		ticket.Status, ticket.Chain.TransactionHash, ticket.Chain.ContractAddress,
		ticket.Chain.TokenID, ticket.Chain.Network, time.Now().UTC(),
	).Scan(&ticket.PurchaseDate, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			span.SetStatus(codes.Error, "duplicate transaction hash")
			return nil, domain.ErrDuplicateTransaction
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "ticket insert failed")
		return nil, fmt.Errorf("insert ticket: %w", err)
	}

	txn.TicketID = &ticket.ID
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (
			id, user_id, event_id, ticket_id, type, amount, currency, status,
			payment_method, tx_hash, chain_network, wallet_address,
			from_address, to_address
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		txn.ID, txn.UserID, txn.EventID, txn.TicketID, txn.Type, txn.Amount,
		txn.Currency, txn.Status, txn.PaymentMethod, txn.Chain.TransactionHash,
		txn.Chain.Network, txn.Meta.WalletAddress, txn.Meta.FromAddress,
		txn.Meta.ToAddress,
	).Scan(&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			span.SetStatus(codes.Error, "duplicate transaction hash")
			return nil, domain.ErrDuplicateTransaction
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction insert failed")
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return nil, fmt.Errorf("commit purchase: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return &PurchaseResult{Ticket: ticket, Transaction: txn}, nil
}

// classifyClaimFailure distinguishes a tier name the event does not have
// from genuine capacity exhaustion after the claim matched no rows.
func (r *postgresTicketRepository) classifyClaimFailure(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, name string) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ticket_types WHERE event_id = $1 AND name = $2)`,
		eventID, name,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("probe ticket type: %w", err)
	}
	if !exists {
		return domain.ErrTicketTypeNotFound
	}
	return domain.ErrCapacityExceeded
}

func (r *postgresTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.get_by_id")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	ticket, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTicketNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

func (r *postgresTicketRepository) GetByTransactionHash(ctx context.Context, hash string) (*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.get_by_tx_hash")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE tx_hash = $1`, hash)
	ticket, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTicketNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("get ticket by tx hash: %w", err)
	}
	return ticket, nil
}

func (r *postgresTicketRepository) List(ctx context.Context, filter TicketFilter) ([]*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.list")
	defer span.End()

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filter.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", idx)
		args = append(args, *filter.OwnerID)
		idx++
	}
	if filter.EventID != nil {
		query += fmt.Sprintf(" AND event_id = $%d", idx)
		args = append(args, *filter.EventID)
		idx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, filter.Status)
		idx++
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY purchase_date DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func (r *postgresTicketRepository) CountByStatus(ctx context.Context, eventID uuid.UUID) (map[domain.TicketStatus]int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.count_by_status")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM tickets
		WHERE event_id = $1
		GROUP BY status`, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("count tickets by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan ticket count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CheckIn flips an active ticket to used. The status predicate makes the
// write race-safe: of N concurrent scans of the same code, exactly one
// matches a row.
func (r *postgresTicketRepository) CheckIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.check_in")
	defer span.End()

	span.SetAttributes(attribute.String("ticket.id", id.String()))

	tag, err := r.pool.Exec(ctx, `
		UPDATE tickets
		SET status = $1, used_date = $2, updated_at = now()
		WHERE id = $3 AND status = $4`,
		domain.TicketStatusUsed, at, id, domain.TicketStatusActive)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("check in ticket: %w", err)
	}
	if tag.RowsAffected() > 0 {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	// No row matched: the ticket is missing, already used, or otherwise
	// not admissible. Probe to report which.
	var status domain.TicketStatus
	err = r.pool.QueryRow(ctx,
		`SELECT status FROM tickets WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrTicketNotFound
	}
	if err != nil {
		return fmt.Errorf("probe ticket status: %w", err)
	}
	if status == domain.TicketStatusUsed {
		return domain.ErrTicketAlreadyUsed
	}
	return domain.ErrTicketNotActive
}

// scanTicket reads one ticket row. Nullable columns go through locals.
func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	var contractAddress, tokenID *string
	var usedDate *time.Time

	err := row.Scan(
		&t.ID, &t.EventID, &t.OwnerID, &t.TicketTypeID, &t.TicketTypeName,
		&t.Price, &t.Quantity, &t.QRCode, &t.Status,
		&t.Chain.TransactionHash, &contractAddress, &tokenID,
		&t.Chain.Network, &t.PurchaseDate, &usedDate,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Chain.ContractAddress = contractAddress
	t.Chain.TokenID = tokenID
	t.UsedDate = usedDate
	return &t, nil
}
