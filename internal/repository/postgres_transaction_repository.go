package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

type postgresTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTransactionRepository creates a PostgreSQL-backed transaction repository.
func NewPostgresTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &postgresTransactionRepository{pool: pool}
}

var _ TransactionRepository = (*postgresTransactionRepository)(nil)

const transactionColumns = `
	id, user_id, event_id, ticket_id, type, amount, currency, status,
	payment_method, tx_hash, block_number, chain_network, gas_used, gas_paid,
	wallet_address, from_address, to_address, error_message,
	created_at, updated_at`

func (r *postgresTransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.transaction.create")
	defer span.End()

	err := r.pool.QueryRow(ctx, `
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
			return domain.ErrDuplicateTransaction
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *postgresTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.transaction.get_by_id")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

func (r *postgresTransactionRepository) GetByHash(ctx context.Context, hash string) (*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.transaction.get_by_hash")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE tx_hash = $1`, hash)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("get transaction by hash: %w", err)
	}
	return txn, nil
}

func (r *postgresTransactionRepository) List(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.transaction.list")
	defer span.End()

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", idx)
		args = append(args, *filter.UserID)
		idx++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", idx)
		args = append(args, filter.Type)
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
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// ListPending returns the oldest unconfirmed transactions for the chain
// verification worker.
func (r *postgresTransactionRepository) ListPending(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.transaction.list_pending")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE status = $1
		 ORDER BY created_at ASC
		 LIMIT $2`,
		domain.TransactionStatusPending, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// Settle records the on-chain verification outcome. Only pending rows are
// touched so a late verification cannot clobber a refund.
func (r *postgresTransactionRepository) Settle(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, blockNumber *int64, gasUsed *string, errMsg *string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.transaction.settle")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET status = $1, block_number = $2, gas_used = $3, error_message = $4,
		    updated_at = now()
		WHERE id = $5 AND status = $6`,
		status, blockNumber, gasUsed, errMsg, id, domain.TransactionStatusPending)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("settle transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// UpdateStatus moves a transaction between settlement states, guarded on
// the state the caller observed.
func (r *postgresTransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.TransactionStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.transaction.update_status")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or its status moved underneath us.
		var current domain.TransactionStatus
		err := r.pool.QueryRow(ctx,
			`SELECT status FROM transactions WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTransactionNotFound
		}
		if err != nil {
			return fmt.Errorf("probe transaction status: %w", err)
		}
		return domain.ErrInvalidStatusChange
	}
	return nil
}

// scanTransaction reads one transaction row. Nullable columns go through
// locals.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var ticketID *uuid.UUID
	var blockNumber *int64
	var gasUsed, gasPaid, walletAddress, fromAddress, toAddress, errorMessage *string

	err := row.Scan(
		&t.ID, &t.UserID, &t.EventID, &ticketID, &t.Type, &t.Amount,
		&t.Currency, &t.Status, &t.PaymentMethod,
		&t.Chain.TransactionHash, &blockNumber, &t.Chain.Network,
		&gasUsed, &gasPaid,
		&walletAddress, &fromAddress, &toAddress, &errorMessage,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.TicketID = ticketID
	t.Chain.BlockNumber = blockNumber
	t.Chain.GasUsed = gasUsed
	t.Chain.GasPaid = gasPaid
	t.Meta.WalletAddress = walletAddress
	t.Meta.FromAddress = fromAddress
	t.Meta.ToAddress = toAddress
	t.Meta.ErrorMessage = errorMessage
	return &t, nil
}
