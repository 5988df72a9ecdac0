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

type postgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a PostgreSQL-backed user repository.
func NewPostgresUserRepository(pool *pgxpool.Pool) UserRepository {
	return &postgresUserRepository{pool: pool}
}

var _ UserRepository = (*postgresUserRepository)(nil)

func (r *postgresUserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.user.create")
	defer span.End()

	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, wallet_address, email, name, avatar_url)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		u.ID, u.WalletAddress, u.Email, u.Name, u.AvatarURL,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("wallet address already registered: %w", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.user.get_by_id")
	defer span.End()

	u, err := r.get(ctx, `WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
	}
	return u, err
}

func (r *postgresUserRepository) GetByWallet(ctx context.Context, wallet string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.user.get_by_wallet")
	defer span.End()

	u, err := r.get(ctx, `WHERE wallet_address = $1`, wallet)
	if err != nil {
		span.RecordError(err)
	}
	return u, err
}

func (r *postgresUserRepository) get(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	var u domain.User
	var email, avatarURL *string

	err := r.pool.QueryRow(ctx, `
		SELECT id, wallet_address, email, name, avatar_url, created_at, updated_at
		FROM users `+where, arg,
	).Scan(&u.ID, &u.WalletAddress, &email, &u.Name, &avatarURL,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	u.Email = email
	u.AvatarURL = avatarURL
	return &u, nil
}

func (r *postgresUserRepository) Update(ctx context.Context, u *domain.User) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.user.update")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, name = $2, avatar_url = $3, updated_at = now()
		WHERE id = $4`,
		u.Email, u.Name, u.AvatarURL, u.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
