package database

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bodefavour/web3event/pkg/config"
)

const (
	connectAttempts = 4
	connectBackoff  = 2 * time.Second
)

// Postgres wraps a pgxpool.Pool. All repositories share one instance.
type Postgres struct {
	pool *pgxpool.Pool
}

// Options tune pool construction beyond what the connection config carries.
type Options struct {
	// EnableTracing instruments every query with OpenTelemetry spans.
	EnableTracing bool
}

// Connect builds a connection pool from cfg and verifies it with a ping.
// Startup races against the database container, so the first connection
// is retried a few times before giving up.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, opts Options) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime

	if opts.EnableTracing {
		poolCfg.ConnConfig.Tracer = otelpgx.NewTracer(otelpgx.WithIncludeQueryParameters())
	}

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(connectBackoff):
			}
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			lastErr = err
			continue
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			lastErr = err
			continue
		}
		return &Postgres{pool: pool}, nil
	}

	return nil, fmt.Errorf("connect to postgres after %d attempts: %w", connectAttempts, lastErr)
}

// Pool returns the underlying pgxpool.Pool.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Begin starts a transaction.
func (p *Postgres) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.pool.Begin(ctx)
}

// HealthCheck runs a trivial query with a short deadline.
func (p *Postgres) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var one int
	if err := p.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics.
func (p *Postgres) Stats() *pgxpool.Stat {
	return p.pool.Stat()
}

// Close releases all pooled connections.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
