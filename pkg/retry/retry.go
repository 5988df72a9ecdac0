package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Config controls backoff behavior.
type Config struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// DefaultConfig returns a conservative backoff suitable for calls to
// external services.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.2,
	}
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do stops immediately instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Result summarizes a completed Do call.
type Result struct {
	Attempts      int
	TotalDuration time.Duration
	Err           error
}

// Retrier runs operations with exponential backoff and jitter.
type Retrier struct {
	cfg Config
}

// New builds a Retrier, filling zero fields from DefaultConfig.
func New(cfg Config) *Retrier {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.JitterFactor < 0 || cfg.JitterFactor > 1 {
		cfg.JitterFactor = def.JitterFactor
	}
	return &Retrier{cfg: cfg}
}

// Do runs op until it succeeds, returns a permanent error, the attempt
// budget is exhausted, or ctx is done.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) Result {
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return Result{Attempts: attempt, TotalDuration: time.Since(start)}
		}
		if IsPermanent(lastErr) {
			return Result{
				Attempts:      attempt,
				TotalDuration: time.Since(start),
				Err:           lastErr,
			}
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return Result{
				Attempts:      attempt,
				TotalDuration: time.Since(start),
				Err:           fmt.Errorf("retry aborted: %w", ctx.Err()),
			}
		case <-time.After(r.backoff(attempt)):
		}
	}

	return Result{
		Attempts:      r.cfg.MaxAttempts,
		TotalDuration: time.Since(start),
		Err:           fmt.Errorf("all %d attempts failed: %w", r.cfg.MaxAttempts, lastErr),
	}
}

// backoff computes the sleep before the next attempt: exponential growth
// capped at MaxInterval, with symmetric jitter to avoid thundering herds.
func (r *Retrier) backoff(attempt int) time.Duration {
	base := float64(r.cfg.InitialInterval) * math.Pow(r.cfg.Multiplier, float64(attempt-1))
	if base > float64(r.cfg.MaxInterval) {
		base = float64(r.cfg.MaxInterval)
	}
	if r.cfg.JitterFactor > 0 {
		delta := base * r.cfg.JitterFactor
		base = base - delta + rand.Float64()*2*delta
	}
	return time.Duration(base)
}
