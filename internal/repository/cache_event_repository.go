package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/pkg/logger"
	"github.com/bodefavour/web3event/pkg/redis"
	"github.com/bodefavour/web3event/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

const (
	eventCachePrefix = "event:cache:"
	eventCacheTTL    = 30 * time.Second
)

// cachedEventRepository decorates an EventRepository with a short-lived
// Redis cache on GetByID. Sold counts move while tickets sell, so the TTL
// is deliberately short; writes through this repository invalidate
// eagerly. Cache failures fall through to Postgres.
type cachedEventRepository struct {
	inner EventRepository
	cache *redis.Client
	log   *zap.Logger
}

// NewCachedEventRepository wraps inner with a Redis read cache.
func NewCachedEventRepository(inner EventRepository, cache *redis.Client) EventRepository {
	return &cachedEventRepository{
		inner: inner,
		cache: cache,
		log:   logger.Get(),
	}
}

var _ EventRepository = (*cachedEventRepository)(nil)

func (r *cachedEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.cache.event.get_by_id")
	defer span.End()

	key := eventCachePrefix + id.String()
	if raw, err := r.cache.Get(ctx, key); err == nil {
		var event domain.Event
		if err := json.Unmarshal([]byte(raw), &event); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &event, nil
		}
	} else if !redis.IsNil(err) {
		r.log.Warn("event cache read failed", zap.Error(err))
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	event, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if buf, err := json.Marshal(event); err == nil {
		if err := r.cache.Set(ctx, key, buf, eventCacheTTL); err != nil {
			r.log.Warn("event cache write failed", zap.Error(err))
		}
	}
	return event, nil
}

func (r *cachedEventRepository) Create(ctx context.Context, event *domain.Event) error {
	return r.inner.Create(ctx, event)
}

func (r *cachedEventRepository) List(ctx context.Context, filter EventFilter) ([]*domain.Event, error) {
	return r.inner.List(ctx, filter)
}

func (r *cachedEventRepository) Update(ctx context.Context, event *domain.Event) error {
	if err := r.inner.Update(ctx, event); err != nil {
		return err
	}
	r.invalidate(ctx, event.ID)
	return nil
}

func (r *cachedEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedEventRepository) AddViews(ctx context.Context, counts map[uuid.UUID]int64) error {
	if err := r.inner.AddViews(ctx, counts); err != nil {
		return err
	}
	for id := range counts {
		r.invalidate(ctx, id)
	}
	return nil
}

func (r *cachedEventRepository) IncrementFavorites(ctx context.Context, id uuid.UUID, delta int64) error {
	if err := r.inner.IncrementFavorites(ctx, id, delta); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedEventRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.cache.Del(ctx, eventCachePrefix+id.String()); err != nil {
		r.log.Warn("event cache invalidation failed",
			zap.String("event_id", id.String()), zap.Error(err))
	}
}
