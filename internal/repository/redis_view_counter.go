package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/bodefavour/web3event/pkg/redis"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

const viewCounterKey = "event:views"

// drainViewsScript reads and deletes the whole view hash atomically so
// concurrent Record calls during a flush are never lost or double counted.
const drainViewsScript = `
local counts = redis.call('HGETALL', KEYS[1])
if #counts > 0 then
	redis.call('DEL', KEYS[1])
end
return counts
`

type redisViewCounter struct {
	client *redis.Client
}

// NewRedisViewCounter buffers event page views in a Redis hash. The flush
// worker drains it periodically and applies the counts to Postgres.
func NewRedisViewCounter(client *redis.Client) ViewCounter {
	return &redisViewCounter{client: client}
}

var _ ViewCounter = (*redisViewCounter)(nil)

func (c *redisViewCounter) Record(ctx context.Context, eventID uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.views.record")
	defer span.End()

	if _, err := c.client.HIncrBy(ctx, viewCounterKey, eventID.String(), 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hincrby failed")
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

func (c *redisViewCounter) Flush(ctx context.Context) (map[uuid.UUID]int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.views.flush")
	defer span.End()

	raw, err := c.client.EvalScript(ctx, "drain_views", drainViewsScript,
		[]string{viewCounterKey})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "drain failed")
		return nil, fmt.Errorf("drain views: %w", err)
	}

	// HGETALL from Lua comes back as a flat [field, value, ...] array.
	pairs, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("drain views: unexpected reply type %T", raw)
	}

	counts := make(map[uuid.UUID]int64, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		field, ok := pairs[i].(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		var n int64
		switch v := pairs[i+1].(type) {
		case string:
			n, _ = strconv.ParseInt(v, 10, 64)
		case int64:
			n = v
		}
		if n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}
