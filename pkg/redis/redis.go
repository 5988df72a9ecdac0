package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bodefavour/web3event/pkg/config"
)

const (
	connectAttempts = 4
	connectBackoff  = time.Second
)

// Client wraps redis.Client with a cache of loaded Lua script SHAs so
// hot paths can use EVALSHA without re-sending the script body.
type Client struct {
	client  *redis.Client
	scripts sync.Map // script name -> sha
}

// Connect dials Redis and verifies the connection with a ping, retrying
// a few times to tolerate container startup races.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(connectBackoff):
			}
		}
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return &Client{client: client}, nil
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("connect to redis after %d attempts: %w", connectAttempts, lastErr)
}

// Wrap adapts an existing redis.Client. Used by tests with redismock.
func Wrap(client *redis.Client) *Client {
	return &Client{client: client}
}

// Client returns the underlying redis.Client.
func (c *Client) Client() *redis.Client {
	return c.client
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// HealthCheck pings with a short deadline.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.client.Close()
}

// --- Lua script support ---

// LoadScript loads a Lua script and caches its SHA under name.
func (c *Client) LoadScript(ctx context.Context, name, script string) (string, error) {
	sha, err := c.client.ScriptLoad(ctx, script).Result()
	if err != nil {
		return "", fmt.Errorf("load script %s: %w", name, err)
	}
	c.scripts.Store(name, sha)
	return sha, nil
}

// EvalScript runs a previously loaded script by name via EVALSHA. If the
// server lost the script (NOSCRIPT, e.g. after a restart or failover) it
// falls back to a plain EVAL and re-caches the SHA.
func (c *Client) EvalScript(ctx context.Context, name, script string, keys []string, args ...interface{}) (interface{}, error) {
	if sha, ok := c.scripts.Load(name); ok {
		res, err := c.client.EvalSha(ctx, sha.(string), keys, args...).Result()
		if err == nil {
			return res, nil
		}
		if !isNoScriptErr(err) {
			return nil, err
		}
	}

	res, err := c.client.Eval(ctx, script, keys, args...).Result()
	if err != nil {
		return nil, err
	}
	if _, lerr := c.LoadScript(ctx, name, script); lerr != nil {
		// Next call will fall back to EVAL again; not fatal.
		_ = lerr
	}
	return res, nil
}

func isNoScriptErr(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "NOSCRIPT")
}

// --- Common operation passthroughs ---

// Get returns the string value of key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

// Set stores value under key with an expiration.
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// SetNX stores value only if key does not exist.
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, value, expiration).Result()
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// IncrBy increments the integer value of key by n.
func (c *Client) IncrBy(ctx context.Context, key string, n int64) (int64, error) {
	return c.client.IncrBy(ctx, key, n).Result()
}

// HIncrBy increments field of the hash stored at key by n.
func (c *Client) HIncrBy(ctx context.Context, key, field string, n int64) (int64, error) {
	return c.client.HIncrBy(ctx, key, field, n).Result()
}

// HGetAll returns all fields of the hash stored at key.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.client.HGetAll(ctx, key).Result()
}

// Expire sets a TTL on key.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

// IsNil reports whether err is the redis key-missing sentinel.
func IsNil(err error) bool {
	return err == redis.Nil
}
