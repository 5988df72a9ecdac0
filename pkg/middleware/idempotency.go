package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bodefavour/web3event/pkg/logger"
	"github.com/bodefavour/web3event/pkg/redis"
	"github.com/bodefavour/web3event/pkg/response"
)

const (
	// IdempotencyKeyHeader is the request header clients set to make a
	// mutating call safely retryable.
	IdempotencyKeyHeader = "X-Idempotency-Key"

	recordStatusProcessing = "processing"
	recordStatusCompleted  = "completed"
)

// IdempotencyConfig tunes record lifetimes.
type IdempotencyConfig struct {
	// ProcessingTTL bounds how long a request may be marked in flight
	// before a retry is allowed through.
	ProcessingTTL time.Duration
	// CompletedTTL is how long a finished response is replayed.
	CompletedTTL time.Duration
	// KeyPrefix namespaces Redis keys.
	KeyPrefix string
}

// DefaultIdempotencyConfig returns sensible defaults.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		ProcessingTTL: 30 * time.Second,
		CompletedTTL:  24 * time.Hour,
		KeyPrefix:     "idempotency",
	}
}

// idempotencyRecord is what gets stored in Redis per key.
type idempotencyRecord struct {
	Status      string `json:"status"`
	RequestHash string `json:"request_hash"`
	StatusCode  int    `json:"status_code,omitempty"`
	Body        string `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// bodyCapture tees the response body so a completed result can be replayed.
type bodyCapture struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency dedupes mutating requests that carry an X-Idempotency-Key
// header. The same key with the same payload replays the stored response;
// the same key with a different payload is rejected. Requests without the
// header pass through untouched. Redis failures fail open so the cache
// never blocks the write path.
func Idempotency(client *redis.Client, cfg IdempotencyConfig) gin.HandlerFunc {
	log := logger.Get()

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		reqHash, err := hashRequest(c)
		if err != nil {
			response.BadRequest(c, "unable to read request body")
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		redisKey := cfg.KeyPrefix + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key

		// Claim the key. SetNX loses the race for retries, which is the
		// point: only the first request with this key runs the handler.
		newRecord, _ := json.Marshal(idempotencyRecord{
			Status:      recordStatusProcessing,
			RequestHash: reqHash,
		})
		claimed, err := client.SetNX(ctx, redisKey, string(newRecord), cfg.ProcessingTTL)
		if err != nil {
			log.Warn("idempotency store unavailable, processing without dedupe", zap.Error(err))
			c.Next()
			return
		}

		if !claimed {
			raw, err := client.Get(ctx, redisKey)
			if err != nil {
				log.Warn("idempotency record read failed, processing without dedupe", zap.Error(err))
				c.Next()
				return
			}

			var rec idempotencyRecord
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				c.Next()
				return
			}

			if rec.RequestHash != reqHash {
				response.Error(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED",
					"idempotency key was already used with a different request payload", "")
				c.Abort()
				return
			}

			switch rec.Status {
			case recordStatusProcessing:
				response.Conflict(c, "REQUEST_IN_FLIGHT", "a request with this idempotency key is still being processed")
				c.Abort()
				return
			case recordStatusCompleted:
				if rec.ContentType != "" {
					c.Header("Content-Type", rec.ContentType)
				}
				c.Header("X-Idempotent-Replay", "true")
				c.String(rec.StatusCode, rec.Body)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = capture

		c.Next()

		status := c.Writer.Status()
		if status >= 500 {
			// Let the client retry a server failure with the same key.
			if err := client.Del(ctx, redisKey); err != nil {
				log.Warn("idempotency record cleanup failed", zap.Error(err))
			}
			return
		}

		done, _ := json.Marshal(idempotencyRecord{
			Status:      recordStatusCompleted,
			RequestHash: reqHash,
			StatusCode:  status,
			Body:        capture.buf.String(),
			ContentType: c.Writer.Header().Get("Content-Type"),
		})
		if err := client.Set(ctx, redisKey, string(done), cfg.CompletedTTL); err != nil {
			log.Warn("idempotency record store failed", zap.Error(err))
		}
	}
}

// hashRequest fingerprints the method, path, and body. The body is
// restored so downstream binding still works.
func hashRequest(c *gin.Context) (string, error) {
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			return "", err
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte(c.Request.URL.Path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}
