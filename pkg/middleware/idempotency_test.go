package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodefavour/web3event/pkg/redis"
)

const (
	testRoute = "/pay"
	testKey   = "key-1"
	testBody  = `{"amount":1}`
)

func idempotencyTestRouter(client *redis.Client, handlerCalls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST(testRoute, Idempotency(client, DefaultIdempotencyConfig()), func(c *gin.Context) {
		*handlerCalls++
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	return r
}

func postWithKey(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, testRoute, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func requestFingerprint(body string) string {
	h := sha256.New()
	h.Write([]byte(http.MethodPost))
	h.Write([]byte(testRoute))
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}

func recordJSON(t *testing.T, rec idempotencyRecord) string {
	t.Helper()
	buf, err := json.Marshal(rec)
	require.NoError(t, err)
	return string(buf)
}

func redisRecordKey() string {
	return "idempotency:POST:" + testRoute + ":" + testKey
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	calls := 0

	w := postWithKey(idempotencyTestRouter(redis.Wrap(db), &calls), "", testBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_FirstRequestStoresResult(t *testing.T) {
	cfg := DefaultIdempotencyConfig()
	hash := requestFingerprint(testBody)

	db, mock := redismock.NewClientMock()
	mock.ExpectSetNX(redisRecordKey(),
		recordJSON(t, idempotencyRecord{Status: recordStatusProcessing, RequestHash: hash}),
		cfg.ProcessingTTL).SetVal(true)
	mock.ExpectSet(redisRecordKey(),
		recordJSON(t, idempotencyRecord{
			Status:      recordStatusCompleted,
			RequestHash: hash,
			StatusCode:  http.StatusCreated,
			Body:        `{"ok":true}`,
			ContentType: "application/json; charset=utf-8",
		}),
		cfg.CompletedTTL).SetVal("OK")

	calls := 0
	w := postWithKey(idempotencyTestRouter(redis.Wrap(db), &calls), testKey, testBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	cfg := DefaultIdempotencyConfig()
	hash := requestFingerprint(testBody)
	stored := recordJSON(t, idempotencyRecord{
		Status:      recordStatusCompleted,
		RequestHash: hash,
		StatusCode:  http.StatusCreated,
		Body:        `{"ok":true}`,
		ContentType: "application/json; charset=utf-8",
	})

	db, mock := redismock.NewClientMock()
	mock.ExpectSetNX(redisRecordKey(),
		recordJSON(t, idempotencyRecord{Status: recordStatusProcessing, RequestHash: hash}),
		cfg.ProcessingTTL).SetVal(false)
	mock.ExpectGet(redisRecordKey()).SetVal(stored)

	calls := 0
	w := postWithKey(idempotencyTestRouter(redis.Wrap(db), &calls), testKey, testBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, "true", w.Header().Get("X-Idempotent-Replay"))
	assert.Equal(t, 0, calls, "handler must not run on a replay")
}

func TestIdempotency_RejectsKeyReuseWithDifferentPayload(t *testing.T) {
	cfg := DefaultIdempotencyConfig()
	stored := recordJSON(t, idempotencyRecord{
		Status:      recordStatusCompleted,
		RequestHash: requestFingerprint(`{"amount":2}`),
		StatusCode:  http.StatusCreated,
	})

	db, mock := redismock.NewClientMock()
	mock.ExpectSetNX(redisRecordKey(),
		recordJSON(t, idempotencyRecord{Status: recordStatusProcessing, RequestHash: requestFingerprint(testBody)}),
		cfg.ProcessingTTL).SetVal(false)
	mock.ExpectGet(redisRecordKey()).SetVal(stored)

	calls := 0
	w := postWithKey(idempotencyTestRouter(redis.Wrap(db), &calls), testKey, testBody)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "IDEMPOTENCY_KEY_REUSED")
	assert.Equal(t, 0, calls)
}

func TestIdempotency_ConcurrentDuplicateRejected(t *testing.T) {
	cfg := DefaultIdempotencyConfig()
	hash := requestFingerprint(testBody)
	stored := recordJSON(t, idempotencyRecord{Status: recordStatusProcessing, RequestHash: hash})

	db, mock := redismock.NewClientMock()
	mock.ExpectSetNX(redisRecordKey(), stored, cfg.ProcessingTTL).SetVal(false)
	mock.ExpectGet(redisRecordKey()).SetVal(stored)

	calls := 0
	w := postWithKey(idempotencyTestRouter(redis.Wrap(db), &calls), testKey, testBody)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_IN_FLIGHT")
	assert.Equal(t, 0, calls)
}

// Redis being unavailable must not block writes.
func TestIdempotency_FailsOpen(t *testing.T) {
	cfg := DefaultIdempotencyConfig()
	hash := requestFingerprint(testBody)

	db, mock := redismock.NewClientMock()
	mock.ExpectSetNX(redisRecordKey(),
		recordJSON(t, idempotencyRecord{Status: recordStatusProcessing, RequestHash: hash}),
		cfg.ProcessingTTL).SetErr(assert.AnError)

	calls := 0
	w := postWithKey(idempotencyTestRouter(redis.Wrap(db), &calls), testKey, testBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
}
