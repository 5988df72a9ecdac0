package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bodefavour/web3event/pkg/database"
	"github.com/bodefavour/web3event/pkg/redis"
)

// HealthHandler reports liveness and readiness.
type HealthHandler struct {
	db    *database.Postgres
	cache *redis.Client
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(db *database.Postgres, cache *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Live handles GET /health/live: the process is up.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /health/ready: dependencies answer.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{"postgres": "ok", "redis": "ok"}
	status := http.StatusOK

	if err := h.db.HealthCheck(ctx); err != nil {
		checks["postgres"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := h.cache.HealthCheck(ctx); err != nil {
		checks["redis"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"status": statusWord(status), "checks": checks})
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
