package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/middleware"
	"github.com/bodefavour/web3event/internal/service"
	"github.com/bodefavour/web3event/pkg/response"
)

// AnalyticsHandler exposes host-facing sales analytics.
type AnalyticsHandler struct {
	analytics service.AnalyticsService
}

// NewAnalyticsHandler creates the analytics handler.
func NewAnalyticsHandler(analytics service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// EventAnalytics handles GET /api/analytics/events/:id.
func (h *AnalyticsHandler) EventAnalytics(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	result, err := h.analytics.EventAnalytics(c.Request.Context(), id, userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// HostAnalytics handles GET /api/analytics/host.
func (h *AnalyticsHandler) HostAnalytics(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	result, err := h.analytics.HostAnalytics(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
