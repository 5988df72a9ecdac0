package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/internal/middleware"
	"github.com/bodefavour/web3event/internal/service"
	"github.com/bodefavour/web3event/pkg/response"
)

// NotificationHandler exposes in-app notifications.
type NotificationHandler struct {
	notifications service.NotificationService
}

// NewNotificationHandler creates the notification handler.
func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Create handles POST /api/notifications.
func (h *NotificationHandler) Create(c *gin.Context) {
	if _, ok := middleware.UserID(c); !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid notification payload: "+err.Error())
		return
	}

	n, err := h.notifications.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, n)
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var query dto.NotificationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	result, err := h.notifications.List(c.Request.Context(), userID, &query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// MarkRead handles PUT /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id, userID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkAllRead handles PUT /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.notifications.MarkAllRead(c.Request.Context(), userID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

// Delete handles DELETE /api/notifications/:id.
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), id, userID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
