package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/internal/middleware"
	"github.com/bodefavour/web3event/internal/service"
	"github.com/bodefavour/web3event/pkg/response"
)

// EventHandler exposes the event catalog.
type EventHandler struct {
	events service.EventService
}

// NewEventHandler creates the event handler.
func NewEventHandler(events service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// Create handles POST /api/events.
func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid event payload: "+err.Error())
		return
	}

	event, err := h.events.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, dto.NewEventResponse(event))
}

// List handles GET /api/events.
func (h *EventHandler) List(c *gin.Context) {
	var query dto.EventListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	events, err := h.events.List(c.Request.Context(), &query)
	if err != nil {
		handleError(c, err)
		return
	}

	out := make([]*dto.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, dto.NewEventResponse(e))
	}
	response.Success(c, out)
}

// Get handles GET /api/events/:id. Each read counts as a page view.
func (h *EventHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.NewEventResponse(event))
}

// Update handles PUT /api/events/:id.
func (h *EventHandler) Update(c *gin.Context) {
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

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid event payload: "+err.Error())
		return
	}

	event, err := h.events.Update(c.Request.Context(), id, userID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.NewEventResponse(event))
}

// Delete handles DELETE /api/events/:id.
func (h *EventHandler) Delete(c *gin.Context) {
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

	if err := h.events.Delete(c.Request.Context(), id, userID); err != nil {
		handleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Event deleted successfully", nil)
}

// Favorite handles POST /api/events/:id/favorite.
func (h *EventHandler) Favorite(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	if err := h.events.Favorite(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

// Unfavorite handles DELETE /api/events/:id/favorite.
func (h *EventHandler) Unfavorite(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	if err := h.events.Unfavorite(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
