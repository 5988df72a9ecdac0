package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/internal/middleware"
	"github.com/bodefavour/web3event/internal/service"
	"github.com/bodefavour/web3event/pkg/response"
)

// TicketHandler exposes purchase, listing, and gate verification.
type TicketHandler struct {
	tickets service.TicketService
}

// NewTicketHandler creates the ticket handler.
func NewTicketHandler(tickets service.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// Purchase handles POST /api/tickets.
func (h *TicketHandler) Purchase(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req dto.PurchaseTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid purchase payload: "+err.Error())
		return
	}

	result, err := h.tickets.Purchase(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	if result.Replayed {
		response.Success(c, result)
		return
	}
	response.CreatedWithMessage(c, "Ticket purchased successfully", result)
}

// List handles GET /api/tickets for the caller's own tickets.
func (h *TicketHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var query dto.TicketListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	tickets, err := h.tickets.ListByOwner(c.Request.Context(), userID, &query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tickets)
}

// ListByEvent handles GET /api/events/:id/tickets, the host's
// attendance view.
func (h *TicketHandler) ListByEvent(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	var query dto.TicketListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	result, err := h.tickets.ListByEvent(c.Request.Context(), eventID, userID, &query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Get handles GET /api/tickets/:id.
func (h *TicketHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ticket id")
		return
	}

	ticket, err := h.tickets.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ticket)
}

// Verify handles PUT /api/tickets/:id/verify, the gate check-in.
func (h *TicketHandler) Verify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ticket id")
		return
	}

	var req dto.VerifyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid verify payload: "+err.Error())
		return
	}

	result, err := h.tickets.Verify(c.Request.Context(), id, req.QRCode)
	if err != nil {
		handleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Ticket verified successfully", result)
}
