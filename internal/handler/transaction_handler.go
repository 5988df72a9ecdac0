package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/dto"
	"github.com/bodefavour/web3event/internal/middleware"
	"github.com/bodefavour/web3event/internal/service"
	"github.com/bodefavour/web3event/pkg/response"
)

// TransactionHandler exposes financial history.
type TransactionHandler struct {
	transactions service.TransactionService
}

// NewTransactionHandler creates the transaction handler.
func NewTransactionHandler(transactions service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// Create handles POST /api/transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid transaction payload: "+err.Error())
		return
	}

	txn, err := h.transactions.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, txn)
}

// List handles GET /api/transactions for the caller's own history.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var query dto.TransactionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	txns, err := h.transactions.ListByUser(c.Request.Context(), userID, &query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, txns)
}

// UpdateStatus handles PUT /api/transactions/:id/status.
func (h *TransactionHandler) UpdateStatus(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid transaction id")
		return
	}

	var req dto.UpdateTransactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid status payload: "+err.Error())
		return
	}

	txn, err := h.transactions.UpdateStatus(c.Request.Context(), id, userID, domain.TransactionStatus(req.Status))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, txn)
}

// Get handles GET /api/transactions/:id.
func (h *TransactionHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid transaction id")
		return
	}

	txn, err := h.transactions.Get(c.Request.Context(), id, userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, txn)
}
