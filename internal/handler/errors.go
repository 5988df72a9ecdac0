package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/pkg/logger"
	"github.com/bodefavour/web3event/pkg/response"
)

// handleError maps domain errors onto the HTTP error envelope. Anything
// unclassified is a 500 and gets logged with its trace context.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		response.Error(c, http.StatusBadRequest, "CAPACITY_EXCEEDED", err.Error(), "")
	case errors.Is(err, domain.ErrInvalidQRCode):
		response.Error(c, http.StatusBadRequest, "INVALID_CODE", err.Error(), "")
	case errors.Is(err, domain.ErrTicketAlreadyUsed):
		response.Error(c, http.StatusBadRequest, "ALREADY_USED", err.Error(), "")
	case errors.Is(err, domain.ErrDuplicateTransaction):
		response.Conflict(c, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrEventHasActiveSales):
		response.Conflict(c, "CONFLICT", err.Error())
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case domain.IsConflictError(err):
		response.Conflict(c, "CONFLICT", err.Error())
	default:
		logger.Get().Error("request failed", zap.Error(err))
		response.InternalError(c, err)
	}
}
