package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bodefavour/web3event/internal/middleware"
	"github.com/bodefavour/web3event/internal/service"
	"github.com/bodefavour/web3event/pkg/response"
)

// UserHandler exposes login and profile management.
type UserHandler struct {
	users service.UserService
}

// NewUserHandler creates the user handler.
func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type loginRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	Name          string `json:"name"`
}

// Login handles POST /api/auth/login. Unknown wallets are registered on
// first login.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid login payload: "+err.Error())
		return
	}

	result, err := h.users.Login(c.Request.Context(), req.WalletAddress, req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}

type updateProfileRequest struct {
	Name      string  `json:"name"`
	Email     *string `json:"email"`
	AvatarURL *string `json:"avatar"`
}

// UpdateMe handles PUT /api/users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid profile payload: "+err.Error())
		return
	}

	user, err := h.users.Update(c.Request.Context(), userID, req.Name, req.Email, req.AvatarURL)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}
