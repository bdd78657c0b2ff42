package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/meditabi/meditabi_api/internal/service"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// AuthHandler handles admin authentication endpoints.
type AuthHandler struct {
	adminAuthSvc *service.AdminAuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(adminAuthSvc *service.AdminAuthService) *AuthHandler {
	return &AuthHandler{adminAuthSvc: adminAuthSvc}
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/admin/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "email and password are required")
		return
	}

	token, err := h.adminAuthSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Invalid credentials")
		return
	}

	utils.Success(c, 200, "Login successful", gin.H{"token": token})
}
