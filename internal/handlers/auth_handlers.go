package handlers

import (
	"net/http"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/services"
	"phone_ordering_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "login")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout marks the caller's restaurant offline. The token itself simply expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	principal, _, ok := callerScope(c)
	if !ok {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), principal); err != nil {
		utils.LogError(err, "Logout: failed to mark restaurant offline", map[string]interface{}{"restaurant_id": principal.TenantID})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully. Please discard your token."})
}

// Session returns the profile of the currently authenticated user.
func (h *AuthHandler) Session(c *gin.Context) {
	principal, _, ok := callerScope(c)
	if !ok {
		return
	}
	resp, err := h.authService.Session(c.Request.Context(), principal)
	if err != nil {
		respondServiceError(c, err, "load session")
		return
	}
	c.JSON(http.StatusOK, resp)
}
