package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	principalKey = "principal"

	// WebhookSecretHeader carries the shared secret on webhook calls.
	WebhookSecretHeader = "X-Webhook-Secret"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
// On success the verified Principal is stored in the context.
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", ""))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid authorization header format. Use Bearer <token>", ""))
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", err.Error()))
			return
		}

		c.Set(principalKey, models.Principal{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Role:     claims.Role,
			TenantID: claims.TenantID,
		})
		c.Next()
	}
}

// GetPrincipal returns the caller stored by AuthMiddleware.
func GetPrincipal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

// SetPrincipal stores a caller in the context. Used by tests and internal callers.
func SetPrincipal(c *gin.Context, p models.Principal) {
	c.Set(principalKey, p)
}

// RoleAuthMiddleware creates a Gin middleware for role-based authorization.
// It checks if the caller's role is one of the allowed roles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", "AuthMiddleware must run first"))
			return
		}

		for _, r := range allowedRoles {
			if strings.EqualFold(principal.Role, r) {
				c.Next()
				return
			}
		}

		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
			"You do not have permission to access this resource", "required roles: "+strings.Join(allowedRoles, ", ")))
	}
}

// WebhookSecretMiddleware rejects webhook calls that do not present the shared secret.
// An empty secret disables the check (local development).
func WebhookSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		presented := c.GetHeader(WebhookSecretHeader)
		if presented == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				presented = auth[len("bearer "):]
			}
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			utils.LogWarn("Webhook call rejected", map[string]interface{}{"path": c.FullPath(), "ip": c.ClientIP()})
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid webhook secret", ""))
			return
		}
		c.Next()
	}
}
