package handlers

import (
	"errors"
	"net/http"

	"phone_ordering_backend/internal/middleware"
	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/services"
	"phone_ordering_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps the service error taxonomy onto HTTP.
func respondServiceError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Input validation failed", err.Error()))
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Resource not found", err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid email or password", ""))
	case errors.Is(err, services.ErrUnauthorized):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You do not have permission to perform this action", err.Error()))
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidTransition, "Invalid status transition", err.Error()))
	case errors.Is(err, services.ErrConflict):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Resource already exists", err.Error()))
	default:
		utils.LogError(err, action+" failed", map[string]interface{}{"path": c.FullPath()})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to "+action, "Internal error"))
	}
}

func respondBindError(c *gin.Context, err error) {
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
}

// callerScope resolves the authenticated caller and the tenant scope they act in.
// It writes the error response itself and returns ok=false when the request must stop.
func callerScope(c *gin.Context) (models.Principal, models.TenantScope, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", ""))
		return models.Principal{}, models.TenantScope{}, false
	}
	scope, ok := principal.Scope()
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Account is not linked to a restaurant", ""))
		return principal, models.TenantScope{}, false
	}
	return principal, scope, true
}

// targetTenant picks the restaurant a request acts on: the caller's own, or ?restaurant_id= for the operator.
func targetTenant(c *gin.Context, principal models.Principal) (string, bool) {
	if !principal.IsPlatformOperator() {
		return principal.TenantID, true
	}
	id := c.Query("restaurant_id")
	if id == "" {
		utils.RespondValidationFailed(c, "restaurant_id query parameter is required")
		return "", false
	}
	return id, true
}
