package handlers

import (
	"net/http"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// RestaurantHandler serves the owner settings page and the operator's restaurant directory.
type RestaurantHandler struct {
	tenantService services.TenantService
}

// NewRestaurantHandler creates a new RestaurantHandler.
func NewRestaurantHandler(ts services.TenantService) *RestaurantHandler {
	return &RestaurantHandler{tenantService: ts}
}

// GetSettings returns the caller's restaurant.
func (h *RestaurantHandler) GetSettings(c *gin.Context) {
	principal, scope, ok := callerScope(c)
	if !ok {
		return
	}
	id, ok := targetTenant(c, principal)
	if !ok {
		return
	}
	tenant, err := h.tenantService.GetTenant(c.Request.Context(), scope, id)
	if err != nil {
		respondServiceError(c, err, "fetch restaurant settings")
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// UpdateSettings applies a partial settings update to the caller's restaurant.
func (h *RestaurantHandler) UpdateSettings(c *gin.Context) {
	principal, _, ok := callerScope(c)
	if !ok {
		return
	}
	id, ok := targetTenant(c, principal)
	if !ok {
		return
	}
	h.updateSettings(c, principal, id)
}

func (h *RestaurantHandler) updateSettings(c *gin.Context, principal models.Principal, id string) {
	var req services.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	tenant, err := h.tenantService.UpdateSettings(c.Request.Context(), principal, id, req)
	if err != nil {
		respondServiceError(c, err, "update restaurant settings")
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// ListRestaurants returns every restaurant with its order rollup.
func (h *RestaurantHandler) ListRestaurants(c *gin.Context) {
	principal, _, ok := callerScope(c)
	if !ok {
		return
	}
	tenants, err := h.tenantService.ListTenantsWithStats(c.Request.Context(), principal)
	if err != nil {
		respondServiceError(c, err, "fetch restaurants")
		return
	}
	if tenants == nil {
		tenants = []models.TenantWithStats{}
	}
	c.JSON(http.StatusOK, tenants)
}

// CreateRestaurant registers a restaurant and, optionally, its owner account.
func (h *RestaurantHandler) CreateRestaurant(c *gin.Context) {
	principal, _, ok := callerScope(c)
	if !ok {
		return
	}
	var req services.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	tenant, err := h.tenantService.CreateTenant(c.Request.Context(), principal, req)
	if err != nil {
		respondServiceError(c, err, "create restaurant")
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

// GetRestaurant returns one restaurant.
func (h *RestaurantHandler) GetRestaurant(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	tenant, err := h.tenantService.GetTenant(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch restaurant")
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// UpdateRestaurant lets the operator edit any restaurant, voice line included.
func (h *RestaurantHandler) UpdateRestaurant(c *gin.Context) {
	principal, _, ok := callerScope(c)
	if !ok {
		return
	}
	h.updateSettings(c, principal, c.Param("id"))
}

// DeleteRestaurant removes a restaurant and all of its data.
func (h *RestaurantHandler) DeleteRestaurant(c *gin.Context) {
	principal, _, ok := callerScope(c)
	if !ok {
		return
	}
	if err := h.tenantService.DeleteTenant(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondServiceError(c, err, "delete restaurant")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
