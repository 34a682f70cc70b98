package handlers

import (
	"net/http"

	"phone_ordering_backend/internal/services"
	"phone_ordering_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler serves the sales dashboard figures.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(as services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: as}
}

// GetSalesAnalytics returns rollups for the caller's restaurant, or all of them for the operator.
func (h *AnalyticsHandler) GetSalesAnalytics(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	topN, err := utils.StrToInt(c.Query("top"), services.DefaultTopItems)
	if err != nil {
		utils.RespondValidationFailed(c, "top must be an integer")
		return
	}
	stats, err := h.analyticsService.SalesAnalytics(c.Request.Context(), scope, topN)
	if err != nil {
		respondServiceError(c, err, "compute sales analytics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetPlatformAnalytics returns the operator's cross-restaurant totals.
func (h *AnalyticsHandler) GetPlatformAnalytics(c *gin.Context) {
	principal, _, ok := callerScope(c)
	if !ok {
		return
	}
	stats, err := h.analyticsService.PlatformAnalytics(c.Request.Context(), principal)
	if err != nil {
		respondServiceError(c, err, "compute platform analytics")
		return
	}
	c.JSON(http.StatusOK, stats)
}
