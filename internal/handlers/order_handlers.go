package handlers

import (
	"net/http"
	"strconv"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/services"
	"phone_ordering_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 20

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(ors services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: ors}
}

// CreateOrder handles an order keyed in from the dashboard.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	principal, _, ok := callerScope(c)
	if !ok {
		return
	}
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tenantID := principal.TenantID
	if principal.IsPlatformOperator() {
		tenantID = utils.DerefString(req.RestaurantID)
		if tenantID == "" {
			utils.RespondValidationFailed(c, "restaurant_id is required")
			return
		}
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), tenantID, models.SourceDashboard, req)
	if err != nil {
		respondServiceError(c, err, "create order")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetOrders handles fetching orders with filters, newest first.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}

	var filters models.OrderFilters
	if status := c.Query("status"); status != "" {
		parsed, known := models.ParseOrderStatus(status)
		if !known {
			utils.RespondValidationFailed(c, "unknown status "+strconv.Quote(status))
			return
		}
		filters.Status = &parsed
	}
	if source := c.Query("source"); source != "" {
		s := models.OrderSource(source)
		filters.Source = &s
	}
	if date := c.Query("date"); date != "" {
		filters.Date = &date
	}
	page, err := utils.StrToInt(c.Query("page"), 1)
	if err != nil || page < 1 {
		utils.RespondValidationFailed(c, "page must be a positive integer")
		return
	}
	pageSize, err := utils.StrToInt(c.Query("page_size"), defaultPageSize)
	if err != nil || pageSize < 1 {
		utils.RespondValidationFailed(c, "page_size must be a positive integer")
		return
	}
	filters.Page, filters.PageSize = page, pageSize

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), scope, filters)
	if err != nil {
		respondServiceError(c, err, "fetch orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetOrderByID handles fetching a single order with its items.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder applies a partial edit. Totals are not recomputed.
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	var req services.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.orderService.UpdateOrder(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "update order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus moves an order through its lifecycle.
// The idempotency key is read from the body or the Idempotency-Key header.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	result, err := h.orderService.TransitionStatus(c.Request.Context(), scope, c.Param("id"), req.Status, req.IdempotencyKey)
	if err != nil {
		respondServiceError(c, err, "update order status")
		return
	}
	c.JSON(http.StatusOK, result)
}
