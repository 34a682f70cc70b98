package handlers

import (
	"net/http"
	"strings"

	"phone_ordering_backend/internal/services"
	"phone_ordering_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PaymentWebhookRequest is the payment provider's confirmation callback.
type PaymentWebhookRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
	LinkID  string `json:"link_id"`
}

// PaymentHandler receives payment confirmations.
type PaymentHandler struct {
	orderService services.OrderService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ors services.OrderService) *PaymentHandler {
	return &PaymentHandler{orderService: ors}
}

// PaymentWebhook marks an order paid on a successful payment; other statuses are acknowledged and ignored.
func (h *PaymentHandler) PaymentWebhook(c *gin.Context) {
	var req PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	switch strings.ToLower(req.Status) {
	case "paid", "succeeded", "completed":
	default:
		utils.LogInfo("Payment webhook ignored", map[string]interface{}{"order_id": req.OrderID, "status": req.Status})
		c.JSON(http.StatusOK, gin.H{"success": true, "ignored": true})
		return
	}

	order, err := h.orderService.ConfirmPayment(c.Request.Context(), req.OrderID)
	if err != nil {
		respondServiceError(c, err, "confirm payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}
