package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"phone_ordering_backend/internal/middleware"
	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubOrders embeds the interface so unimplemented methods panic if reached.
type stubOrders struct {
	services.OrderService
	transitionErr error
	gotKey        string
	gotScope      models.TenantScope
	confirmed     []string
}

func (s *stubOrders) TransitionStatus(ctx context.Context, scope models.TenantScope, orderID, status, key string) (*services.OrderResult, error) {
	s.gotKey, s.gotScope = key, scope
	if s.transitionErr != nil {
		return nil, s.transitionErr
	}
	return &services.OrderResult{Order: &models.Order{ID: orderID, Status: models.StatusCompleted}}, nil
}

func (s *stubOrders) ConfirmPayment(ctx context.Context, orderID string) (*models.Order, error) {
	s.confirmed = append(s.confirmed, orderID)
	return &models.Order{ID: orderID, PaymentStatus: models.PaymentPaid}, nil
}

type stubTools struct{}

func (stubTools) HandleToolCalls(ctx context.Context, req *models.ToolWebhookRequest) models.ToolWebhookResponse {
	results := []models.ToolResult{}
	for _, call := range req.Calls() {
		results = append(results, models.ToolResult{ToolCallID: call.ID, Error: &models.ToolError{Code: models.ToolErrUnsupported}})
	}
	return models.ToolWebhookResponse{Results: results}
}

func withPrincipal(p models.Principal) gin.HandlerFunc {
	return func(c *gin.Context) { middleware.SetPrincipal(c, p) }
}

func TestUpdateOrderStatusMapsErrors(t *testing.T) {
	owner := models.Principal{UserID: "u1", Role: models.RoleRestaurantOwner, TenantID: "t1"}
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"validation", fmt.Errorf("%w: unknown status", services.ErrValidation), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"not found", fmt.Errorf("%w: order", services.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"terminal", fmt.Errorf("%w: order is completed", services.ErrInvalidTransition), http.StatusConflict, "INVALID_TRANSITION"},
		{"forbidden", services.ErrUnauthorized, http.StatusForbidden, "FORBIDDEN"},
		{"database", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &stubOrders{transitionErr: tt.err}
			engine := gin.New()
			engine.PUT("/orders/:id/status", withPrincipal(owner), NewOrderHandler(orders).UpdateOrderStatus)

			req := httptest.NewRequest(http.MethodPut, "/orders/o1/status", strings.NewReader(`{"status":"completed"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Idempotency-Key", "key-1")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), `"code":"`+tt.code+`"`)
			}
			assert.Equal(t, "key-1", orders.gotKey)
			assert.Equal(t, models.ScopeTenant("t1"), orders.gotScope)
		})
	}
}

func TestUpdateOrderStatusBodyKeyWins(t *testing.T) {
	orders := &stubOrders{}
	engine := gin.New()
	engine.PUT("/orders/:id/status", withPrincipal(models.Principal{Role: models.RoleSuperAdmin}), NewOrderHandler(orders).UpdateOrderStatus)

	req := httptest.NewRequest(http.MethodPut, "/orders/o1/status", strings.NewReader(`{"status":"completed","idempotency_key":"body-key"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "header-key")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body-key", orders.gotKey)
	assert.True(t, orders.gotScope.All())
}

func TestOwnerWithoutRestaurantIsForbidden(t *testing.T) {
	engine := gin.New()
	engine.PUT("/orders/:id/status", withPrincipal(models.Principal{Role: models.RoleRestaurantOwner}), NewOrderHandler(&stubOrders{}).UpdateOrderStatus)

	req := httptest.NewRequest(http.MethodPut, "/orders/o1/status", strings.NewReader(`{"status":"completed"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestToolCallsAlwaysAnswer200(t *testing.T) {
	engine := gin.New()
	engine.POST("/voice/tools", NewVoiceHandler(stubTools{}, nil).ToolCalls)

	req := httptest.NewRequest(http.MethodPost, "/voice/tools",
		strings.NewReader(`{"message":{"toolCalls":[{"id":"c1","function":{"name":"book_table"}}]}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[{"toolCallId":"c1","error":{"code":"unsupported_operation","message":""}}]}`, w.Body.String())
}

func TestPaymentWebhook(t *testing.T) {
	orders := &stubOrders{}
	engine := gin.New()
	engine.POST("/webhooks/payments", NewPaymentHandler(orders).PaymentWebhook)

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post(`{"order_id":"o1","status":"failed"}`))
	assert.Empty(t, orders.confirmed)
	assert.Equal(t, http.StatusOK, post(`{"order_id":"o1","status":"PAID"}`))
	assert.Equal(t, []string{"o1"}, orders.confirmed)
	assert.Equal(t, http.StatusBadRequest, post(`{"status":"paid"}`))
}
