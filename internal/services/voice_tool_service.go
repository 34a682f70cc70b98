package services

import (
	"context"
	"errors"
	"strings"

	"phone_ordering_backend/internal/metrics"
	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// Tools the voice agent may call.
const (
	ToolGetMenu     = "get_menu"
	ToolCreateOrder = "create_order"
)

type tenantArgs struct {
	RestaurantID string `json:"restaurantId"`
	TenantID     string `json:"tenantId"`
}

func (a tenantArgs) requested() string {
	if id := strings.TrimSpace(a.RestaurantID); id != "" {
		return id
	}
	return strings.TrimSpace(a.TenantID)
}

type voiceOrderItem struct {
	Name     string           `json:"name"`
	Quantity *int             `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
	Notes    string           `json:"notes"`
}

type createOrderArgs struct {
	tenantArgs
	CustomerName  string           `json:"customerName"`
	CustomerPhone string           `json:"customerPhone"`
	Address       string           `json:"address"`
	OrderType     string           `json:"orderType"`
	PaymentMethod string           `json:"paymentMethod"`
	Notes         string           `json:"notes"`
	Items         []voiceOrderItem `json:"items"`
}

// VoiceToolService answers function calls from the voice agent. Tool failures are returned as
// structured results, never as errors.
type VoiceToolService interface {
	HandleToolCalls(ctx context.Context, req *models.ToolWebhookRequest) models.ToolWebhookResponse
}

type voiceToolService struct {
	tenants          TenantService
	menu             MenuService
	orders           OrderService
	fallbackTenantID string
	currency         string
}

// NewVoiceToolService creates a new instance of VoiceToolService.
func NewVoiceToolService(ts TenantService, ms MenuService, ors OrderService, fallbackTenantID, currency string) VoiceToolService {
	return &voiceToolService{
		tenants:          ts,
		menu:             ms,
		orders:           ors,
		fallbackTenantID: strings.TrimSpace(fallbackTenantID),
		currency:         currency,
	}
}

func (s *voiceToolService) HandleToolCalls(ctx context.Context, req *models.ToolWebhookRequest) models.ToolWebhookResponse {
	calls := req.Calls()
	resp := models.ToolWebhookResponse{Results: make([]models.ToolResult, 0, len(calls))}
	for _, call := range calls {
		result := s.handle(ctx, req, call)
		result.ToolCallID = call.ID

		outcome := "ok"
		if result.Error != nil {
			outcome = result.Error.Code
		}
		metrics.RecordToolCall(call.Function.Name, outcome)
		resp.Results = append(resp.Results, result)
	}
	return resp
}

func (s *voiceToolService) handle(ctx context.Context, req *models.ToolWebhookRequest, call models.ToolCall) models.ToolResult {
	switch call.Function.Name {
	case ToolGetMenu:
		var args tenantArgs
		if err := call.Function.Arguments.Decode(&args); err != nil {
			return toolFailure(models.ToolErrValidation, "could not read the tool arguments", err)
		}
		tenant, failure := s.resolveTenant(ctx, req, args.requested())
		if failure != nil {
			return *failure
		}
		return s.getMenu(ctx, tenant)
	case ToolCreateOrder:
		var args createOrderArgs
		if err := call.Function.Arguments.Decode(&args); err != nil {
			return toolFailure(models.ToolErrValidation, "could not read the tool arguments", err)
		}
		tenant, failure := s.resolveTenant(ctx, req, args.requested())
		if failure != nil {
			return *failure
		}
		return s.createOrder(ctx, req, tenant, args)
	}
	utils.LogWarn("Unsupported voice tool", map[string]interface{}{"tool": call.Function.Name, "tool_call_id": call.ID})
	return toolFailure(models.ToolErrUnsupported, "unsupported tool: "+call.Function.Name, nil)
}

// resolveTenant tries the explicit argument, then the called line, then the configured fallback.
func (s *voiceToolService) resolveTenant(ctx context.Context, req *models.ToolWebhookRequest, requested string) (*models.Tenant, *models.ToolResult) {
	if requested != "" {
		tenant, err := s.tenants.GetTenant(ctx, models.ScopeTenant(requested), requested)
		if err == nil {
			return tenant, nil
		}
		if !isNotFound(err) {
			return nil, internalFailure(err)
		}
		utils.LogWarn("Voice tool named an unknown restaurant", map[string]interface{}{"restaurant_id": requested})
	}

	if line := req.LineID(); line != "" {
		tenant, found, err := s.tenants.FindTenantByVoiceLine(ctx, line)
		if err != nil {
			return nil, internalFailure(err)
		}
		if found {
			return tenant, nil
		}
	}

	if s.fallbackTenantID != "" {
		tenant, err := s.tenants.GetTenant(ctx, models.ScopeTenant(s.fallbackTenantID), s.fallbackTenantID)
		if err == nil {
			utils.LogWarn("Voice tool resolved to the fallback restaurant", map[string]interface{}{
				"restaurant_id": tenant.ID,
				"line":          req.LineID(),
			})
			return tenant, nil
		}
		if !isNotFound(err) {
			return nil, internalFailure(err)
		}
		utils.LogError(err, "Configured fallback restaurant does not exist", map[string]interface{}{"restaurant_id": s.fallbackTenantID})
	}

	failure := toolFailure(models.ToolErrNotConfigured, "this phone line is not linked to a restaurant", nil)
	return nil, &failure
}

func (s *voiceToolService) getMenu(ctx context.Context, tenant *models.Tenant) models.ToolResult {
	menu, err := s.menu.MenuForVoice(ctx, tenant.ID)
	if err != nil {
		return *internalFailure(err)
	}
	return models.ToolResult{Result: map[string]interface{}{
		"success":    true,
		"restaurant": tenant.Name,
		"categories": menu,
	}}
}

func (s *voiceToolService) createOrder(ctx context.Context, req *models.ToolWebhookRequest, tenant *models.Tenant, args createOrderArgs) models.ToolResult {
	if strings.TrimSpace(args.CustomerName) == "" {
		return toolFailure(models.ToolErrValidation, "customerName is required", nil)
	}
	if len(args.Items) == 0 {
		return toolFailure(models.ToolErrValidation, "at least one item is required", nil)
	}

	var prices map[string]models.MenuItem
	items := make([]CreateOrderItemRequest, 0, len(args.Items))
	for _, item := range args.Items {
		line := CreateOrderItemRequest{
			Name:     strings.TrimSpace(item.Name),
			Quantity: 1,
			Notes:    utils.NewNullString(item.Notes),
		}
		if item.Quantity != nil {
			line.Quantity = *item.Quantity
		}
		if item.Price != nil {
			line.Price = *item.Price
		} else {
			if prices == nil {
				var err error
				if prices, err = s.availableItems(ctx, tenant.ID); err != nil {
					return *internalFailure(err)
				}
			}
			menuItem, ok := prices[strings.ToLower(line.Name)]
			if !ok {
				return toolFailure(models.ToolErrValidation, "item not on the menu: "+line.Name, nil)
			}
			line.Name = menuItem.Name
			line.Price = menuItem.Price
			line.MenuItemID = &menuItem.ID
		}
		items = append(items, line)
	}

	phone := strings.TrimSpace(args.CustomerPhone)
	if phone == "" {
		phone = callerNumber(req)
	}
	orderType := models.OrderType(strings.ToLower(strings.TrimSpace(args.OrderType)))
	if orderType == "" {
		orderType = models.OrderTypePickup
	}
	payment := models.PaymentMethod(strings.ToLower(strings.TrimSpace(args.PaymentMethod)))
	if payment == "" {
		payment = models.PaymentCard
	}

	result, err := s.orders.CreateOrder(ctx, tenant.ID, models.SourcePhone, CreateOrderRequest{
		CustomerName:    args.CustomerName,
		CustomerPhone:   utils.NewNullString(phone),
		DeliveryAddress: utils.NewNullString(args.Address),
		OrderType:       orderType,
		PaymentMethod:   payment,
		Notes:           utils.NewNullString(args.Notes),
		Items:           items,
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return toolFailure(models.ToolErrValidation, strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "), nil)
		}
		return *internalFailure(err)
	}

	return models.ToolResult{Result: map[string]interface{}{
		"success":     true,
		"orderId":     result.Order.ID,
		"orderNumber": result.Order.OrderNumber,
		"total":       utils.FormatMoney(s.currency, result.Order.Total),
		"degraded":    result.Degraded,
	}}
}

// availableItems indexes the tenant's available menu items by lower-cased name.
func (s *voiceToolService) availableItems(ctx context.Context, tenantID string) (map[string]models.MenuItem, error) {
	items, err := s.menu.ListItems(ctx, models.ScopeTenant(tenantID), models.MenuItemFilters{AvailableOnly: true})
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.MenuItem, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Name))
		if _, dup := byName[key]; !dup {
			byName[key] = item
		}
	}
	return byName, nil
}

func callerNumber(req *models.ToolWebhookRequest) string {
	for _, info := range []*models.CallInfo{req.Call, req.Message.Call} {
		if info != nil && info.Customer != nil && info.Customer.Number != "" {
			return info.Customer.Number
		}
	}
	return ""
}

func toolFailure(code, message string, err error) models.ToolResult {
	failure := &models.ToolError{Code: code, Message: message}
	if err != nil {
		failure.Details = err.Error()
	}
	return models.ToolResult{Error: failure}
}

func internalFailure(err error) *models.ToolResult {
	utils.LogError(err, "Voice tool call failed")
	failure := toolFailure(models.ToolErrInternal, "the restaurant system is unavailable, please try again", nil)
	return &failure
}
