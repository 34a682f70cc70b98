package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"phone_ordering_backend/internal/events"
	"phone_ordering_backend/internal/integrations"
	"phone_ordering_backend/internal/metrics"
	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/repositories"
	"phone_ordering_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

const maxPageSize = 100

// Side effects reported in warnings and metrics.
const (
	effectPaymentLink  = "payment_link"
	effectNotification = "notification"
	effectPrint        = "print"
	effectEvent        = "event"
)

// --- Data Transfer Objects (DTOs) ---

// CreateOrderItemRequest is one requested line. Price is the unit price at order time.
type CreateOrderItemRequest struct {
	MenuItemID *string         `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	Notes      *string         `json:"notes"`
}

// CreateOrderRequest is used for creating a new order. RestaurantID is only read for the platform operator.
type CreateOrderRequest struct {
	RestaurantID    *string                  `json:"restaurant_id"`
	CustomerName    string                   `json:"customer_name"`
	CustomerPhone   *string                  `json:"customer_phone"`
	DeliveryAddress *string                  `json:"delivery_address"`
	OrderType       models.OrderType         `json:"order_type"`
	PaymentMethod   models.PaymentMethod     `json:"payment_method"`
	Notes           *string                  `json:"notes"`
	Items           []CreateOrderItemRequest `json:"items"`
}

// UpdateOrderRequest is a partial order update. Replacing items does not change the priced totals.
type UpdateOrderRequest struct {
	CustomerName    *string                   `json:"customer_name"`
	CustomerPhone   *string                   `json:"customer_phone"`
	DeliveryAddress *string                   `json:"delivery_address"`
	Notes           *string                   `json:"notes"`
	PaymentStatus   *models.PaymentStatus     `json:"payment_status"`
	Items           *[]CreateOrderItemRequest `json:"items"`
}

// UpdateOrderStatusRequest is used for updating the status of an order.
type UpdateOrderStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

// OrderResult is an order write outcome. Degraded is set when a side effect failed after the write committed.
type OrderResult struct {
	Order    *models.Order `json:"order"`
	Degraded bool          `json:"degraded"`
	Warnings []string      `json:"warnings,omitempty"`
	Replayed bool          `json:"replayed,omitempty"`
}

func (r *OrderResult) degrade(effect string, err error) {
	r.Degraded = true
	r.Warnings = append(r.Warnings, degradedWarning(effect, err))
	metrics.RecordSideEffectFailure(effect)
}

// Pricing holds the amounts of an order at full precision.
type Pricing struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// PriceOrder computes subtotal, tax, delivery fee and total. Nothing is rounded.
func PriceOrder(tenant *models.Tenant, orderType models.OrderType, items []models.LineItem) Pricing {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	p := Pricing{
		Subtotal:    subtotal,
		Tax:         subtotal.Mul(tenant.EffectiveTaxRate()),
		DeliveryFee: decimal.Zero,
	}
	if orderType == models.OrderTypeDelivery {
		p.DeliveryFee = tenant.EffectiveDeliveryFee()
	}
	p.Total = p.Subtotal.Add(p.Tax).Add(p.DeliveryFee)
	return p
}

// OrderNumber formats the human-readable order number for the source at t.
func OrderNumber(source models.OrderSource, t time.Time) string {
	return source.OrderNumberPrefix() + strconv.FormatInt(t.UnixMilli(), 10)
}

// --- OrderService Interface ---
type OrderService interface {
	CreateOrder(ctx context.Context, tenantID string, source models.OrderSource, req CreateOrderRequest) (*OrderResult, error)
	GetOrder(ctx context.Context, scope models.TenantScope, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, scope models.TenantScope, filters models.OrderFilters) ([]models.Order, int, error)
	UpdateOrder(ctx context.Context, scope models.TenantScope, orderID string, req UpdateOrderRequest) (*models.Order, error)
	// TransitionStatus moves an order through its lifecycle. A repeated idempotency key replays the earlier outcome.
	TransitionStatus(ctx context.Context, scope models.TenantScope, orderID, status, idempotencyKey string) (*OrderResult, error)
	ConfirmPayment(ctx context.Context, orderID string) (*models.Order, error)
}

// OrderDeps bundles the collaborators of the order engine.
type OrderDeps struct {
	Tenants        repositories.TenantRepository
	Orders         repositories.OrderRepository
	PrintJobs      repositories.PrintJobRepository
	Tx             repositories.Transactor
	Integrations   integrations.Set
	Events         events.Publisher
	CurrencySymbol string
}

// --- orderService Implementation ---
type orderService struct {
	tenants   repositories.TenantRepository
	orders    repositories.OrderRepository
	printJobs repositories.PrintJobRepository
	tx        repositories.Transactor
	external  integrations.Set
	events    events.Publisher
	currency  string
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(deps OrderDeps) OrderService {
	publisher := deps.Events
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &orderService{
		tenants:   deps.Tenants,
		orders:    deps.Orders,
		printJobs: deps.PrintJobs,
		tx:        deps.Tx,
		external:  deps.Integrations,
		events:    publisher,
		currency:  deps.CurrencySymbol,
		now:       time.Now,
	}
}

// --- Method Implementations ---

func buildLineItems(reqs []CreateOrderItemRequest) ([]models.LineItem, error) {
	if len(reqs) == 0 {
		return nil, validationf("order must contain at least one item")
	}
	items := make([]models.LineItem, 0, len(reqs))
	for i, req := range reqs {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return nil, validationf("item %d: name is required", i+1)
		}
		if req.Quantity <= 0 {
			return nil, validationf("item %q: quantity must be positive", name)
		}
		if req.Price.IsNegative() {
			return nil, validationf("item %q: price must not be negative", name)
		}
		items = append(items, models.LineItem{
			MenuItemID: normalizeOptional(req.MenuItemID),
			Name:       name,
			UnitPrice:  req.Price,
			Quantity:   req.Quantity,
			Notes:      normalizeOptional(req.Notes),
		})
	}
	return items, nil
}

func (s *orderService) CreateOrder(ctx context.Context, tenantID string, source models.OrderSource, req CreateOrderRequest) (*OrderResult, error) {
	if source != models.SourcePhone && source != models.SourceDashboard {
		return nil, validationf("unknown order source %q", source)
	}
	items, err := buildLineItems(req.Items)
	if err != nil {
		return nil, err
	}
	customerName := strings.TrimSpace(req.CustomerName)
	if customerName == "" {
		return nil, validationf("customer name is required")
	}
	if req.OrderType != models.OrderTypeDelivery && req.OrderType != models.OrderTypePickup {
		return nil, validationf("order type must be delivery or pickup")
	}
	address := normalizeOptional(req.DeliveryAddress)
	if req.OrderType == models.OrderTypeDelivery && address == nil && source == models.SourceDashboard {
		return nil, validationf("delivery address is required for delivery orders")
	}
	if req.PaymentMethod != models.PaymentCard && req.PaymentMethod != models.PaymentCash {
		return nil, validationf("payment method must be card or cash")
	}

	tenant, err := s.tenants.GetTenantByID(ctx, models.ScopeTenant(tenantID), tenantID)
	if err != nil {
		return nil, mapRepoError(err, "restaurant "+tenantID)
	}

	pricing := PriceOrder(tenant, req.OrderType, items)
	if tenant.MinimumOrder.IsPositive() && pricing.Subtotal.LessThan(tenant.MinimumOrder) {
		return nil, validationf("subtotal %s is below the minimum order of %s",
			utils.FormatMoney(s.currency, pricing.Subtotal), utils.FormatMoney(s.currency, tenant.MinimumOrder))
	}

	stamp := s.now()
	order := &models.Order{
		TenantID:        tenant.ID,
		CustomerName:    customerName,
		CustomerPhone:   normalizeOptional(req.CustomerPhone),
		DeliveryAddress: address,
		OrderType:       req.OrderType,
		Subtotal:        pricing.Subtotal,
		Tax:             pricing.Tax,
		DeliveryFee:     pricing.DeliveryFee,
		Total:           pricing.Total,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentPending,
		Status:          models.StatusPending,
		Source:          source,
		Notes:           normalizeOptional(req.Notes),
		CreatedAt:       stamp,
		Items:           items,
	}

	// Order numbers are timestamp based; a collision is retried once with a later timestamp.
	for attempt := 0; ; attempt++ {
		order.OrderNumber = OrderNumber(source, stamp)
		err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			return mapRepoError(s.orders.CreateOrder(ctx, exec, order), "order")
		})
		if err == nil || !errors.Is(err, ErrConflict) || attempt > 0 {
			break
		}
		utils.LogWarn("Order number collision, retrying", map[string]interface{}{"order_number": order.OrderNumber})
		next := s.now()
		if !next.After(stamp) {
			next = stamp.Add(time.Millisecond)
		}
		stamp = next
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordOrderCreated(string(source))
	utils.LogInfo("Order created", map[string]interface{}{
		"order_id":      order.ID,
		"order_number":  order.OrderNumber,
		"restaurant_id": order.TenantID,
		"source":        source,
		"total":         order.Total.String(),
	})

	result := &OrderResult{Order: order}
	if order.PaymentMethod == models.PaymentCard {
		s.requestPayment(ctx, order, result)
	}
	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, order, ""))
	return result, nil
}

// requestPayment creates the payment link and texts it to the customer. Failures degrade the result.
func (s *orderService) requestPayment(ctx context.Context, order *models.Order, result *OrderResult) {
	link, err := s.external.PaymentLinker.CreateLink(ctx, order.ID, order.Total)
	if err != nil {
		utils.LogError(err, "Failed to create payment link", map[string]interface{}{"order_id": order.ID})
		result.degrade(effectPaymentLink, err)
		return
	}
	order.PaymentLinkURL = &link.URL
	if err := s.orders.SetPaymentLink(ctx, order.ID, link.URL); err != nil {
		utils.LogError(err, "Failed to store payment link", map[string]interface{}{"order_id": order.ID})
		result.degrade(effectPaymentLink, err)
	}

	if order.CustomerPhone == nil {
		return
	}
	text := fmt.Sprintf("Thanks %s! Pay %s for order %s here: %s",
		order.CustomerName, utils.FormatMoney(s.currency, order.Total), order.OrderNumber, link.URL)
	if _, err := s.external.Notifier.Send(ctx, *order.CustomerPhone, text); err != nil {
		utils.LogError(err, "Failed to send payment link", map[string]interface{}{"order_id": order.ID})
		result.degrade(effectNotification, err)
	}
}

func (s *orderService) GetOrder(ctx context.Context, scope models.TenantScope, orderID string) (*models.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, scope, orderID)
	if err != nil {
		return nil, mapRepoError(err, "order "+orderID)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, scope models.TenantScope, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Date != nil {
		if _, err := time.Parse("2006-01-02", *filters.Date); err != nil {
			return nil, 0, validationf("date must be formatted as YYYY-MM-DD")
		}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}
	orders, total, err := s.orders.GetOrders(ctx, scope, filters)
	if err != nil {
		return nil, 0, mapRepoError(err, "orders")
	}
	return orders, total, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, scope models.TenantScope, orderID string, req UpdateOrderRequest) (*models.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, scope, orderID)
	if err != nil {
		return nil, mapRepoError(err, "order "+orderID)
	}

	if req.CustomerName != nil {
		name := strings.TrimSpace(*req.CustomerName)
		if name == "" {
			return nil, validationf("customer name must not be empty")
		}
		order.CustomerName = name
	}
	if req.CustomerPhone != nil {
		order.CustomerPhone = normalizeOptional(req.CustomerPhone)
	}
	if req.DeliveryAddress != nil {
		order.DeliveryAddress = normalizeOptional(req.DeliveryAddress)
	}
	if req.Notes != nil {
		order.Notes = normalizeOptional(req.Notes)
	}
	if req.PaymentStatus != nil {
		if *req.PaymentStatus != models.PaymentPending && *req.PaymentStatus != models.PaymentPaid {
			return nil, validationf("payment status must be pending or paid")
		}
		order.PaymentStatus = *req.PaymentStatus
	}
	var items []models.LineItem
	if req.Items != nil {
		if items, err = buildLineItems(*req.Items); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.orders.UpdateOrderDetails(ctx, exec, order); err != nil {
			return mapRepoError(err, "order "+orderID)
		}
		if items != nil {
			if err := s.orders.ReplaceOrderItems(ctx, exec, order.ID, items); err != nil {
				return mapRepoError(err, "order items")
			}
			order.Items = items
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) TransitionStatus(ctx context.Context, scope models.TenantScope, orderID, rawStatus, idempotencyKey string) (*OrderResult, error) {
	target, ok := models.ParseOrderStatus(rawStatus)
	if !ok {
		return nil, validationf("unknown order status %q", rawStatus)
	}
	order, err := s.orders.GetOrderByID(ctx, scope, orderID)
	if err != nil {
		return nil, mapRepoError(err, "order "+orderID)
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)

	previous := order.Status
	replayed := false
	var job *models.PrintJob
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if idempotencyKey != "" {
			_, err := s.printJobs.FindPrintJobByKey(ctx, exec, order.ID, idempotencyKey)
			if err == nil {
				replayed = true
				return nil
			}
			if !errors.Is(err, repositories.ErrNotFound) {
				return mapRepoError(err, "print job")
			}
		}
		if previous.IsTerminal() {
			return fmt.Errorf("%w: order %s is already %s", ErrInvalidTransition, order.OrderNumber, previous)
		}

		now := s.now()
		if err := s.orders.UpdateOrderStatus(ctx, exec, order.ID, previous, target, now); err != nil {
			return mapRepoError(err, "order "+orderID)
		}
		if target == models.StatusCompleted {
			job = &models.PrintJob{
				OrderID:        order.ID,
				TenantID:       order.TenantID,
				IdempotencyKey: utils.NewNullString(idempotencyKey),
			}
			if err := s.printJobs.CreatePrintJob(ctx, exec, job); err != nil {
				return mapRepoError(err, "print job")
			}
		}
		order.Status = target
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &OrderResult{Order: order, Replayed: replayed}
	if replayed {
		utils.LogInfo("Status change replayed", map[string]interface{}{"order_id": order.ID, "idempotency_key": idempotencyKey})
		return result, nil
	}

	metrics.RecordOrderTransition(string(target))
	utils.LogInfo("Order status changed", map[string]interface{}{
		"order_id": order.ID,
		"from":     previous,
		"to":       target,
	})

	s.notifyStatus(ctx, order, result)
	if target == models.StatusCompleted {
		s.dispatchPrint(ctx, job, result)
	}
	s.publish(ctx, events.NewOrderEvent(events.OrderStatusChanged, order, previous))
	return result, nil
}

// statusMessage is the customer text sent after a transition into status.
func statusMessage(order *models.Order) string {
	switch order.Status {
	case models.StatusConfirmed:
		return fmt.Sprintf("Hi %s, your order %s has been confirmed.", order.CustomerName, order.OrderNumber)
	case models.StatusCompleted:
		return fmt.Sprintf("Hi %s, your order %s is ready. Thank you!", order.CustomerName, order.OrderNumber)
	case models.StatusCancelled:
		return fmt.Sprintf("Hi %s, your order %s has been cancelled.", order.CustomerName, order.OrderNumber)
	}
	return fmt.Sprintf("Hi %s, your order %s is now %s.", order.CustomerName, order.OrderNumber, order.Status)
}

func (s *orderService) notifyStatus(ctx context.Context, order *models.Order, result *OrderResult) {
	if order.CustomerPhone == nil {
		return
	}
	text := statusMessage(order)
	if _, err := s.external.Notifier.Send(ctx, *order.CustomerPhone, text); err != nil {
		utils.LogError(err, "Failed to notify customer", map[string]interface{}{"order_id": order.ID})
		result.degrade(effectNotification, err)
	}
}

// dispatchPrint hands the recorded job to the print service and stores the outcome on the job.
func (s *orderService) dispatchPrint(ctx context.Context, job *models.PrintJob, result *OrderResult) {
	receipt, err := s.external.Printer.Print(ctx, job.OrderID)
	if err != nil {
		utils.LogError(err, "Failed to dispatch print job", map[string]interface{}{"order_id": job.OrderID, "print_job_id": job.ID})
		result.degrade(effectPrint, err)
		msg := err.Error()
		job.Status, job.Error = models.PrintJobFailed, &msg
	} else {
		job.Status, job.ExternalJobID = models.PrintJobDispatched, &receipt.JobID
	}
	if err := s.printJobs.RecordDispatch(ctx, job.ID, job.Status, job.ExternalJobID, job.Error); err != nil {
		utils.LogError(err, "Failed to record print dispatch", map[string]interface{}{"print_job_id": job.ID})
	}
}

func (s *orderService) ConfirmPayment(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, models.ScopeAll(), orderID)
	if err != nil {
		return nil, mapRepoError(err, "order "+orderID)
	}
	if order.PaymentStatus == models.PaymentPaid {
		return order, nil
	}

	previous := order.Status
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		order.PaymentStatus = models.PaymentPaid
		if err := s.orders.UpdateOrderDetails(ctx, exec, order); err != nil {
			return mapRepoError(err, "order "+orderID)
		}
		if previous == models.StatusPending {
			if err := s.orders.UpdateOrderStatus(ctx, exec, order.ID, previous, models.StatusConfirmed, order.UpdatedAt); err != nil {
				return mapRepoError(err, "order "+orderID)
			}
			order.Status = models.StatusConfirmed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Payment confirmed", map[string]interface{}{"order_id": order.ID, "status": order.Status})
	s.publish(ctx, events.NewOrderEvent(events.OrderPaid, order, previous))
	return order, nil
}

func (s *orderService) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		metrics.RecordSideEffectFailure(effectEvent)
		utils.LogError(err, "Failed to publish order event", map[string]interface{}{"type": event.Type, "order_id": event.OrderID})
	}
}
