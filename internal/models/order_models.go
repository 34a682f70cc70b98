package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	// StatusPending is the single awaiting-action state for every new order; Source tells the origin.
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"

	// legacyStatusNew is the label dashboard orders used to start in; accepted on input only.
	legacyStatusNew = "new"
)

// ParseOrderStatus maps user input onto a known status. "new" is read as pending.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StatusPending), legacyStatusNew:
		return StatusPending, true
	case string(StatusConfirmed):
		return StatusConfirmed, true
	case string(StatusCompleted):
		return StatusCompleted, true
	case string(StatusCancelled):
		return StatusCancelled, true
	}
	return "", false
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// OrderType distinguishes delivery from pickup.
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// OrderSource records where an order was taken.
type OrderSource string

const (
	SourcePhone     OrderSource = "phone"
	SourceDashboard OrderSource = "dashboard"
)

// OrderNumberPrefix returns the human-readable order number prefix for the source.
func (s OrderSource) OrderNumberPrefix() string {
	if s == SourcePhone {
		return "PHONE-"
	}
	return "ORD-"
}

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

// PaymentStatus tracks the advisory payment state.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// LineItem is a snapshot of what was ordered, independent of the live menu.
type LineItem struct {
	ID         string          `json:"id,omitempty" db:"id"`
	OrderID    string          `json:"-" db:"order_id"`
	MenuItemID *string         `json:"menu_item_id,omitempty" db:"menu_item_id"`
	Name       string          `json:"name" db:"name"`
	UnitPrice  decimal.Decimal `json:"price" db:"unit_price"`
	Quantity   int             `json:"quantity" db:"quantity"`
	Notes      *string         `json:"notes,omitempty" db:"notes"`
}

// LineTotal is unit price times quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a customer order. Total always equals Subtotal + Tax + DeliveryFee as priced at creation.
type Order struct {
	ID              string          `json:"id" db:"id"`
	TenantID        string          `json:"restaurant_id" db:"tenant_id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	CustomerPhone   *string         `json:"customer_phone,omitempty" db:"customer_phone"`
	DeliveryAddress *string         `json:"delivery_address,omitempty" db:"delivery_address"`
	OrderType       OrderType       `json:"order_type" db:"order_type"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax             decimal.Decimal `json:"tax" db:"tax"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee" db:"delivery_fee"`
	Total           decimal.Decimal `json:"total" db:"total"`
	PaymentMethod   PaymentMethod   `json:"payment_method" db:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	PaymentLinkURL  *string         `json:"payment_link_url,omitempty" db:"payment_link_url"`
	Status          OrderStatus     `json:"status" db:"status"`
	Source          OrderSource     `json:"source" db:"source"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	Items           []LineItem      `json:"items"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	Status   *OrderStatus `form:"status"`
	Source   *OrderSource `form:"source"`
	Date     *string      `form:"date"` // Expected format YYYY-MM-DD
	Page     int          `form:"page"`
	PageSize int          `form:"page_size"`
}

// PrintJobStatus tracks a print request through dispatch.
type PrintJobStatus string

const (
	PrintJobQueued     PrintJobStatus = "queued"
	PrintJobDispatched PrintJobStatus = "dispatched"
	PrintJobFailed     PrintJobStatus = "failed"
)

// PrintJob is the durable record of one kitchen print triggered by completing an order.
type PrintJob struct {
	ID             string         `json:"id" db:"id"`
	OrderID        string         `json:"order_id" db:"order_id"`
	TenantID       string         `json:"restaurant_id" db:"tenant_id"`
	IdempotencyKey *string        `json:"idempotency_key,omitempty" db:"idempotency_key"`
	ExternalJobID  *string        `json:"external_job_id,omitempty" db:"external_job_id"`
	Status         PrintJobStatus `json:"status" db:"status"`
	Error          *string        `json:"error,omitempty" db:"error"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}
