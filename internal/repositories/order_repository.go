package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"phone_ordering_backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Order methods
	CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error
	GetOrderByID(ctx context.Context, scope models.TenantScope, orderID string) (*models.Order, error)
	GetOrders(ctx context.Context, scope models.TenantScope, filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	UpdateOrderStatus(ctx context.Context, executor SQLExecutor, orderID string, from, to models.OrderStatus, updatedAt time.Time) error
	UpdateOrderDetails(ctx context.Context, executor SQLExecutor, order *models.Order) error
	SetPaymentLink(ctx context.Context, orderID, url string) error
	DeleteOrdersByTenant(ctx context.Context, executor SQLExecutor, tenantID string) error

	// OrderItem methods
	ReplaceOrderItems(ctx context.Context, executor SQLExecutor, orderID string, items []models.LineItem) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// --- Order Methods ---

const orderColumns = `id, tenant_id, order_number, customer_name, customer_phone, delivery_address, order_type,
	subtotal, tax, delivery_fee, total, payment_method, payment_status, payment_link_url, status, source, notes,
	created_at, updated_at`

func scanOrder(row scanner, extra ...interface{}) (*models.Order, error) {
	o := &models.Order{}
	dest := []interface{}{
		&o.ID, &o.TenantID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone, &o.DeliveryAddress, &o.OrderType,
		&o.Subtotal, &o.Tax, &o.DeliveryFee, &o.Total, &o.PaymentMethod, &o.PaymentStatus, &o.PaymentLinkURL,
		&o.Status, &o.Source, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	o.Items = []models.LineItem{}
	return o, nil
}

// CreateOrder inserts the order row and its line items. Run it inside a transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = order.CreatedAt

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := executor.ExecContext(ctx, query,
		order.ID, order.TenantID, order.OrderNumber, order.CustomerName, order.CustomerPhone, order.DeliveryAddress,
		order.OrderType, order.Subtotal, order.Tax, order.DeliveryFee, order.Total, order.PaymentMethod,
		order.PaymentStatus, order.PaymentLinkURL, order.Status, order.Source, order.Notes,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return wrapWriteError(err, "creating order")
	}
	return r.insertItems(ctx, executor, order.ID, order.Items)
}

func (r *orderRepository) GetOrderByID(ctx context.Context, scope models.TenantScope, orderID string) (*models.Order, error) {
	query, args := scopedByID(`SELECT `+orderColumns+` FROM orders`, scope, orderID)
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %s: %v", ErrDatabaseError, orderID, err)
	}

	items, err := r.itemsByOrderIDs(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	if list, ok := items[order.ID]; ok {
		order.Items = list
	}
	return order, nil
}

// GetOrders returns orders newest first with their line items. PageSize 0 means no limit.
func (r *orderRepository) GetOrders(ctx context.Context, scope models.TenantScope, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if !scope.All() {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argCounter))
		args = append(args, scope.TenantID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.Source != nil && *filters.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", argCounter))
		args = append(args, *filters.Source)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1)
			conditions = append(conditions, fmt.Sprintf("created_at >= $%d AND created_at < $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	if len(ids) == 0 {
		return orders, totalCount, nil
	}

	items, err := r.itemsByOrderIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		if list, ok := items[orders[i].ID]; ok {
			orders[i].Items = list
		}
	}
	return orders, totalCount, nil
}

// UpdateOrderStatus moves an order from one status to another only if it still holds from.
// A missing order is ErrNotFound; an order whose status moved on is ErrStaleStatus.
func (r *orderRepository) UpdateOrderStatus(ctx context.Context, executor SQLExecutor, orderID string, from, to models.OrderStatus, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := executor.ExecContext(ctx, query, to, updatedAt, orderID, from)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %s: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order status update ID %s: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		var exists bool
		if err := executor.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
			return fmt.Errorf("%w: checking order %s: %v", ErrDatabaseError, orderID, err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStaleStatus
	}
	return nil
}

// UpdateOrderDetails writes the mutable non-pricing fields. Money columns are never touched.
func (r *orderRepository) UpdateOrderDetails(ctx context.Context, executor SQLExecutor, order *models.Order) error {
	order.UpdatedAt = time.Now()
	query := `UPDATE orders SET customer_name = $1, customer_phone = $2, delivery_address = $3, notes = $4,
	            payment_status = $5, updated_at = $6
	          WHERE id = $7`
	result, err := executor.ExecContext(ctx, query,
		order.CustomerName, order.CustomerPhone, order.DeliveryAddress, order.Notes, order.PaymentStatus,
		order.UpdatedAt, order.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating order %s: %v", ErrDatabaseError, order.ID, err)
	}
	return requireAffected(result, "order update "+order.ID)
}

func (r *orderRepository) SetPaymentLink(ctx context.Context, orderID, url string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE orders SET payment_link_url = $1 WHERE id = $2`, url, orderID)
	if err != nil {
		return fmt.Errorf("%w: storing payment link for order %s: %v", ErrDatabaseError, orderID, err)
	}
	return requireAffected(result, "order payment link "+orderID)
}

// DeleteOrdersByTenant removes a tenant's order items, print jobs and orders, in that order.
func (r *orderRepository) DeleteOrdersByTenant(ctx context.Context, executor SQLExecutor, tenantID string) error {
	statements := []struct{ query, what string }{
		{`DELETE FROM order_items WHERE order_id IN (SELECT id FROM orders WHERE tenant_id = $1)`, "order items"},
		{`DELETE FROM print_jobs WHERE tenant_id = $1`, "print jobs"},
		{`DELETE FROM orders WHERE tenant_id = $1`, "orders"},
	}
	for _, s := range statements {
		if _, err := executor.ExecContext(ctx, s.query, tenantID); err != nil {
			return fmt.Errorf("%w: deleting %s for restaurant %s: %v", ErrDatabaseError, s.what, tenantID, err)
		}
	}
	return nil
}

// --- OrderItem Methods ---

func (r *orderRepository) ReplaceOrderItems(ctx context.Context, executor SQLExecutor, orderID string, items []models.LineItem) error {
	if _, err := executor.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("%w: deleting order items for order ID %s: %v", ErrDatabaseError, orderID, err)
	}
	return r.insertItems(ctx, executor, orderID, items)
}

func (r *orderRepository) insertItems(ctx context.Context, executor SQLExecutor, orderID string, items []models.LineItem) error {
	query := `INSERT INTO order_items (id, order_id, menu_item_id, name, unit_price, quantity, notes, position)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.OrderID = orderID
		_, err := executor.ExecContext(ctx, query,
			item.ID, orderID, item.MenuItemID, item.Name, item.UnitPrice, item.Quantity, item.Notes, i,
		)
		if err != nil {
			return fmt.Errorf("%w: creating order item for order %s: %v", ErrDatabaseError, orderID, err)
		}
	}
	return nil
}

func (r *orderRepository) itemsByOrderIDs(ctx context.Context, orderIDs []string) (map[string][]models.LineItem, error) {
	query := `SELECT id, order_id, menu_item_id, name, unit_price, quantity, notes
	          FROM order_items
	          WHERE order_id = ANY($1)
	          ORDER BY order_id, position`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := make(map[string][]models.LineItem, len(orderIDs))
	for rows.Next() {
		var item models.LineItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.UnitPrice, &item.Quantity, &item.Notes)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		result[item.OrderID] = append(result[item.OrderID], item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows: %v", ErrDatabaseError, err)
	}
	return result, nil
}
