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

// MenuRepository defines the interface for menu category and item database operations.
type MenuRepository interface {
	// Category methods
	CreateCategory(ctx context.Context, category *models.MenuCategory) error
	GetCategoryByID(ctx context.Context, scope models.TenantScope, id string) (*models.MenuCategory, error)
	ListCategories(ctx context.Context, scope models.TenantScope) ([]models.MenuCategory, error)
	UpdateCategory(ctx context.Context, category *models.MenuCategory) error
	DeleteCategory(ctx context.Context, scope models.TenantScope, id string) error

	// Item methods
	CreateItem(ctx context.Context, item *models.MenuItem) error
	GetItemByID(ctx context.Context, scope models.TenantScope, id string) (*models.MenuItem, error)
	ListItems(ctx context.Context, scope models.TenantScope, filters models.MenuItemFilters) ([]models.MenuItem, error)
	UpdateItem(ctx context.Context, item *models.MenuItem) error
	DeleteItem(ctx context.Context, scope models.TenantScope, id string) error

	// DeleteMenuByTenant removes every item and category of a tenant.
	DeleteMenuByTenant(ctx context.Context, executor SQLExecutor, tenantID string) error
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

// --- Category Methods ---

const categoryColumns = `id, tenant_id, name, description, display_order, created_at, updated_at`

func scanCategory(row scanner) (*models.MenuCategory, error) {
	c := &models.MenuCategory{}
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *menuRepository) CreateCategory(ctx context.Context, category *models.MenuCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now()
	category.CreatedAt, category.UpdatedAt = now, now

	query := `INSERT INTO menu_categories (` + categoryColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		category.ID, category.TenantID, category.Name, category.Description, category.DisplayOrder,
		category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return wrapWriteError(err, "creating menu category")
	}
	return nil
}

func (r *menuRepository) GetCategoryByID(ctx context.Context, scope models.TenantScope, id string) (*models.MenuCategory, error) {
	query, args := scopedByID(`SELECT `+categoryColumns+` FROM menu_categories`, scope, id)
	category, err := scanCategory(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu category %s: %v", ErrDatabaseError, id, err)
	}
	return category, nil
}

// ListCategories orders by display_order, breaking ties by insertion.
func (r *menuRepository) ListCategories(ctx context.Context, scope models.TenantScope) ([]models.MenuCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM menu_categories`
	var args []interface{}
	if !scope.All() {
		query += ` WHERE tenant_id = $1`
		args = append(args, scope.TenantID)
	}
	query += ` ORDER BY display_order, created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	categories := []models.MenuCategory{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning menu category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, *category)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu category rows: %v", ErrDatabaseError, err)
	}
	return categories, nil
}

func (r *menuRepository) UpdateCategory(ctx context.Context, category *models.MenuCategory) error {
	category.UpdatedAt = time.Now()
	query := `UPDATE menu_categories SET name = $1, description = $2, display_order = $3, updated_at = $4
	          WHERE id = $5 AND tenant_id = $6`
	result, err := r.db.ExecContext(ctx, query,
		category.Name, category.Description, category.DisplayOrder, category.UpdatedAt, category.ID, category.TenantID,
	)
	if err != nil {
		return wrapWriteError(err, "updating menu category "+category.ID)
	}
	return requireAffected(result, "menu category update "+category.ID)
}

// DeleteCategory leaves the category's items in place with a dangling category_id.
func (r *menuRepository) DeleteCategory(ctx context.Context, scope models.TenantScope, id string) error {
	query, args := scopedByID(`DELETE FROM menu_categories`, scope, id)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: deleting menu category %s: %v", ErrDatabaseError, id, err)
	}
	return requireAffected(result, "menu category delete "+id)
}

// --- Item Methods ---

const itemColumns = `id, tenant_id, category_id, name, description, price, available, customizations, created_at, updated_at`

func scanItem(row scanner) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	var customizations pq.StringArray
	err := row.Scan(
		&item.ID, &item.TenantID, &item.CategoryID, &item.Name, &item.Description, &item.Price,
		&item.Available, &customizations, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Customizations = []string(customizations)
	if item.Customizations == nil {
		item.Customizations = []string{}
	}
	return item, nil
}

func customizationsArray(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(values)
}

func (r *menuRepository) CreateItem(ctx context.Context, item *models.MenuItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now

	query := `INSERT INTO menu_items (` + itemColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.TenantID, item.CategoryID, item.Name, item.Description, item.Price, item.Available,
		customizationsArray(item.Customizations), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return wrapWriteError(err, "creating menu item")
	}
	return nil
}

func (r *menuRepository) GetItemByID(ctx context.Context, scope models.TenantScope, id string) (*models.MenuItem, error) {
	query, args := scopedByID(`SELECT `+itemColumns+` FROM menu_items`, scope, id)
	item, err := scanItem(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu item %s: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *menuRepository) ListItems(ctx context.Context, scope models.TenantScope, filters models.MenuItemFilters) ([]models.MenuItem, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + itemColumns + ` FROM menu_items`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if !scope.All() {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argCounter))
		args = append(args, scope.TenantID)
		argCounter++
	}
	if filters.CategoryID != nil && *filters.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argCounter))
		args = append(args, *filters.CategoryID)
		argCounter++
	}
	if filters.AvailableOnly {
		conditions = append(conditions, "available = TRUE")
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name, created_at")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *menuRepository) UpdateItem(ctx context.Context, item *models.MenuItem) error {
	item.UpdatedAt = time.Now()
	query := `UPDATE menu_items SET category_id = $1, name = $2, description = $3, price = $4, available = $5,
	            customizations = $6, updated_at = $7
	          WHERE id = $8 AND tenant_id = $9`
	result, err := r.db.ExecContext(ctx, query,
		item.CategoryID, item.Name, item.Description, item.Price, item.Available,
		customizationsArray(item.Customizations), item.UpdatedAt, item.ID, item.TenantID,
	)
	if err != nil {
		return wrapWriteError(err, "updating menu item "+item.ID)
	}
	return requireAffected(result, "menu item update "+item.ID)
}

func (r *menuRepository) DeleteItem(ctx context.Context, scope models.TenantScope, id string) error {
	query, args := scopedByID(`DELETE FROM menu_items`, scope, id)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: deleting menu item %s: %v", ErrDatabaseError, id, err)
	}
	return requireAffected(result, "menu item delete "+id)
}

func (r *menuRepository) DeleteMenuByTenant(ctx context.Context, executor SQLExecutor, tenantID string) error {
	if _, err := executor.ExecContext(ctx, `DELETE FROM menu_items WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("%w: deleting menu items for restaurant %s: %v", ErrDatabaseError, tenantID, err)
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM menu_categories WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("%w: deleting menu categories for restaurant %s: %v", ErrDatabaseError, tenantID, err)
	}
	return nil
}

// scopedByID appends the id predicate and, for a single-tenant scope, the tenant predicate.
func scopedByID(base string, scope models.TenantScope, id string) (string, []interface{}) {
	if scope.All() {
		return base + ` WHERE id = $1`, []interface{}{id}
	}
	return base + ` WHERE id = $1 AND tenant_id = $2`, []interface{}{id, scope.TenantID}
}
