package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"phone_ordering_backend/internal/models"

	"github.com/google/uuid"
)

// TenantRepository defines the interface for restaurant (tenant) database operations.
type TenantRepository interface {
	CreateTenant(ctx context.Context, executor SQLExecutor, tenant *models.Tenant) error
	GetTenantByID(ctx context.Context, scope models.TenantScope, id string) (*models.Tenant, error)
	GetTenantByVoiceLine(ctx context.Context, lineID string) (*models.Tenant, error)
	ListTenants(ctx context.Context, scope models.TenantScope) ([]models.Tenant, error)
	ListTenantsWithStats(ctx context.Context) ([]models.TenantWithStats, error)
	CountTenants(ctx context.Context) (int, error)
	UpdateTenant(ctx context.Context, executor SQLExecutor, tenant *models.Tenant) error
	SetOnlineStatus(ctx context.Context, id string, online bool, at time.Time) error
	DeleteTenant(ctx context.Context, executor SQLExecutor, id string) error
}

type tenantRepository struct {
	db *sql.DB
}

// NewTenantRepository creates a new instance of TenantRepository.
func NewTenantRepository(db *sql.DB) TenantRepository {
	return &tenantRepository{db: db}
}

const tenantColumns = `id, name, email, phone, address, tax_rate, delivery_fee, minimum_order,
	is_online, ai_enabled, busy_mode_enabled, busy_hours, voice_line_id, voice_phone_number,
	staff_phone, timezone, is_system, last_login_at, created_at, updated_at`

func scanTenant(row scanner) (*models.Tenant, error) {
	t := &models.Tenant{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Email, &t.Phone, &t.Address, &t.TaxRate, &t.DeliveryFee, &t.MinimumOrder,
		&t.IsOnline, &t.AIEnabled, &t.BusyModeEnabled, &t.BusyHours, &t.VoiceLineID, &t.VoicePhoneNumber,
		&t.StaffPhone, &t.Timezone, &t.IsSystem, &t.LastLoginAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tenantRepository) CreateTenant(ctx context.Context, executor SQLExecutor, tenant *models.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	now := time.Now()
	tenant.CreatedAt, tenant.UpdatedAt = now, now

	query := `INSERT INTO restaurants (` + tenantColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := executor.ExecContext(ctx, query,
		tenant.ID, tenant.Name, tenant.Email, tenant.Phone, tenant.Address, tenant.TaxRate, tenant.DeliveryFee,
		tenant.MinimumOrder, tenant.IsOnline, tenant.AIEnabled, tenant.BusyModeEnabled, tenant.BusyHours,
		tenant.VoiceLineID, tenant.VoicePhoneNumber, tenant.StaffPhone, tenant.Timezone, tenant.IsSystem,
		tenant.LastLoginAt, tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		return wrapWriteError(err, "creating restaurant")
	}
	return nil
}

func (r *tenantRepository) GetTenantByID(ctx context.Context, scope models.TenantScope, id string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM restaurants WHERE id = $1`
	args := []interface{}{id}
	if !scope.All() {
		query += ` AND id = $2`
		args = append(args, scope.TenantID)
	}
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting restaurant by ID %s: %v", ErrDatabaseError, id, err)
	}
	return tenant, nil
}

func (r *tenantRepository) GetTenantByVoiceLine(ctx context.Context, lineID string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM restaurants WHERE voice_line_id = $1`
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, lineID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting restaurant by voice line %s: %v", ErrDatabaseError, lineID, err)
	}
	return tenant, nil
}

func (r *tenantRepository) ListTenants(ctx context.Context, scope models.TenantScope) ([]models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM restaurants`
	var args []interface{}
	if !scope.All() {
		query += ` WHERE id = $1`
		args = append(args, scope.TenantID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying restaurants: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	tenants := []models.Tenant{}
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning restaurant: %v", ErrDatabaseError, err)
		}
		tenants = append(tenants, *tenant)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating restaurant rows: %v", ErrDatabaseError, err)
	}
	return tenants, nil
}

// ListTenantsWithStats returns every non-system restaurant with its order count and completed revenue.
func (r *tenantRepository) ListTenantsWithStats(ctx context.Context) ([]models.TenantWithStats, error) {
	query := `
		SELECT r.id, r.name, r.email, r.phone, r.address, r.tax_rate, r.delivery_fee, r.minimum_order,
		       r.is_online, r.ai_enabled, r.busy_mode_enabled, r.busy_hours, r.voice_line_id, r.voice_phone_number,
		       r.staff_phone, r.timezone, r.is_system, r.last_login_at, r.created_at, r.updated_at,
		       COUNT(o.id) AS total_orders,
		       COALESCE(SUM(o.total) FILTER (WHERE o.status = 'completed'), 0) AS total_revenue
		FROM restaurants r
		LEFT JOIN orders o ON o.tenant_id = r.id
		WHERE r.is_system = FALSE
		GROUP BY r.id
		ORDER BY r.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying restaurants with stats: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.TenantWithStats{}
	for rows.Next() {
		var s models.TenantWithStats
		t := &s.Tenant
		err := rows.Scan(
			&t.ID, &t.Name, &t.Email, &t.Phone, &t.Address, &t.TaxRate, &t.DeliveryFee, &t.MinimumOrder,
			&t.IsOnline, &t.AIEnabled, &t.BusyModeEnabled, &t.BusyHours, &t.VoiceLineID, &t.VoicePhoneNumber,
			&t.StaffPhone, &t.Timezone, &t.IsSystem, &t.LastLoginAt, &t.CreatedAt, &t.UpdatedAt,
			&s.Stats.TotalOrders, &s.Stats.TotalRevenue,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning restaurant stats: %v", ErrDatabaseError, err)
		}
		result = append(result, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating restaurant stats rows: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *tenantRepository) CountTenants(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurants WHERE is_system = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting restaurants: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *tenantRepository) UpdateTenant(ctx context.Context, executor SQLExecutor, tenant *models.Tenant) error {
	tenant.UpdatedAt = time.Now()
	query := `UPDATE restaurants SET
	            name = $1, email = $2, phone = $3, address = $4, tax_rate = $5, delivery_fee = $6,
	            minimum_order = $7, ai_enabled = $8, busy_mode_enabled = $9, busy_hours = $10,
	            voice_line_id = $11, voice_phone_number = $12, staff_phone = $13, timezone = $14,
	            updated_at = $15
	          WHERE id = $16`
	result, err := executor.ExecContext(ctx, query,
		tenant.Name, tenant.Email, tenant.Phone, tenant.Address, tenant.TaxRate, tenant.DeliveryFee,
		tenant.MinimumOrder, tenant.AIEnabled, tenant.BusyModeEnabled, tenant.BusyHours,
		tenant.VoiceLineID, tenant.VoicePhoneNumber, tenant.StaffPhone, tenant.Timezone,
		tenant.UpdatedAt, tenant.ID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating restaurant %s", tenant.ID))
	}
	return requireAffected(result, "restaurant update "+tenant.ID)
}

// SetOnlineStatus flips the staff-presence flag; going online also stamps last_login_at.
func (r *tenantRepository) SetOnlineStatus(ctx context.Context, id string, online bool, at time.Time) error {
	query := `UPDATE restaurants SET is_online = $1, updated_at = $2 WHERE id = $3`
	if online {
		query = `UPDATE restaurants SET is_online = $1, updated_at = $2, last_login_at = $2 WHERE id = $3`
	}
	result, err := r.db.ExecContext(ctx, query, online, at, id)
	if err != nil {
		return fmt.Errorf("%w: setting online status for restaurant %s: %v", ErrDatabaseError, id, err)
	}
	return requireAffected(result, "restaurant online status "+id)
}

func (r *tenantRepository) DeleteTenant(ctx context.Context, executor SQLExecutor, id string) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting restaurant %s: %v", ErrDatabaseError, id, err)
	}
	return requireAffected(result, "restaurant delete "+id)
}
