package models

import "time"

// Role names carried in tokens.
const (
	RoleSuperAdmin      = "super_admin"
	RoleRestaurantOwner = "restaurant_owner"
)

// User represents a dashboard account: a platform operator or a restaurant owner.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // '-' means don't send in JSON response
	Role         string    `json:"role" db:"role"`
	TenantID     *string   `json:"restaurant_id,omitempty" db:"tenant_id"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Credentials for login request
type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Principal is the verified caller behind a request.
type Principal struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"restaurant_id,omitempty"`
}

// IsPlatformOperator reports whether the caller may see every tenant.
func (p Principal) IsPlatformOperator() bool {
	return p.Role == RoleSuperAdmin
}

// Scope derives the tenant scope for reads and writes. ok is false for an owner with no tenant binding.
func (p Principal) Scope() (scope TenantScope, ok bool) {
	if p.IsPlatformOperator() {
		return ScopeAll(), true
	}
	if p.TenantID == "" {
		return TenantScope{}, false
	}
	return ScopeTenant(p.TenantID), true
}

// TenantScope restricts repository queries to one tenant; the zero TenantID means all tenants.
type TenantScope struct {
	TenantID string
}

// ScopeAll is the platform operator's unrestricted scope.
func ScopeAll() TenantScope { return TenantScope{} }

// ScopeTenant restricts to a single tenant.
func ScopeTenant(id string) TenantScope { return TenantScope{TenantID: id} }

// All reports whether the scope spans every tenant.
func (s TenantScope) All() bool { return s.TenantID == "" }

// Allows reports whether a record owned by tenantID is visible in this scope.
func (s TenantScope) Allows(tenantID string) bool {
	return s.All() || s.TenantID == tenantID
}
