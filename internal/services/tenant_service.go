package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/repositories"
	"phone_ordering_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// CreateTenantRequest is the platform operator's new-restaurant form.
// Owner credentials are optional; when present the owner account is created with the restaurant.
type CreateTenantRequest struct {
	Name             string           `json:"name" binding:"required"`
	Email            *string          `json:"email"`
	Phone            *string          `json:"phone"`
	Address          *string          `json:"address"`
	TaxRate          *decimal.Decimal `json:"tax_rate"`
	DeliveryFee      *decimal.Decimal `json:"delivery_fee"`
	MinimumOrder     *decimal.Decimal `json:"minimum_order"`
	VoiceLineID      *string          `json:"voice_line_id"`
	VoicePhoneNumber *string          `json:"voice_phone_number"`
	StaffPhone       *string          `json:"staff_phone"`
	Timezone         string           `json:"timezone"`
	OwnerEmail       string           `json:"owner_email"`
	OwnerPassword    string           `json:"owner_password"`
}

// UpdateSettingsRequest is a partial settings update; nil fields are left unchanged.
// VoiceLineID and VoicePhoneNumber may only be set by the platform operator.
type UpdateSettingsRequest struct {
	Name             *string           `json:"name"`
	Email            *string           `json:"email"`
	Phone            *string           `json:"phone"`
	Address          *string           `json:"address"`
	TaxRate          *decimal.Decimal  `json:"tax_rate"`
	DeliveryFee      *decimal.Decimal  `json:"delivery_fee"`
	MinimumOrder     *decimal.Decimal  `json:"minimum_order"`
	AIEnabled        *bool             `json:"ai_enabled"`
	BusyModeEnabled  *bool             `json:"busy_mode_enabled"`
	BusyHours        *models.BusyHours `json:"busy_hours"`
	StaffPhone       *string           `json:"staff_phone"`
	Timezone         *string           `json:"timezone"`
	VoiceLineID      *string           `json:"voice_line_id"`
	VoicePhoneNumber *string           `json:"voice_phone_number"`
}

// TenantService is the restaurant directory.
type TenantService interface {
	CreateTenant(ctx context.Context, principal models.Principal, req CreateTenantRequest) (*models.Tenant, error)
	GetTenant(ctx context.Context, scope models.TenantScope, id string) (*models.Tenant, error)
	ListTenants(ctx context.Context, scope models.TenantScope) ([]models.Tenant, error)
	ListTenantsWithStats(ctx context.Context, principal models.Principal) ([]models.TenantWithStats, error)
	// FindTenantByVoiceLine reports found=false, with no error, when no restaurant owns the line.
	FindTenantByVoiceLine(ctx context.Context, lineID string) (*models.Tenant, bool, error)
	SetOnlineStatus(ctx context.Context, id string, online bool) error
	UpdateSettings(ctx context.Context, principal models.Principal, id string, req UpdateSettingsRequest) (*models.Tenant, error)
	DeleteTenant(ctx context.Context, principal models.Principal, id string) error
}

type tenantService struct {
	tenants repositories.TenantRepository
	menu    repositories.MenuRepository
	orders  repositories.OrderRepository
	users   repositories.AuthRepository
	tx      repositories.Transactor
	now     func() time.Time
}

// NewTenantService creates a new instance of TenantService.
func NewTenantService(
	tr repositories.TenantRepository,
	mr repositories.MenuRepository,
	or repositories.OrderRepository,
	ar repositories.AuthRepository,
	tx repositories.Transactor,
) TenantService {
	return &tenantService{tenants: tr, menu: mr, orders: or, users: ar, tx: tx, now: time.Now}
}

func (s *tenantService) CreateTenant(ctx context.Context, principal models.Principal, req CreateTenantRequest) (*models.Tenant, error) {
	if !principal.IsPlatformOperator() {
		return nil, ErrUnauthorized
	}

	tenant := &models.Tenant{
		Name:             strings.TrimSpace(req.Name),
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		VoiceLineID:      normalizeOptional(req.VoiceLineID),
		VoicePhoneNumber: normalizeOptional(req.VoicePhoneNumber),
		StaffPhone:       normalizeOptional(req.StaffPhone),
		Timezone:         strings.TrimSpace(req.Timezone),
		BusyHours:        models.BusyHours{},
	}
	if req.TaxRate != nil {
		tenant.TaxRate = decimal.NewNullDecimal(*req.TaxRate)
	}
	if req.DeliveryFee != nil {
		tenant.DeliveryFee = decimal.NewNullDecimal(*req.DeliveryFee)
	}
	if req.MinimumOrder != nil {
		tenant.MinimumOrder = *req.MinimumOrder
	}
	if err := validateTenant(tenant); err != nil {
		return nil, err
	}

	var owner *models.User
	if req.OwnerEmail != "" || req.OwnerPassword != "" {
		if !utils.IsValidEmail(req.OwnerEmail) {
			return nil, validationf("owner_email is not a valid email address")
		}
		if !utils.IsValidPasswordLength(req.OwnerPassword, minPasswordLength) {
			return nil, validationf("owner_password must be at least %d characters", minPasswordLength)
		}
		hash, err := hashPassword(req.OwnerPassword)
		if err != nil {
			return nil, err
		}
		owner = &models.User{Email: req.OwnerEmail, PasswordHash: hash, Role: models.RoleRestaurantOwner, Phone: req.Phone}
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tenants.CreateTenant(ctx, exec, tenant); err != nil {
			return mapRepoError(err, "restaurant")
		}
		if owner != nil {
			owner.TenantID = &tenant.ID
			if err := s.users.CreateUser(ctx, exec, owner); err != nil {
				return mapRepoError(err, "owner account")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Restaurant created", map[string]interface{}{"restaurant_id": tenant.ID, "by": principal.UserID, "with_owner": owner != nil})
	return tenant, nil
}

func (s *tenantService) GetTenant(ctx context.Context, scope models.TenantScope, id string) (*models.Tenant, error) {
	tenant, err := s.tenants.GetTenantByID(ctx, scope, id)
	if err != nil {
		return nil, mapRepoError(err, "restaurant "+id)
	}
	return tenant, nil
}

func (s *tenantService) ListTenants(ctx context.Context, scope models.TenantScope) ([]models.Tenant, error) {
	tenants, err := s.tenants.ListTenants(ctx, scope)
	if err != nil {
		return nil, mapRepoError(err, "restaurants")
	}
	return tenants, nil
}

func (s *tenantService) ListTenantsWithStats(ctx context.Context, principal models.Principal) ([]models.TenantWithStats, error) {
	if !principal.IsPlatformOperator() {
		return nil, ErrUnauthorized
	}
	tenants, err := s.tenants.ListTenantsWithStats(ctx)
	if err != nil {
		return nil, mapRepoError(err, "restaurants")
	}
	return tenants, nil
}

func (s *tenantService) FindTenantByVoiceLine(ctx context.Context, lineID string) (*models.Tenant, bool, error) {
	lineID = strings.TrimSpace(lineID)
	if lineID == "" {
		return nil, false, nil
	}
	tenant, err := s.tenants.GetTenantByVoiceLine(ctx, lineID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, mapRepoError(err, "restaurant by voice line")
	}
	return tenant, true, nil
}

func (s *tenantService) SetOnlineStatus(ctx context.Context, id string, online bool) error {
	if err := s.tenants.SetOnlineStatus(ctx, id, online, s.now()); err != nil {
		return mapRepoError(err, "restaurant "+id)
	}
	utils.LogDebug("Restaurant presence changed", map[string]interface{}{"restaurant_id": id, "online": online})
	return nil
}

func (s *tenantService) UpdateSettings(ctx context.Context, principal models.Principal, id string, req UpdateSettingsRequest) (*models.Tenant, error) {
	scope, ok := principal.Scope()
	if !ok {
		return nil, ErrUnauthorized
	}
	if (req.VoiceLineID != nil || req.VoicePhoneNumber != nil) && !principal.IsPlatformOperator() {
		return nil, ErrUnauthorized
	}

	tenant, err := s.tenants.GetTenantByID(ctx, scope, id)
	if err != nil {
		return nil, mapRepoError(err, "restaurant "+id)
	}

	if req.Name != nil {
		tenant.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		tenant.Email = normalizeOptional(req.Email)
	}
	if req.Phone != nil {
		tenant.Phone = normalizeOptional(req.Phone)
	}
	if req.Address != nil {
		tenant.Address = normalizeOptional(req.Address)
	}
	if req.TaxRate != nil {
		tenant.TaxRate = decimal.NewNullDecimal(*req.TaxRate)
	}
	if req.DeliveryFee != nil {
		tenant.DeliveryFee = decimal.NewNullDecimal(*req.DeliveryFee)
	}
	if req.MinimumOrder != nil {
		tenant.MinimumOrder = *req.MinimumOrder
	}
	if req.AIEnabled != nil {
		tenant.AIEnabled = utils.BoolPtr(*req.AIEnabled)
	}
	if req.BusyModeEnabled != nil {
		tenant.BusyModeEnabled = *req.BusyModeEnabled
	}
	if req.BusyHours != nil {
		tenant.BusyHours = *req.BusyHours
	}
	if req.StaffPhone != nil {
		tenant.StaffPhone = normalizeOptional(req.StaffPhone)
	}
	if req.Timezone != nil {
		tenant.Timezone = strings.TrimSpace(*req.Timezone)
	}
	if req.VoiceLineID != nil {
		tenant.VoiceLineID = normalizeOptional(req.VoiceLineID)
	}
	if req.VoicePhoneNumber != nil {
		tenant.VoicePhoneNumber = normalizeOptional(req.VoicePhoneNumber)
	}

	if err := validateTenant(tenant); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return mapRepoError(s.tenants.UpdateTenant(ctx, exec, tenant), "restaurant "+id)
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// DeleteTenant removes the restaurant and everything bound to it in one transaction.
func (s *tenantService) DeleteTenant(ctx context.Context, principal models.Principal, id string) error {
	if !principal.IsPlatformOperator() {
		return ErrUnauthorized
	}
	tenant, err := s.tenants.GetTenantByID(ctx, models.ScopeAll(), id)
	if err != nil {
		return mapRepoError(err, "restaurant "+id)
	}
	if tenant.IsSystem {
		return validationf("the platform restaurant cannot be deleted")
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.orders.DeleteOrdersByTenant(ctx, exec, id); err != nil {
			return err
		}
		if err := s.menu.DeleteMenuByTenant(ctx, exec, id); err != nil {
			return err
		}
		if err := s.users.DeleteUsersByTenant(ctx, exec, id); err != nil {
			return err
		}
		return s.tenants.DeleteTenant(ctx, exec, id)
	})
	if err != nil {
		return mapRepoError(err, "restaurant "+id)
	}

	utils.LogInfo("Restaurant deleted", map[string]interface{}{"restaurant_id": id, "by": principal.UserID})
	return nil
}

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidateBusyHours checks weekday names, zero-padded 24h times and start <= end.
func ValidateBusyHours(hours models.BusyHours) error {
	for i, entry := range hours {
		if !isWeekday(entry.Day) {
			return validationf("busy_hours[%d]: unknown day %q", i, entry.Day)
		}
		if !clockPattern.MatchString(entry.Start) || !clockPattern.MatchString(entry.End) {
			return validationf("busy_hours[%d]: times must be HH:MM", i)
		}
		if entry.Start > entry.End {
			return validationf("busy_hours[%d]: start %s is after end %s", i, entry.Start, entry.End)
		}
	}
	return nil
}

func validateTenant(t *models.Tenant) error {
	if t.Name == "" {
		return validationf("name is required")
	}
	if t.TaxRate.Valid && (t.TaxRate.Decimal.IsNegative() || t.TaxRate.Decimal.GreaterThan(decimal.NewFromInt(1))) {
		return validationf("tax_rate must be between 0 and 1")
	}
	if t.DeliveryFee.Valid && t.DeliveryFee.Decimal.IsNegative() {
		return validationf("delivery_fee must not be negative")
	}
	if t.MinimumOrder.IsNegative() {
		return validationf("minimum_order must not be negative")
	}
	if t.Timezone != "" {
		if _, err := time.LoadLocation(t.Timezone); err != nil {
			return validationf("unknown timezone %q", t.Timezone)
		}
	}
	return ValidateBusyHours(t.BusyHours)
}

func isWeekday(day string) bool {
	for _, d := range models.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// normalizeOptional trims the value and maps an empty string to nil.
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.NewNullString(strings.TrimSpace(*s))
}
