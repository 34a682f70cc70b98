package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// DefaultTaxRate applies when a restaurant has no tax rate configured.
	DefaultTaxRate = decimal.RequireFromString("0.08")
	// DefaultDeliveryFee applies to delivery orders when a restaurant has no fee configured.
	DefaultDeliveryFee = decimal.RequireFromString("5.00")
)

// Weekdays lists the day names accepted in a busy-hours schedule, indexed by time.Weekday.
var Weekdays = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// BusyHoursEntry is one weekday window during which calls go to the AI agent.
// Start and End are zero-padded 24-hour "HH:MM" strings.
type BusyHoursEntry struct {
	Day     string `json:"day"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Enabled bool   `json:"enabled"`
}

// BusyHours is the ordered weekly schedule stored as a JSONB column.
type BusyHours []BusyHoursEntry

// ForDay returns the first entry for the given lower-case weekday name.
func (b BusyHours) ForDay(day string) (BusyHoursEntry, bool) {
	for _, entry := range b {
		if entry.Day == day {
			return entry, true
		}
	}
	return BusyHoursEntry{}, false
}

// Value implements driver.Valuer.
func (b BusyHours) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encoding busy hours: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (b *BusyHours) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*b = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("busy hours: unsupported source type")
	}
	if len(data) == 0 {
		*b = nil
		return nil
	}
	var entries BusyHours
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decoding busy hours: %w", err)
	}
	*b = entries
	return nil
}

// Tenant represents one restaurant account, the unit of data isolation.
type Tenant struct {
	ID               string              `json:"id" db:"id"`
	Name             string              `json:"name" db:"name"`
	Email            *string             `json:"email,omitempty" db:"email"`
	Phone            *string             `json:"phone,omitempty" db:"phone"`
	Address          *string             `json:"address,omitempty" db:"address"`
	TaxRate          decimal.NullDecimal `json:"tax_rate" db:"tax_rate"`
	DeliveryFee      decimal.NullDecimal `json:"delivery_fee" db:"delivery_fee"`
	MinimumOrder     decimal.Decimal     `json:"minimum_order" db:"minimum_order"`
	IsOnline         bool                `json:"is_online" db:"is_online"`
	AIEnabled        *bool               `json:"ai_enabled,omitempty" db:"ai_enabled"`
	BusyModeEnabled  bool                `json:"busy_mode_enabled" db:"busy_mode_enabled"`
	BusyHours        BusyHours           `json:"busy_hours" db:"busy_hours"`
	VoiceLineID      *string             `json:"voice_line_id,omitempty" db:"voice_line_id"`
	VoicePhoneNumber *string             `json:"voice_phone_number,omitempty" db:"voice_phone_number"`
	StaffPhone       *string             `json:"staff_phone,omitempty" db:"staff_phone"`
	Timezone         string              `json:"timezone" db:"timezone"`
	IsSystem         bool                `json:"is_system" db:"is_system"`
	LastLoginAt      *time.Time          `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// EffectiveTaxRate returns the configured tax rate or DefaultTaxRate.
func (t *Tenant) EffectiveTaxRate() decimal.Decimal {
	if t.TaxRate.Valid {
		return t.TaxRate.Decimal
	}
	return DefaultTaxRate
}

// EffectiveDeliveryFee returns the configured delivery fee or DefaultDeliveryFee.
func (t *Tenant) EffectiveDeliveryFee() decimal.Decimal {
	if t.DeliveryFee.Valid {
		return t.DeliveryFee.Decimal
	}
	return DefaultDeliveryFee
}

// AIAllowed is false only when the AI flag was explicitly switched off.
func (t *Tenant) AIAllowed() bool {
	return t.AIEnabled == nil || *t.AIEnabled
}

// Location resolves the tenant's timezone, falling back when unset or unknown.
func (t *Tenant) Location(fallback *time.Location) *time.Location {
	if t.Timezone != "" {
		if loc, err := time.LoadLocation(t.Timezone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.Local
	}
	return fallback
}

// TenantStats is the per-restaurant rollup shown to the platform operator.
type TenantStats struct {
	TotalOrders  int             `json:"total_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// TenantWithStats pairs a tenant with its order rollup.
type TenantWithStats struct {
	Tenant
	Stats TenantStats `json:"stats"`
}
