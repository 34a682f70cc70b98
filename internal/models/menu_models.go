package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuCategory groups menu items; DisplayOrder defines presentation sequence.
type MenuCategory struct {
	ID           string    `json:"id" db:"id"`
	TenantID     string    `json:"restaurant_id" db:"tenant_id"`
	Name         string    `json:"name" db:"name"`
	Description  *string   `json:"description,omitempty" db:"description"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// MenuItem is a sellable dish. CategoryID may be nil or point at a deleted category.
type MenuItem struct {
	ID             string          `json:"id" db:"id"`
	TenantID       string          `json:"restaurant_id" db:"tenant_id"`
	CategoryID     *string         `json:"category_id,omitempty" db:"category_id"`
	Name           string          `json:"name" db:"name"`
	Description    *string         `json:"description,omitempty" db:"description"`
	Price          decimal.Decimal `json:"price" db:"price"`
	Available      bool            `json:"available" db:"available"`
	Customizations []string        `json:"customizations" db:"customizations"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// MenuItemFilters narrows item listings.
type MenuItemFilters struct {
	CategoryID    *string `form:"category_id"`
	AvailableOnly bool    `form:"available_only"`
}

// VoiceMenuItem is the shape handed to the voice agent.
type VoiceMenuItem struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Price          string   `json:"price"`
	Customizations []string `json:"customizations,omitempty"`
}

// VoiceMenuCategory is one category of the voice menu with its available items.
type VoiceMenuCategory struct {
	Name  string          `json:"name"`
	Items []VoiceMenuItem `json:"items"`
}
