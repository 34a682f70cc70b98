package services

import (
	"context"
	"strings"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/repositories"
	"phone_ordering_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// otherCategory collects items without a live category in the voice menu.
const otherCategory = "Other"

// CreateCategoryRequest creates a menu category. RestaurantID is only read for the platform operator.
type CreateCategoryRequest struct {
	RestaurantID *string `json:"restaurant_id"`
	Name         string  `json:"name" binding:"required"`
	Description  *string `json:"description"`
	DisplayOrder int     `json:"display_order"`
}

// UpdateCategoryRequest is a partial category update.
type UpdateCategoryRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"display_order"`
}

// CreateItemRequest creates a menu item. Available defaults to true.
type CreateItemRequest struct {
	RestaurantID   *string         `json:"restaurant_id"`
	CategoryID     *string         `json:"category_id"`
	Name           string          `json:"name" binding:"required"`
	Description    *string         `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Available      *bool           `json:"available"`
	Customizations []string        `json:"customizations"`
}

// UpdateItemRequest is a partial item update.
type UpdateItemRequest struct {
	CategoryID     *string          `json:"category_id"`
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	Available      *bool            `json:"available"`
	Customizations *[]string        `json:"customizations"`
}

// MenuService manages each restaurant's categories and items.
type MenuService interface {
	CreateCategory(ctx context.Context, scope models.TenantScope, req CreateCategoryRequest) (*models.MenuCategory, error)
	ListCategories(ctx context.Context, scope models.TenantScope) ([]models.MenuCategory, error)
	UpdateCategory(ctx context.Context, scope models.TenantScope, id string, req UpdateCategoryRequest) (*models.MenuCategory, error)
	DeleteCategory(ctx context.Context, scope models.TenantScope, id string) error

	CreateItem(ctx context.Context, scope models.TenantScope, req CreateItemRequest) (*models.MenuItem, error)
	ListItems(ctx context.Context, scope models.TenantScope, filters models.MenuItemFilters) ([]models.MenuItem, error)
	UpdateItem(ctx context.Context, scope models.TenantScope, id string, req UpdateItemRequest) (*models.MenuItem, error)
	DeleteItem(ctx context.Context, scope models.TenantScope, id string) error

	// MenuForVoice groups available items by category in display order; orphans go last under "Other".
	MenuForVoice(ctx context.Context, tenantID string) ([]models.VoiceMenuCategory, error)
}

type menuService struct {
	menu repositories.MenuRepository
}

// NewMenuService creates a new instance of MenuService.
func NewMenuService(mr repositories.MenuRepository) MenuService {
	return &menuService{menu: mr}
}

// writeTenant picks the tenant a new record belongs to: the caller's own, or the requested one for the operator.
func writeTenant(scope models.TenantScope, requested *string) (string, error) {
	if !scope.All() {
		return scope.TenantID, nil
	}
	if requested == nil || strings.TrimSpace(*requested) == "" {
		return "", validationf("restaurant_id is required")
	}
	return strings.TrimSpace(*requested), nil
}

func (s *menuService) CreateCategory(ctx context.Context, scope models.TenantScope, req CreateCategoryRequest) (*models.MenuCategory, error) {
	tenantID, err := writeTenant(scope, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	category := &models.MenuCategory{
		TenantID:     tenantID,
		Name:         strings.TrimSpace(req.Name),
		Description:  normalizeOptional(req.Description),
		DisplayOrder: req.DisplayOrder,
	}
	if category.Name == "" {
		return nil, validationf("name is required")
	}
	if err := s.menu.CreateCategory(ctx, category); err != nil {
		return nil, mapRepoError(err, "menu category")
	}
	return category, nil
}

func (s *menuService) ListCategories(ctx context.Context, scope models.TenantScope) ([]models.MenuCategory, error) {
	categories, err := s.menu.ListCategories(ctx, scope)
	if err != nil {
		return nil, mapRepoError(err, "menu categories")
	}
	return categories, nil
}

func (s *menuService) UpdateCategory(ctx context.Context, scope models.TenantScope, id string, req UpdateCategoryRequest) (*models.MenuCategory, error) {
	category, err := s.menu.GetCategoryByID(ctx, scope, id)
	if err != nil {
		return nil, mapRepoError(err, "menu category "+id)
	}
	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		category.Description = normalizeOptional(req.Description)
	}
	if req.DisplayOrder != nil {
		category.DisplayOrder = *req.DisplayOrder
	}
	if category.Name == "" {
		return nil, validationf("name must not be empty")
	}
	if err := s.menu.UpdateCategory(ctx, category); err != nil {
		return nil, mapRepoError(err, "menu category "+id)
	}
	return category, nil
}

func (s *menuService) DeleteCategory(ctx context.Context, scope models.TenantScope, id string) error {
	return mapRepoError(s.menu.DeleteCategory(ctx, scope, id), "menu category "+id)
}

func (s *menuService) CreateItem(ctx context.Context, scope models.TenantScope, req CreateItemRequest) (*models.MenuItem, error) {
	tenantID, err := writeTenant(scope, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	item := &models.MenuItem{
		TenantID:       tenantID,
		CategoryID:     normalizeOptional(req.CategoryID),
		Name:           strings.TrimSpace(req.Name),
		Description:    normalizeOptional(req.Description),
		Price:          req.Price,
		Available:      req.Available == nil || *req.Available,
		Customizations: req.Customizations,
	}
	if err := s.validateItem(ctx, item, true); err != nil {
		return nil, err
	}
	if err := s.menu.CreateItem(ctx, item); err != nil {
		return nil, mapRepoError(err, "menu item")
	}
	return item, nil
}

func (s *menuService) ListItems(ctx context.Context, scope models.TenantScope, filters models.MenuItemFilters) ([]models.MenuItem, error) {
	items, err := s.menu.ListItems(ctx, scope, filters)
	if err != nil {
		return nil, mapRepoError(err, "menu items")
	}
	return items, nil
}

func (s *menuService) UpdateItem(ctx context.Context, scope models.TenantScope, id string, req UpdateItemRequest) (*models.MenuItem, error) {
	item, err := s.menu.GetItemByID(ctx, scope, id)
	if err != nil {
		return nil, mapRepoError(err, "menu item "+id)
	}
	if req.CategoryID != nil {
		item.CategoryID = normalizeOptional(req.CategoryID)
	}
	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = normalizeOptional(req.Description)
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if req.Customizations != nil {
		item.Customizations = *req.Customizations
	}
	if err := s.validateItem(ctx, item, req.CategoryID != nil); err != nil {
		return nil, err
	}
	if err := s.menu.UpdateItem(ctx, item); err != nil {
		return nil, mapRepoError(err, "menu item "+id)
	}
	return item, nil
}

func (s *menuService) DeleteItem(ctx context.Context, scope models.TenantScope, id string) error {
	return mapRepoError(s.menu.DeleteItem(ctx, scope, id), "menu item "+id)
}

// validateItem checks the category only when it is being set; items may keep a reference to a deleted category.
func (s *menuService) validateItem(ctx context.Context, item *models.MenuItem, checkCategory bool) error {
	if item.Name == "" {
		return validationf("name is required")
	}
	if item.Price.IsNegative() {
		return validationf("price must not be negative")
	}
	if checkCategory && item.CategoryID != nil {
		if _, err := s.menu.GetCategoryByID(ctx, models.ScopeTenant(item.TenantID), *item.CategoryID); err != nil {
			if err = mapRepoError(err, "category"); isNotFound(err) {
				return validationf("category %s does not exist", *item.CategoryID)
			}
			return err
		}
	}
	return nil
}

func (s *menuService) MenuForVoice(ctx context.Context, tenantID string) ([]models.VoiceMenuCategory, error) {
	scope := models.ScopeTenant(tenantID)
	categories, err := s.menu.ListCategories(ctx, scope)
	if err != nil {
		return nil, mapRepoError(err, "menu categories")
	}
	items, err := s.menu.ListItems(ctx, scope, models.MenuItemFilters{AvailableOnly: true})
	if err != nil {
		return nil, mapRepoError(err, "menu items")
	}
	return GroupVoiceMenu(categories, items), nil
}

// GroupVoiceMenu builds the voice menu. Unavailable items are dropped and empty categories omitted.
func GroupVoiceMenu(categories []models.MenuCategory, items []models.MenuItem) []models.VoiceMenuCategory {
	byCategory := make(map[string][]models.VoiceMenuItem, len(categories))
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}

	var other []models.VoiceMenuItem
	for _, item := range items {
		if !item.Available {
			continue
		}
		v := models.VoiceMenuItem{
			ID:             item.ID,
			Name:           item.Name,
			Description:    utils.DerefString(item.Description),
			Price:          item.Price.StringFixed(2),
			Customizations: item.Customizations,
		}
		if item.CategoryID != nil && known[*item.CategoryID] {
			byCategory[*item.CategoryID] = append(byCategory[*item.CategoryID], v)
		} else {
			other = append(other, v)
		}
	}

	menu := []models.VoiceMenuCategory{}
	for _, c := range categories {
		if list := byCategory[c.ID]; len(list) > 0 {
			menu = append(menu, models.VoiceMenuCategory{Name: c.Name, Items: list})
		}
	}
	if len(other) > 0 {
		menu = append(menu, models.VoiceMenuCategory{Name: otherCategory, Items: other})
	}
	return menu
}
