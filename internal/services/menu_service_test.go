package services

import (
	"context"
	"testing"

	"phone_ordering_backend/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupVoiceMenu(t *testing.T) {
	categories := []models.MenuCategory{
		{ID: "c1", Name: "Starters"},
		{ID: "c2", Name: "Mains"},
		{ID: "c3", Name: "Empty"},
	}
	items := []models.MenuItem{
		{ID: "i1", CategoryID: strPtr("c2"), Name: "Lasagne", Price: dec("11.5"), Available: true},
		{ID: "i2", CategoryID: strPtr("c1"), Name: "Olives", Price: dec("3"), Available: true},
		{ID: "i3", CategoryID: strPtr("c3"), Name: "Sold out", Price: dec("3"), Available: false},
		{ID: "i4", Name: "Bread", Price: dec("2.25"), Available: true, Description: strPtr("Warm")},
		{ID: "i5", CategoryID: strPtr("gone"), Name: "Tiramisu", Price: dec("6"), Available: true},
	}

	got := GroupVoiceMenu(categories, items)

	want := []models.VoiceMenuCategory{
		{Name: "Starters", Items: []models.VoiceMenuItem{{ID: "i2", Name: "Olives", Price: "3.00"}}},
		{Name: "Mains", Items: []models.VoiceMenuItem{{ID: "i1", Name: "Lasagne", Price: "11.50"}}},
		{Name: "Other", Items: []models.VoiceMenuItem{
			{ID: "i4", Name: "Bread", Description: "Warm", Price: "2.25"},
			{ID: "i5", Name: "Tiramisu", Price: "6.00"},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GroupVoiceMenu mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupVoiceMenuEmpty(t *testing.T) {
	got := GroupVoiceMenu(nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMenuItemLifecycle(t *testing.T) {
	h := newHarness()
	tenant := h.store.addTenant(models.Tenant{Name: "Pizza Palace"})
	scope := models.ScopeTenant(tenant.ID)
	ctx := context.Background()

	category, err := h.menu.CreateCategory(ctx, scope, CreateCategoryRequest{Name: " Pizzas ", DisplayOrder: 1})
	require.NoError(t, err)
	assert.Equal(t, "Pizzas", category.Name)
	assert.Equal(t, tenant.ID, category.TenantID)

	item, err := h.menu.CreateItem(ctx, scope, CreateItemRequest{CategoryID: &category.ID, Name: "Margherita", Price: dec("12.99")})
	require.NoError(t, err)
	assert.True(t, item.Available)

	updated, err := h.menu.UpdateItem(ctx, scope, item.ID, UpdateItemRequest{Available: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Available)
	assert.Equal(t, "Margherita", updated.Name)
	assert.Equal(t, "12.99", updated.Price.String())

	available, err := h.menu.ListItems(ctx, scope, models.MenuItemFilters{AvailableOnly: true})
	require.NoError(t, err)
	assert.Empty(t, available)

	// Deleting the category leaves the item in place.
	require.NoError(t, h.menu.DeleteCategory(ctx, scope, category.ID))
	all, err := h.menu.ListItems(ctx, scope, models.MenuItemFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// An orphaned item can still be edited.
	updated, err = h.menu.UpdateItem(ctx, scope, item.ID, UpdateItemRequest{Available: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Available)
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, category.ID, *updated.CategoryID)

	// Moving it to a category that does not exist is still rejected.
	missing := "missing-category"
	_, err = h.menu.UpdateItem(ctx, scope, item.ID, UpdateItemRequest{CategoryID: &missing})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMenuValidation(t *testing.T) {
	h := newHarness()
	tenant := h.store.addTenant(models.Tenant{Name: "Pizza Palace"})
	other := h.store.addTenant(models.Tenant{Name: "Burger Barn"})
	foreign := h.store.addCategory(models.MenuCategory{TenantID: other.ID, Name: "Burgers"})
	scope := models.ScopeTenant(tenant.ID)
	ctx := context.Background()

	_, err := h.menu.CreateItem(ctx, scope, CreateItemRequest{Name: "Cola", Price: dec("-1")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.menu.CreateItem(ctx, scope, CreateItemRequest{Name: "  ", Price: dec("1")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.menu.CreateItem(ctx, scope, CreateItemRequest{Name: "Cola", Price: dec("1"), CategoryID: &foreign.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.menu.CreateCategory(ctx, models.ScopeAll(), CreateCategoryRequest{Name: "Drinks"})
	assert.ErrorIs(t, err, ErrValidation)

	created, err := h.menu.CreateCategory(ctx, models.ScopeAll(), CreateCategoryRequest{Name: "Drinks", RestaurantID: &tenant.ID})
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, created.TenantID)
}

func TestMenuDeleteOutsideTenantIsNotFound(t *testing.T) {
	h := newHarness()
	tenant := h.store.addTenant(models.Tenant{Name: "Pizza Palace"})
	other := h.store.addTenant(models.Tenant{Name: "Burger Barn"})
	item := h.store.addItem(models.MenuItem{TenantID: other.ID, Name: "Cheeseburger", Price: dec("9"), Available: true})
	category := h.store.addCategory(models.MenuCategory{TenantID: other.ID, Name: "Burgers"})
	ctx := context.Background()

	assert.ErrorIs(t, h.menu.DeleteItem(ctx, models.ScopeTenant(tenant.ID), item.ID), ErrNotFound)
	assert.ErrorIs(t, h.menu.DeleteCategory(ctx, models.ScopeTenant(tenant.ID), category.ID), ErrNotFound)

	assert.NoError(t, h.menu.DeleteItem(ctx, models.ScopeAll(), item.ID))
}

func boolPtr(b bool) *bool { return &b }
