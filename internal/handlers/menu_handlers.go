package handlers

import (
	"net/http"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// MenuHandler holds the menu service.
type MenuHandler struct {
	menuService services.MenuService
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(ms services.MenuService) *MenuHandler {
	return &MenuHandler{menuService: ms}
}

// CreateCategory handles creating a menu category.
func (h *MenuHandler) CreateCategory(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	category, err := h.menuService.CreateCategory(c.Request.Context(), scope, req)
	if err != nil {
		respondServiceError(c, err, "create menu category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// GetCategories lists categories in display order.
func (h *MenuHandler) GetCategories(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	categories, err := h.menuService.ListCategories(c.Request.Context(), scope)
	if err != nil {
		respondServiceError(c, err, "fetch menu categories")
		return
	}
	if categories == nil {
		categories = []models.MenuCategory{}
	}
	c.JSON(http.StatusOK, categories)
}

// UpdateCategory applies a partial category update.
func (h *MenuHandler) UpdateCategory(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	var req services.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	category, err := h.menuService.UpdateCategory(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "update menu category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category; its items stay.
func (h *MenuHandler) DeleteCategory(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	if err := h.menuService.DeleteCategory(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondServiceError(c, err, "delete menu category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateItem handles creating a menu item.
func (h *MenuHandler) CreateItem(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	var req services.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := h.menuService.CreateItem(c.Request.Context(), scope, req)
	if err != nil {
		respondServiceError(c, err, "create menu item")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItems lists items, optionally narrowed by ?category_id=.
func (h *MenuHandler) GetItems(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	var filters models.MenuItemFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBindError(c, err)
		return
	}
	items, err := h.menuService.ListItems(c.Request.Context(), scope, filters)
	if err != nil {
		respondServiceError(c, err, "fetch menu items")
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	c.JSON(http.StatusOK, items)
}

// UpdateItem applies a partial item update.
func (h *MenuHandler) UpdateItem(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	var req services.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := h.menuService.UpdateItem(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "update menu item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem removes a menu item.
func (h *MenuHandler) DeleteItem(c *gin.Context) {
	_, scope, ok := callerScope(c)
	if !ok {
		return
	}
	if err := h.menuService.DeleteItem(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondServiceError(c, err, "delete menu item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
