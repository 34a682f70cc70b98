// Command seed loads a platform operator account and a demo restaurant with a menu and a few orders.
// It is safe to run repeatedly: existing accounts are left untouched.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"phone_ordering_backend/internal/config"
	"phone_ordering_backend/internal/database"
	"phone_ordering_backend/internal/events"
	"phone_ordering_backend/internal/integrations"
	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/repositories"
	"phone_ordering_backend/internal/services"
	"phone_ordering_backend/pkg/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type seedItem struct {
	name, description, price string
}

var demoMenu = []struct {
	category string
	items    []seedItem
}{
	{"Pizzas", []seedItem{
		{"Margherita", "Tomato, mozzarella, basil", "12.99"},
		{"Pepperoni", "Tomato, mozzarella, pepperoni", "14.99"},
		{"Quattro Formaggi", "Four cheeses", "15.49"},
	}},
	{"Sides", []seedItem{
		{"Garlic Bread", "", "4.50"},
		{"Caesar Salad", "Romaine, parmesan, croutons", "7.25"},
	}},
	{"Drinks", []seedItem{
		{"Cola", "330ml can", "2.50"},
		{"Sparkling Water", "500ml", "2.00"},
	}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", true)
		utils.LogError(err, "Invalid configuration")
		os.Exit(1)
	}
	utils.InitLogger(cfg.Log.Level, cfg.Log.Pretty)

	if err := seed(context.Background(), cfg); err != nil {
		utils.LogError(err, "Seeding failed")
		os.Exit(1)
	}
	utils.LogInfo("Seeding finished")
}

func seed(ctx context.Context, cfg *config.Config) error {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.ApplySchema(ctx, db); err != nil {
		return err
	}

	tenantRepo := repositories.NewTenantRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	authRepo := repositories.NewAuthRepository(db)
	tx := repositories.NewTransactor(db)

	adminEmail := utils.Getenv("SEED_ADMIN_EMAIL", "admin@phoneorders.local")
	if err := ensureAdmin(ctx, authRepo, db, adminEmail, utils.Getenv("SEED_ADMIN_PASSWORD", "admin123")); err != nil {
		return err
	}

	ownerEmail := utils.Getenv("SEED_OWNER_EMAIL", "owner@pizzapalace.local")
	if _, err := authRepo.FindUserByEmail(ctx, ownerEmail); err == nil {
		utils.LogInfo("Demo restaurant already seeded", map[string]interface{}{"owner": ownerEmail})
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	operator := models.Principal{UserID: "seed", Role: models.RoleSuperAdmin}
	tenants := services.NewTenantService(tenantRepo, menuRepo, orderRepo, authRepo, tx)
	tenant, err := tenants.CreateTenant(ctx, operator, services.CreateTenantRequest{
		Name:          "Pizza Palace",
		Phone:         utils.NewNullString("+44 20 7946 0000"),
		Address:       utils.NewNullString("12 High Street, London"),
		VoiceLineID:   utils.NewNullString(utils.Getenv("SEED_VOICE_LINE_ID", "")),
		StaffPhone:    utils.NewNullString("+44 20 7946 0001"),
		Timezone:      "Europe/London",
		OwnerEmail:    ownerEmail,
		OwnerPassword: utils.Getenv("SEED_OWNER_PASSWORD", "owner123"),
	})
	if err != nil {
		return fmt.Errorf("creating demo restaurant: %w", err)
	}
	hours := models.BusyHours{
		{Day: "friday", Start: "18:00", End: "21:30", Enabled: true},
		{Day: "saturday", Start: "18:00", End: "21:30", Enabled: true},
	}
	if _, err := tenants.UpdateSettings(ctx, operator, tenant.ID, services.UpdateSettingsRequest{BusyHours: &hours}); err != nil {
		return fmt.Errorf("setting busy hours: %w", err)
	}

	menu := services.NewMenuService(menuRepo)
	scope := models.ScopeTenant(tenant.ID)
	for i, section := range demoMenu {
		category, err := menu.CreateCategory(ctx, scope, services.CreateCategoryRequest{Name: section.category, DisplayOrder: i + 1})
		if err != nil {
			return fmt.Errorf("creating category %s: %w", section.category, err)
		}
		for _, item := range section.items {
			_, err := menu.CreateItem(ctx, scope, services.CreateItemRequest{
				CategoryID:  &category.ID,
				Name:        item.name,
				Description: utils.NewNullString(item.description),
				Price:       decimal.RequireFromString(item.price),
			})
			if err != nil {
				return fmt.Errorf("creating item %s: %w", item.name, err)
			}
		}
	}

	// Integrations stay log-only so seeding never texts anyone.
	orders := services.NewOrderService(services.OrderDeps{
		Tenants:        tenantRepo,
		Orders:         orderRepo,
		PrintJobs:      repositories.NewPrintJobRepository(db),
		Tx:             tx,
		Integrations:   integrations.NewSet(config.IntegrationsConfig{}),
		Events:         events.NoopPublisher{},
		CurrencySymbol: cfg.Pricing.CurrencySymbol,
	})
	samples := []services.CreateOrderRequest{
		{
			CustomerName: "Alice", CustomerPhone: utils.NewNullString("+447700900001"),
			OrderType: models.OrderTypePickup, PaymentMethod: models.PaymentCash,
			Items: []services.CreateOrderItemRequest{{Name: "Margherita", Price: decimal.RequireFromString("12.99"), Quantity: 1}},
		},
		{
			CustomerName: "Bob", CustomerPhone: utils.NewNullString("+447700900002"),
			DeliveryAddress: utils.NewNullString("3 Park Lane"),
			OrderType:       models.OrderTypeDelivery, PaymentMethod: models.PaymentCard,
			Items: []services.CreateOrderItemRequest{
				{Name: "Pepperoni", Price: decimal.RequireFromString("14.99"), Quantity: 2},
				{Name: "Cola", Price: decimal.RequireFromString("2.50"), Quantity: 2},
			},
		},
	}
	for i, req := range samples {
		source := models.SourceDashboard
		if i%2 == 1 {
			source = models.SourcePhone
		}
		result, err := orders.CreateOrder(ctx, tenant.ID, source, req)
		if err != nil {
			return fmt.Errorf("creating sample order: %w", err)
		}
		if i == 0 {
			if _, err := orders.TransitionStatus(ctx, scope, result.Order.ID, string(models.StatusCompleted), "seed"); err != nil {
				return fmt.Errorf("completing sample order: %w", err)
			}
		}
	}

	utils.LogInfo("Demo restaurant seeded", map[string]interface{}{"restaurant_id": tenant.ID, "owner": ownerEmail})
	return nil
}

func ensureAdmin(ctx context.Context, users repositories.AuthRepository, exec repositories.SQLExecutor, email, password string) error {
	if _, err := users.FindUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	if err := users.CreateUser(ctx, exec, &models.User{Email: email, PasswordHash: string(hash), Role: models.RoleSuperAdmin}); err != nil {
		return fmt.Errorf("creating platform operator: %w", err)
	}
	utils.LogInfo("Platform operator created", map[string]interface{}{"email": email})
	return nil
}
