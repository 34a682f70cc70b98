package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"phone_ordering_backend/internal/config"
	"phone_ordering_backend/internal/database"
	"phone_ordering_backend/internal/events"
	"phone_ordering_backend/internal/handlers"
	"phone_ordering_backend/internal/integrations"
	"phone_ordering_backend/internal/metrics"
	"phone_ordering_backend/internal/repositories"
	"phone_ordering_backend/internal/router"
	"phone_ordering_backend/internal/services"
	"phone_ordering_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet.
		utils.InitLogger("info", true)
		utils.LogError(err, "Invalid configuration")
		os.Exit(1)
	}
	utils.InitLogger(cfg.Log.Level, cfg.Log.Pretty)

	if err := run(cfg); err != nil {
		utils.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.Database.ApplySchema {
		if err := database.ApplySchema(ctx, db); err != nil {
			return err
		}
		utils.LogInfo("Database schema applied")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		publisher = rabbit
	}
	defer publisher.Close()

	tokens, err := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	// Initialize Repositories
	tenantRepo := repositories.NewTenantRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	printJobRepo := repositories.NewPrintJobRepository(db)
	authRepo := repositories.NewAuthRepository(db)
	tx := repositories.NewTransactor(db)

	// Initialize Services
	loc := cfg.Pricing.Location()
	tenantService := services.NewTenantService(tenantRepo, menuRepo, orderRepo, authRepo, tx)
	authService := services.NewAuthService(authRepo, tenantService, tokens)
	menuService := services.NewMenuService(menuRepo)
	orderService := services.NewOrderService(services.OrderDeps{
		Tenants:        tenantRepo,
		Orders:         orderRepo,
		PrintJobs:      printJobRepo,
		Tx:             tx,
		Integrations:   integrations.NewSet(cfg.Integrations),
		Events:         publisher,
		CurrencySymbol: cfg.Pricing.CurrencySymbol,
	})
	voiceService := services.NewVoiceToolService(tenantService, menuService, orderService, cfg.Voice.FallbackTenantID, cfg.Pricing.CurrencySymbol)
	callRouter := services.NewCallRouter(tenantService, cfg.Voice, cfg.Server.PublicURL, loc)
	analyticsService := services.NewAnalyticsService(orderRepo, tenantRepo, loc)

	// Initialize Handlers
	h := router.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Restaurant: handlers.NewRestaurantHandler(tenantService),
		Menu:       handlers.NewMenuHandler(menuService),
		Order:      handlers.NewOrderHandler(orderService),
		Analytics:  handlers.NewAnalyticsHandler(analyticsService),
		Voice:      handlers.NewVoiceHandler(voiceService, callRouter),
		Payment:    handlers.NewPaymentHandler(orderService),
	}

	metrics.Register()
	gin.SetMode(cfg.Server.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), utils.GinLogger(), metrics.GinMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Idempotency-Key"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, h, router.Options{
		Tokens:        tokens,
		WebhookSecret: cfg.Voice.WebhookSecret,
		PaymentSecret: cfg.Payments.WebhookSecret,
		Health:        db.PingContext,
	})

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: engine}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Server.Port, "api": router.APIPrefix})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.LogInfo("Shutting down", map[string]interface{}{"timeout": cfg.Server.ShutdownTimeout.String()})
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
