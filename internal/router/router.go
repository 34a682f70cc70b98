package router

import (
	"context"
	"net/http"
	"time"

	"phone_ordering_backend/internal/metrics"
	"phone_ordering_backend/internal/middleware"
	"phone_ordering_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// APIPrefix is where the route table is mounted.
const APIPrefix = "/api/v1"

// Options configures Setup.
type Options struct {
	Tokens        *utils.TokenManager
	WebhookSecret string
	PaymentSecret string
	// Health reports whether the backing store is reachable. Nil means always healthy.
	Health func(ctx context.Context) error
}

// Setup registers the infrastructure endpoints and the route table on engine.
func Setup(engine *gin.Engine, h Handlers, opts Options) {
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	engine.GET("/health", healthHandler(opts.Health))
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiV1 := engine.Group(APIPrefix)
	auth := middleware.AuthMiddleware(opts.Tokens)
	for _, r := range Routes(h, opts.PaymentSecret) {
		apiV1.Handle(r.Method, r.Path, chain(r, auth, opts.WebhookSecret)...)
	}
}

func chain(r Route, auth gin.HandlerFunc, webhookSecret string) []gin.HandlerFunc {
	switch r.Access {
	case Webhook:
		secret := webhookSecret
		if r.Secret != "" {
			secret = r.Secret
		}
		return []gin.HandlerFunc{middleware.WebhookSecretMiddleware(secret), r.Handler}
	case Authenticated, Operator:
		return []gin.HandlerFunc{auth, middleware.RoleAuthMiddleware(r.Roles...), r.Handler}
	}
	return []gin.HandlerFunc{r.Handler}
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				utils.LogWarn("Health check failed", map[string]interface{}{"error": err.Error()})
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
