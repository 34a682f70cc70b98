package router

import (
	"net/http"

	"phone_ordering_backend/internal/handlers"
	"phone_ordering_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Access is the authentication class of a route.
type Access int

const (
	// Public routes need no credentials.
	Public Access = iota
	// Webhook routes are called by the voice agent, telephony or payment provider with a shared secret.
	Webhook
	// Authenticated routes need a bearer token; data is scoped to the caller's restaurant.
	Authenticated
	// Operator routes are reserved for the platform operator.
	Operator
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Webhook:
		return "webhook"
	case Authenticated:
		return "authenticated"
	case Operator:
		return "operator"
	}
	return "unknown"
}

// Route is one entry of the route table. Roles apply to Authenticated and Operator routes.
type Route struct {
	Method  string
	Path    string
	Access  Access
	Roles   []string
	Handler gin.HandlerFunc
	// Secret overrides the default webhook secret for Webhook routes.
	Secret string
}

// Handlers groups every handler the route table binds.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Restaurant *handlers.RestaurantHandler
	Menu       *handlers.MenuHandler
	Order      *handlers.OrderHandler
	Analytics  *handlers.AnalyticsHandler
	Voice      *handlers.VoiceHandler
	Payment    *handlers.PaymentHandler
}

var (
	anyRole      = []string{models.RoleSuperAdmin, models.RoleRestaurantOwner}
	operatorOnly = []string{models.RoleSuperAdmin}
)

// Routes builds the route table below /api/v1.
func Routes(h Handlers, paymentSecret string) []Route {
	authed := func(method, path string, fn gin.HandlerFunc) Route {
		return Route{Method: method, Path: path, Access: Authenticated, Roles: anyRole, Handler: fn}
	}
	operator := func(method, path string, fn gin.HandlerFunc) Route {
		return Route{Method: method, Path: path, Access: Operator, Roles: operatorOnly, Handler: fn}
	}

	return []Route{
		{Method: http.MethodPost, Path: "/auth/login", Access: Public, Handler: h.Auth.Login},

		{Method: http.MethodPost, Path: "/voice/tools", Access: Webhook, Handler: h.Voice.ToolCalls},
		{Method: http.MethodPost, Path: "/voice/calls/inbound", Access: Webhook, Handler: h.Voice.InboundCall},
		{Method: http.MethodPost, Path: "/voice/calls/no-answer", Access: Webhook, Handler: h.Voice.NoAnswer},
		{Method: http.MethodPost, Path: "/webhooks/payments", Access: Webhook, Handler: h.Payment.PaymentWebhook, Secret: paymentSecret},

		authed(http.MethodGet, "/auth/session", h.Auth.Session),
		authed(http.MethodPost, "/auth/logout", h.Auth.Logout),

		authed(http.MethodGet, "/menu/categories", h.Menu.GetCategories),
		authed(http.MethodPost, "/menu/categories", h.Menu.CreateCategory),
		authed(http.MethodPut, "/menu/categories/:id", h.Menu.UpdateCategory),
		authed(http.MethodDelete, "/menu/categories/:id", h.Menu.DeleteCategory),
		authed(http.MethodGet, "/menu/items", h.Menu.GetItems),
		authed(http.MethodPost, "/menu/items", h.Menu.CreateItem),
		authed(http.MethodPut, "/menu/items/:id", h.Menu.UpdateItem),
		authed(http.MethodDelete, "/menu/items/:id", h.Menu.DeleteItem),

		authed(http.MethodGet, "/orders", h.Order.GetOrders),
		authed(http.MethodPost, "/orders", h.Order.CreateOrder),
		authed(http.MethodGet, "/orders/:id", h.Order.GetOrderByID),
		authed(http.MethodPatch, "/orders/:id", h.Order.UpdateOrder),
		authed(http.MethodPut, "/orders/:id/status", h.Order.UpdateOrderStatus),

		authed(http.MethodGet, "/sales/analytics", h.Analytics.GetSalesAnalytics),
		authed(http.MethodGet, "/restaurant/settings", h.Restaurant.GetSettings),
		authed(http.MethodPut, "/restaurant/settings", h.Restaurant.UpdateSettings),

		operator(http.MethodGet, "/super-admin/restaurants", h.Restaurant.ListRestaurants),
		operator(http.MethodPost, "/super-admin/restaurants", h.Restaurant.CreateRestaurant),
		operator(http.MethodGet, "/super-admin/restaurants/:id", h.Restaurant.GetRestaurant),
		operator(http.MethodPut, "/super-admin/restaurants/:id", h.Restaurant.UpdateRestaurant),
		operator(http.MethodDelete, "/super-admin/restaurants/:id", h.Restaurant.DeleteRestaurant),
		operator(http.MethodGet, "/super-admin/analytics", h.Analytics.GetPlatformAnalytics),
	}
}
