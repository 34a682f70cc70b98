package models

import "github.com/shopspring/decimal"

// RevenueBucket is an order count with the summed totals of those orders.
type RevenueBucket struct {
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// CountBucket is an order count without revenue.
type CountBucket struct {
	Count int `json:"count"`
}

// WindowStats covers completed orders created inside a trailing time window.
type WindowStats struct {
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ItemFrequency ranks a line-item name by how often it was ordered.
type ItemFrequency struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Orders   int    `json:"orders"`
}

// SalesAnalytics holds the dashboard rollups for one tenant (or all tenants).
type SalesAnalytics struct {
	TotalOrders int             `json:"total_orders"`
	Completed   RevenueBucket   `json:"completed"`
	Cancelled   RevenueBucket   `json:"cancelled"`
	Pending     CountBucket     `json:"pending"`
	Confirmed   CountBucket     `json:"confirmed"`
	Today       WindowStats     `json:"today"`
	Week        WindowStats     `json:"week"`
	Month       WindowStats     `json:"month"`
	TopItems    []ItemFrequency `json:"top_items"`
}

// PlatformAnalytics is the platform operator's cross-tenant summary.
type PlatformAnalytics struct {
	TotalRestaurants int             `json:"total_restaurants"`
	TotalOrders      int             `json:"total_orders"`
	CompletedOrders  int             `json:"completed_orders"`
	CancelledOrders  int             `json:"cancelled_orders"`
	PendingOrders    int             `json:"pending_orders"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	CancelledRevenue decimal.Decimal `json:"cancelled_revenue"`
}
