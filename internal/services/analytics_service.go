package services

import (
	"context"
	"sort"
	"time"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// DefaultTopItems is how many items the sales dashboard ranks when no limit is given.
const DefaultTopItems = 5

// AnalyticsService computes dashboard rollups on demand from stored orders.
type AnalyticsService interface {
	SalesAnalytics(ctx context.Context, scope models.TenantScope, topN int) (*models.SalesAnalytics, error)
	PlatformAnalytics(ctx context.Context, principal models.Principal) (*models.PlatformAnalytics, error)
}

type analyticsService struct {
	orders   repositories.OrderRepository
	tenants  repositories.TenantRepository
	location *time.Location
	now      func() time.Time
}

// NewAnalyticsService creates a new instance of AnalyticsService.
func NewAnalyticsService(or repositories.OrderRepository, tr repositories.TenantRepository, loc *time.Location) AnalyticsService {
	return &analyticsService{orders: or, tenants: tr, location: loc, now: time.Now}
}

// Summarize rolls orders up into the sales dashboard figures.
// Windows count completed orders only; "today" starts at midnight in loc.
func Summarize(orders []models.Order, now time.Time, loc *time.Location, topN int) models.SalesAnalytics {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)

	stats := models.SalesAnalytics{
		TotalOrders: len(orders),
		Completed:   models.RevenueBucket{Revenue: decimal.Zero},
		Cancelled:   models.RevenueBucket{Revenue: decimal.Zero},
		Today:       models.WindowStats{Revenue: decimal.Zero},
		Week:        models.WindowStats{Revenue: decimal.Zero},
		Month:       models.WindowStats{Revenue: decimal.Zero},
	}

	type tally struct {
		quantity int
		orders   int
	}
	items := map[string]*tally{}

	for _, o := range orders {
		switch o.Status {
		case models.StatusCompleted:
			stats.Completed.Count++
			stats.Completed.Revenue = stats.Completed.Revenue.Add(o.Total)
			if !o.CreatedAt.Before(midnight) {
				stats.Today.Orders++
				stats.Today.Revenue = stats.Today.Revenue.Add(o.Total)
			}
			if !o.CreatedAt.Before(weekAgo) {
				stats.Week.Orders++
				stats.Week.Revenue = stats.Week.Revenue.Add(o.Total)
			}
			if !o.CreatedAt.Before(monthAgo) {
				stats.Month.Orders++
				stats.Month.Revenue = stats.Month.Revenue.Add(o.Total)
			}
		case models.StatusCancelled:
			stats.Cancelled.Count++
			stats.Cancelled.Revenue = stats.Cancelled.Revenue.Add(o.Total)
		case models.StatusPending:
			stats.Pending.Count++
		case models.StatusConfirmed:
			stats.Confirmed.Count++
		}

		seen := map[string]bool{}
		for _, item := range o.Items {
			t, ok := items[item.Name]
			if !ok {
				t = &tally{}
				items[item.Name] = t
			}
			t.quantity += item.Quantity
			if !seen[item.Name] {
				seen[item.Name] = true
				t.orders++
			}
		}
	}

	stats.TopItems = make([]models.ItemFrequency, 0, len(items))
	for name, t := range items {
		stats.TopItems = append(stats.TopItems, models.ItemFrequency{Name: name, Quantity: t.quantity, Orders: t.orders})
	}
	sort.Slice(stats.TopItems, func(i, j int) bool {
		a, b := stats.TopItems[i], stats.TopItems[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if topN > 0 && len(stats.TopItems) > topN {
		stats.TopItems = stats.TopItems[:topN]
	}
	return stats
}

func (s *analyticsService) SalesAnalytics(ctx context.Context, scope models.TenantScope, topN int) (*models.SalesAnalytics, error) {
	if topN <= 0 {
		topN = DefaultTopItems
	}
	loc := s.location
	if !scope.All() {
		tenant, err := s.tenants.GetTenantByID(ctx, scope, scope.TenantID)
		if err != nil {
			return nil, mapRepoError(err, "restaurant "+scope.TenantID)
		}
		loc = tenant.Location(s.location)
	}

	orders, _, err := s.orders.GetOrders(ctx, scope, models.OrderFilters{})
	if err != nil {
		return nil, mapRepoError(err, "orders")
	}
	stats := Summarize(orders, s.now(), loc, topN)
	return &stats, nil
}

func (s *analyticsService) PlatformAnalytics(ctx context.Context, principal models.Principal) (*models.PlatformAnalytics, error) {
	if !principal.IsPlatformOperator() {
		return nil, ErrUnauthorized
	}
	restaurants, err := s.tenants.CountTenants(ctx)
	if err != nil {
		return nil, mapRepoError(err, "restaurants")
	}
	orders, _, err := s.orders.GetOrders(ctx, models.ScopeAll(), models.OrderFilters{})
	if err != nil {
		return nil, mapRepoError(err, "orders")
	}

	stats := Summarize(orders, s.now(), s.location, 0)
	return &models.PlatformAnalytics{
		TotalRestaurants: restaurants,
		TotalOrders:      stats.TotalOrders,
		CompletedOrders:  stats.Completed.Count,
		CancelledOrders:  stats.Cancelled.Count,
		PendingOrders:    stats.Pending.Count,
		TotalRevenue:     stats.Completed.Revenue,
		CancelledRevenue: stats.Cancelled.Revenue,
	}, nil
}
