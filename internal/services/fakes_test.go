package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"phone_ordering_backend/internal/events"
	"phone_ordering_backend/internal/integrations"
	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for every repository the services use.
type memStore struct {
	mu         sync.Mutex
	tenants    map[string]*models.Tenant
	categories map[string]*models.MenuCategory
	items      map[string]*models.MenuItem
	orders     map[string]*models.Order
	printJobs  map[string]*models.PrintJob
	users      map[string]*models.User

	// duplicateOrderNumbers makes CreateOrder fail with ErrDuplicateKey this many times.
	duplicateOrderNumbers int
	// beforeStatusUpdate runs just before the guarded status update.
	beforeStatusUpdate func(orderID string)
	seq                int
}

func newMemStore() *memStore {
	return &memStore{
		tenants:    map[string]*models.Tenant{},
		categories: map[string]*models.MenuCategory{},
		items:      map[string]*models.MenuItem{},
		orders:     map[string]*models.Order{},
		printJobs:  map[string]*models.PrintJob{},
		users:      map[string]*models.User{},
	}
}

func (m *memStore) nextTime() time.Time {
	m.seq++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second)
}

func (m *memStore) addTenant(t models.Tenant) *models.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	m.tenants[t.ID] = &t
	cp := t
	return &cp
}

func (m *memStore) addCategory(c models.MenuCategory) models.MenuCategory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = m.nextTime()
	m.categories[c.ID] = &c
	return c
}

func (m *memStore) addItem(i models.MenuItem) models.MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	i.CreatedAt = m.nextTime()
	m.items[i.ID] = &i
	return i
}

func (m *memStore) addOrder(o models.Order) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	m.orders[o.ID] = copyOrder(&o)
	return copyOrder(&o)
}

func (m *memStore) orderCount(tenantID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.orders {
		if o.TenantID == tenantID {
			n++
		}
	}
	return n
}

func (m *memStore) jobsFor(orderID string) []models.PrintJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var jobs []models.PrintJob
	for _, j := range m.printJobs {
		if j.OrderID == orderID {
			jobs = append(jobs, *j)
		}
	}
	return jobs
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.LineItem{}, o.Items...)
	return &cp
}

// --- TenantRepository ---

func (m *memStore) CreateTenant(ctx context.Context, executor repositories.SQLExecutor, tenant *models.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tenant.VoiceLineID != nil {
		for _, t := range m.tenants {
			if t.VoiceLineID != nil && *t.VoiceLineID == *tenant.VoiceLineID {
				return repositories.ErrDuplicateKey
			}
		}
	}
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	cp := *tenant
	m.tenants[tenant.ID] = &cp
	return nil
}

func (m *memStore) GetTenantByID(ctx context.Context, scope models.TenantScope, id string) (*models.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok || !scope.Allows(id) {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) GetTenantByVoiceLine(ctx context.Context, lineID string) (*models.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if t.VoiceLineID != nil && *t.VoiceLineID == lineID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memStore) ListTenants(ctx context.Context, scope models.TenantScope) ([]models.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.Tenant{}
	for _, t := range m.tenants {
		if scope.Allows(t.ID) {
			list = append(list, *t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (m *memStore) ListTenantsWithStats(ctx context.Context) ([]models.TenantWithStats, error) {
	tenants, _ := m.ListTenants(ctx, models.ScopeAll())
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.TenantWithStats{}
	for _, t := range tenants {
		if t.IsSystem {
			continue
		}
		stats := models.TenantStats{TotalRevenue: decimal.Zero}
		for _, o := range m.orders {
			if o.TenantID != t.ID {
				continue
			}
			stats.TotalOrders++
			if o.Status == models.StatusCompleted {
				stats.TotalRevenue = stats.TotalRevenue.Add(o.Total)
			}
		}
		list = append(list, models.TenantWithStats{Tenant: t, Stats: stats})
	}
	return list, nil
}

func (m *memStore) CountTenants(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tenants {
		if !t.IsSystem {
			n++
		}
	}
	return n, nil
}

func (m *memStore) UpdateTenant(ctx context.Context, executor repositories.SQLExecutor, tenant *models.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[tenant.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *tenant
	m.tenants[tenant.ID] = &cp
	return nil
}

func (m *memStore) SetOnlineStatus(ctx context.Context, id string, online bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.IsOnline = online
	if online {
		t.LastLoginAt = &at
	}
	return nil
}

func (m *memStore) DeleteTenant(ctx context.Context, executor repositories.SQLExecutor, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.tenants, id)
	return nil
}

// --- MenuRepository ---

func (m *memStore) CreateCategory(ctx context.Context, category *models.MenuCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	category.ID = uuid.NewString()
	category.CreatedAt = m.nextTime()
	cp := *category
	m.categories[category.ID] = &cp
	return nil
}

func (m *memStore) GetCategoryByID(ctx context.Context, scope models.TenantScope, id string) (*models.MenuCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || !scope.Allows(c.TenantID) {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListCategories(ctx context.Context, scope models.TenantScope) ([]models.MenuCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.MenuCategory{}
	for _, c := range m.categories {
		if scope.Allows(c.TenantID) {
			list = append(list, *c)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].DisplayOrder != list[j].DisplayOrder {
			return list[i].DisplayOrder < list[j].DisplayOrder
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (m *memStore) UpdateCategory(ctx context.Context, category *models.MenuCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.categories[category.ID]
	if !ok || existing.TenantID != category.TenantID {
		return repositories.ErrNotFound
	}
	cp := *category
	m.categories[category.ID] = &cp
	return nil
}

func (m *memStore) DeleteCategory(ctx context.Context, scope models.TenantScope, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || !scope.Allows(c.TenantID) {
		return repositories.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memStore) CreateItem(ctx context.Context, item *models.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = uuid.NewString()
	item.CreatedAt = m.nextTime()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memStore) GetItemByID(ctx context.Context, scope models.TenantScope, id string) (*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[id]
	if !ok || !scope.Allows(i.TenantID) {
		return nil, repositories.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (m *memStore) ListItems(ctx context.Context, scope models.TenantScope, filters models.MenuItemFilters) ([]models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.MenuItem{}
	for _, i := range m.items {
		if !scope.Allows(i.TenantID) {
			continue
		}
		if filters.AvailableOnly && !i.Available {
			continue
		}
		if filters.CategoryID != nil && (i.CategoryID == nil || *i.CategoryID != *filters.CategoryID) {
			continue
		}
		list = append(list, *i)
	}
	sort.Slice(list, func(a, b int) bool {
		if list[a].Name != list[b].Name {
			return list[a].Name < list[b].Name
		}
		return list[a].CreatedAt.Before(list[b].CreatedAt)
	})
	return list, nil
}

func (m *memStore) UpdateItem(ctx context.Context, item *models.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[item.ID]
	if !ok || existing.TenantID != item.TenantID {
		return repositories.ErrNotFound
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memStore) DeleteItem(ctx context.Context, scope models.TenantScope, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[id]
	if !ok || !scope.Allows(i.TenantID) {
		return repositories.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memStore) DeleteMenuByTenant(ctx context.Context, executor repositories.SQLExecutor, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, i := range m.items {
		if i.TenantID == tenantID {
			delete(m.items, id)
		}
	}
	for id, c := range m.categories {
		if c.TenantID == tenantID {
			delete(m.categories, id)
		}
	}
	return nil
}

// --- OrderRepository ---

func (m *memStore) CreateOrder(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.duplicateOrderNumbers > 0 {
		m.duplicateOrderNumbers--
		return repositories.ErrDuplicateKey
	}
	for _, o := range m.orders {
		if o.TenantID == order.TenantID && o.OrderNumber == order.OrderNumber {
			return repositories.ErrDuplicateKey
		}
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.NewString()
		}
		order.Items[i].OrderID = order.ID
	}
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *memStore) GetOrderByID(ctx context.Context, scope models.TenantScope, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || !scope.Allows(o.TenantID) {
		return nil, repositories.ErrNotFound
	}
	return copyOrder(o), nil
}

func (m *memStore) GetOrders(ctx context.Context, scope models.TenantScope, filters models.OrderFilters) ([]models.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []models.Order{}
	for _, o := range m.orders {
		if !scope.Allows(o.TenantID) {
			continue
		}
		if filters.Status != nil && o.Status != *filters.Status {
			continue
		}
		if filters.Source != nil && o.Source != *filters.Source {
			continue
		}
		list = append(list, *copyOrder(o))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	total := len(list)
	if filters.PageSize > 0 {
		start := (filters.Page - 1) * filters.PageSize
		if start > len(list) {
			start = len(list)
		}
		end := start + filters.PageSize
		if end > len(list) {
			end = len(list)
		}
		list = list[start:end]
	}
	return list, total, nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, executor repositories.SQLExecutor, orderID string, from, to models.OrderStatus, updatedAt time.Time) error {
	if m.beforeStatusUpdate != nil {
		m.beforeStatusUpdate(orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	if o.Status != from {
		return repositories.ErrStaleStatus
	}
	o.Status = to
	o.UpdatedAt = updatedAt
	return nil
}

func (m *memStore) UpdateOrderDetails(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[order.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.UpdatedAt = m.nextTime()
	o.CustomerName = order.CustomerName
	o.CustomerPhone = order.CustomerPhone
	o.DeliveryAddress = order.DeliveryAddress
	o.Notes = order.Notes
	o.PaymentStatus = order.PaymentStatus
	o.UpdatedAt = order.UpdatedAt
	return nil
}

func (m *memStore) SetPaymentLink(ctx context.Context, orderID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	o.PaymentLinkURL = &url
	return nil
}

func (m *memStore) DeleteOrdersByTenant(ctx context.Context, executor repositories.SQLExecutor, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, j := range m.printJobs {
		if j.TenantID == tenantID {
			delete(m.printJobs, id)
		}
	}
	for id, o := range m.orders {
		if o.TenantID == tenantID {
			delete(m.orders, id)
		}
	}
	return nil
}

func (m *memStore) ReplaceOrderItems(ctx context.Context, executor repositories.SQLExecutor, orderID string, items []models.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	o.Items = append([]models.LineItem{}, items...)
	return nil
}

// --- PrintJobRepository ---

func (m *memStore) CreatePrintJob(ctx context.Context, executor repositories.SQLExecutor, job *models.PrintJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.IdempotencyKey != nil {
		for _, j := range m.printJobs {
			if j.OrderID == job.OrderID && j.IdempotencyKey != nil && *j.IdempotencyKey == *job.IdempotencyKey {
				return repositories.ErrDuplicateKey
			}
		}
	}
	job.ID = uuid.NewString()
	if job.Status == "" {
		job.Status = models.PrintJobQueued
	}
	cp := *job
	m.printJobs[job.ID] = &cp
	return nil
}

func (m *memStore) FindPrintJobByKey(ctx context.Context, executor repositories.SQLExecutor, orderID, idempotencyKey string) (*models.PrintJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.printJobs {
		if j.OrderID == orderID && j.IdempotencyKey != nil && *j.IdempotencyKey == idempotencyKey {
			cp := *j
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memStore) ListPrintJobsByOrder(ctx context.Context, orderID string) ([]models.PrintJob, error) {
	return m.jobsFor(orderID), nil
}

func (m *memStore) RecordDispatch(ctx context.Context, jobID string, status models.PrintJobStatus, externalJobID, errMsg *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.printJobs[jobID]
	if !ok {
		return repositories.ErrNotFound
	}
	j.Status, j.ExternalJobID, j.Error = status, externalJobID, errMsg
	return nil
}

// --- AuthRepository ---

func (m *memStore) CreateUser(ctx context.Context, executor repositories.SQLExecutor, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range m.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateKey
		}
	}
	user.ID = uuid.NewString()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memStore) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) DeleteUsersByTenant(ctx context.Context, executor repositories.SQLExecutor, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.TenantID != nil && *u.TenantID == tenantID {
			delete(m.users, id)
		}
	}
	return nil
}

// fakeTx runs the callback directly; the memStore has no rollback.
type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

// --- integrations and events ---

type sentMessage struct{ to, text string }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, to, text string) (*integrations.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, text: text})
	return &integrations.Receipt{ID: "sms_1", Status: "queued"}, nil
}

type fakeLinker struct {
	calls int
	err   error
}

func (f *fakeLinker) CreateLink(ctx context.Context, orderID string, amount decimal.Decimal) (*integrations.PaymentLink, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &integrations.PaymentLink{URL: "https://pay.example/" + orderID, LinkID: "plink_" + orderID}, nil
}

type fakePrinter struct {
	printed []string
	err     error
}

func (f *fakePrinter) Print(ctx context.Context, orderID string) (*integrations.PrintReceipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.printed = append(f.printed, orderID)
	return &integrations.PrintReceipt{JobID: "print_" + orderID}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var errUpstreamDown = errors.New("upstream down")

// harness wires every service over one memStore.
type harness struct {
	store     *memStore
	tx        *fakeTx
	notifier  *fakeNotifier
	linker    *fakeLinker
	printer   *fakePrinter
	publisher *recordingPublisher

	tenants TenantService
	menu    MenuService
	orders  *orderService
	voice   VoiceToolService
}

func newHarness() *harness {
	h := &harness{
		store:     newMemStore(),
		tx:        &fakeTx{},
		notifier:  &fakeNotifier{},
		linker:    &fakeLinker{},
		printer:   &fakePrinter{},
		publisher: &recordingPublisher{},
	}
	h.tenants = NewTenantService(h.store, h.store, h.store, h.store, h.tx)
	h.menu = NewMenuService(h.store)
	h.orders = NewOrderService(OrderDeps{
		Tenants:        h.store,
		Orders:         h.store,
		PrintJobs:      h.store,
		Tx:             h.tx,
		Integrations:   integrations.Set{Notifier: h.notifier, PaymentLinker: h.linker, Printer: h.printer},
		Events:         h.publisher,
		CurrencySymbol: "£",
	}).(*orderService)
	h.voice = NewVoiceToolService(h.tenants, h.menu, h.orders, "", "£")
	return h
}

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
