package service

import (
	"context"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"kedaiku/backend/internal/cache"
	"kedaiku/backend/internal/domain"
	"kedaiku/backend/internal/metrics"
	"kedaiku/backend/internal/mirror"
	"kedaiku/backend/internal/pricing"
	"kedaiku/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const metricsCacheKey = "dashboard:metrics"

// Service owns the four entity mirrors and the derived-value computations on
// top of them. Every mutation goes remote first and patches the matching
// mirror on success; list reads serve the mirrors.
type Service struct {
	store        store.Store
	inventory    *mirror.Manager[domain.InventoryItem]
	addOns       *mirror.Manager[domain.AddOn]
	orders       *mirror.Manager[domain.Order]
	expenses     *mirror.Manager[domain.Expense]
	metricsCache cache.MetricsCache
	cacheTTL     time.Duration
	metricsOpts  metrics.Options
}

func New(st store.Store, metricsCache cache.MetricsCache, cacheTTL time.Duration, opts metrics.Options) *Service {
	if metricsCache == nil {
		metricsCache = cache.NoopMetricsCache{}
	}

	return &Service{
		store: st,
		inventory: mirror.New(st, mirror.Config[domain.InventoryItem]{
			Collection:  store.CollectionInventory,
			Decode:      domain.DecodeInventoryItem,
			ID:          func(i domain.InventoryItem) string { return i.ID },
			DisplayName: func(i domain.InventoryItem) string { return i.Name },
			Apply:       domain.ApplyInventoryPatch,
		}),
		addOns: mirror.New(st, mirror.Config[domain.AddOn]{
			Collection:  store.CollectionAddOns,
			Decode:      domain.DecodeAddOn,
			ID:          func(a domain.AddOn) string { return a.ID },
			DisplayName: func(a domain.AddOn) string { return a.Name },
			Apply:       domain.ApplyAddOnPatch,
		}),
		orders: mirror.New(st, mirror.Config[domain.Order]{
			Collection:      store.CollectionOrders,
			LoadQuery:       &store.Query{OrderBy: "order_date", Descending: true},
			PrependOnCreate: true,
			Decode:          domain.DecodeOrder,
			ID:              func(o domain.Order) string { return o.ID },
			DisplayName:     func(o domain.Order) string { return o.CustomerName },
			Apply:           domain.ApplyOrderPatch,
		}),
		expenses: mirror.New(st, mirror.Config[domain.Expense]{
			Collection:      store.CollectionExpenses,
			LoadQuery:       &store.Query{OrderBy: "date", Descending: true},
			PrependOnCreate: true,
			Decode:          domain.DecodeExpense,
			ID:              func(e domain.Expense) string { return e.ID },
			DisplayName:     func(e domain.Expense) string { return e.Name },
			Apply:           domain.ApplyExpensePatch,
		}),
		metricsCache: metricsCache,
		cacheTTL:     cacheTTL,
		metricsOpts:  opts,
	}
}

// coerceNumber parses raw form input the way the console always has: empty
// input is zero and anything non-numeric becomes NaN. Persisting NaN for bad
// input is a known open issue, reproduced rather than fixed so existing data
// and behavior stay consistent.
func coerceNumber(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN()
	}
	return parsed
}

func (s *Service) ListInventory(ctx context.Context, search string, refresh bool) ([]domain.InventoryItem, error) {
	if err := s.ensure(ctx, s.inventory.Load, s.inventory.EnsureLoaded, refresh); err != nil {
		return nil, err
	}
	return s.inventory.Search(search), nil
}

func (s *Service) CreateInventoryItem(ctx context.Context, req domain.InventoryCreateRequest) (domain.InventoryItem, error) {
	fields := map[string]any{
		"name":     req.Name,
		"quantity": coerceNumber(req.Quantity),
		"price":    coerceNumber(req.Price),
	}
	return s.inventory.Create(ctx, fields)
}

func (s *Service) UpdateInventoryItem(ctx context.Context, id string, req domain.InventoryUpdateRequest) (domain.InventoryItem, error) {
	patch := map[string]any{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Quantity != nil {
		patch["quantity"] = coerceNumber(*req.Quantity)
	}
	if req.Price != nil {
		patch["price"] = coerceNumber(*req.Price)
	}
	if len(patch) == 0 {
		return domain.InventoryItem{}, store.ErrInvalidEntity
	}
	return s.inventory.Update(ctx, id, patch)
}

func (s *Service) DeleteInventoryItem(ctx context.Context, id string) error {
	return s.inventory.Remove(ctx, id)
}

func (s *Service) ListAddOns(ctx context.Context, search string, refresh bool) ([]domain.AddOn, error) {
	if err := s.ensure(ctx, s.addOns.Load, s.addOns.EnsureLoaded, refresh); err != nil {
		return nil, err
	}
	return s.addOns.Search(search), nil
}

func (s *Service) CreateAddOn(ctx context.Context, req domain.AddOnCreateRequest) (domain.AddOn, error) {
	fields := map[string]any{
		"name":  req.Name,
		"value": coerceNumber(req.Value),
	}
	return s.addOns.Create(ctx, fields)
}

func (s *Service) UpdateAddOn(ctx context.Context, id string, req domain.AddOnUpdateRequest) (domain.AddOn, error) {
	patch := map[string]any{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Value != nil {
		patch["value"] = coerceNumber(*req.Value)
	}
	if len(patch) == 0 {
		return domain.AddOn{}, store.ErrInvalidEntity
	}
	return s.addOns.Update(ctx, id, patch)
}

func (s *Service) DeleteAddOn(ctx context.Context, id string) error {
	return s.addOns.Remove(ctx, id)
}

// loadLookups fetches the inventory and add-on snapshots concurrently and
// waits for both. A failure here does not stop the dependent orders fetch;
// orders then price against whatever did load, defaulting missing lookups to
// zero.
func (s *Service) loadLookups(ctx context.Context, refresh bool) error {
	var g errgroup.Group
	g.Go(func() error {
		return s.ensure(ctx, s.inventory.Load, s.inventory.EnsureLoaded, refresh)
	})
	g.Go(func() error {
		return s.ensure(ctx, s.addOns.Load, s.addOns.EnsureLoaded, refresh)
	})
	return g.Wait()
}

func (s *Service) ListOrders(ctx context.Context, search string, paymentFilter string, refresh bool) (domain.OrderListResponse, error) {
	lookupErr := s.loadLookups(ctx, refresh)
	if lookupErr != nil {
		log.Printf("[service] WARN: lookup fetch failed, listing orders against stale or empty caches: %v", lookupErr)
	}

	if err := s.ensure(ctx, s.orders.Load, s.orders.EnsureLoaded, refresh); err != nil {
		return domain.OrderListResponse{}, err
	}

	views := make([]domain.OrderView, 0, s.orders.Len())
	var grandTotal domain.Money
	for _, order := range s.orders.Search(search) {
		if paymentFilter != "" && paymentFilter != "all" && order.PaymentType != paymentFilter {
			continue
		}

		view := domain.OrderView{Order: order, ProductName: "Unknown"}
		var product *domain.InventoryItem
		if p, ok := s.inventory.Get(order.ProductID); ok {
			product = &p
			view.ProductName = p.Name
		}
		var addOn *domain.AddOn
		if order.AddOnID != "" {
			if a, ok := s.addOns.Get(order.AddOnID); ok {
				addOn = &a
				view.AddOnName = a.Name
			}
		}

		// Display totals are re-derived from current prices on every list;
		// they drift from the persisted TotalAmount when prices change after
		// order creation, and that is the expected behavior.
		view.LiveTotal = domain.Money(pricing.ComputeTotal(order.Quantity, product, addOn))
		grandTotal += view.LiveTotal
		views = append(views, view)
	}

	resp := domain.OrderListResponse{Orders: views, GrandTotal: grandTotal}
	if lookupErr != nil {
		resp.LookupError = lookupErr.Error()
	}
	return resp, nil
}

func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.Order, error) {
	if strings.TrimSpace(req.ProductID) == "" {
		return domain.Order{}, store.ErrInvalidEntity
	}
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	// Best effort: a failed lookup load prices the order with the
	// default-to-zero policy rather than refusing it.
	if err := s.loadLookups(ctx, false); err != nil {
		log.Printf("[service] WARN: lookup fetch failed while pricing order: %v", err)
	}

	var product *domain.InventoryItem
	if p, ok := s.inventory.Get(req.ProductID); ok {
		product = &p
	}
	var addOn *domain.AddOn
	if req.AddOnID != "" {
		if a, ok := s.addOns.Get(req.AddOnID); ok {
			addOn = &a
		}
	}

	fields := map[string]any{
		"customer_name": req.CustomerName,
		"room_number":   req.RoomNumber,
		"product_id":    req.ProductID,
		"quantity":      quantity,
		"add_on_id":     req.AddOnID,
		"payment_type":  req.PaymentType,
		"order_type":    req.OrderType,
		"status":        domain.StatusPending,
		"order_date":    time.Now().UTC(),
		"totalAmount":   pricing.ComputeTotal(quantity, product, addOn),
	}
	return s.orders.Create(ctx, fields)
}

// UpdateOrderStatus is the only mutation an order supports after creation;
// every other field is write-once.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status string) (domain.Order, error) {
	if !domain.ValidStatus(status) {
		return domain.Order{}, store.ErrInvalidEntity
	}
	return s.orders.Update(ctx, id, map[string]any{"status": status})
}

func (s *Service) ListExpenses(ctx context.Context, search string, refresh bool) (domain.ExpenseListResponse, error) {
	if err := s.ensure(ctx, s.expenses.Load, s.expenses.EnsureLoaded, refresh); err != nil {
		return domain.ExpenseListResponse{}, err
	}

	filtered := s.expenses.Search(search)
	var total domain.Money
	for _, expense := range filtered {
		total += expense.Price
	}
	return domain.ExpenseListResponse{Expenses: filtered, Total: total}, nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	date, err := parseExpenseDate(req.Date)
	if err != nil {
		return domain.Expense{}, store.ErrInvalidEntity
	}
	fields := map[string]any{
		"name":  req.Name,
		"price": coerceNumber(req.Price),
		"date":  date,
	}
	return s.expenses.Create(ctx, fields)
}

func (s *Service) UpdateExpense(ctx context.Context, id string, req domain.ExpenseUpdateRequest) (domain.Expense, error) {
	patch := map[string]any{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Price != nil {
		patch["price"] = coerceNumber(*req.Price)
	}
	if req.Date != nil {
		date, err := parseExpenseDate(*req.Date)
		if err != nil {
			return domain.Expense{}, store.ErrInvalidEntity
		}
		patch["date"] = date
	}
	if len(patch) == 0 {
		return domain.Expense{}, store.ErrInvalidEntity
	}
	return s.expenses.Update(ctx, id, patch)
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	return s.expenses.Remove(ctx, id)
}

// Dashboard aggregates fresh full snapshots straight from the store; the
// entity mirrors are untouched so the list screens keep their own state. The
// computed metrics are cached briefly, recent orders are always fresh.
func (s *Service) Dashboard(ctx context.Context) (domain.DashboardResponse, error) {
	recent, err := s.recentOrders(ctx, 5)
	if err != nil {
		return domain.DashboardResponse{}, err
	}

	if snapshot, ok, err := s.metricsCache.Get(ctx, metricsCacheKey); err != nil {
		log.Printf("[service] WARN: metrics cache read failed: %v", err)
	} else if ok {
		return domain.DashboardResponse{Metrics: *snapshot, RecentOrders: recent}, nil
	}

	orderDocs, err := s.store.ReadAll(ctx, store.CollectionOrders)
	if err != nil {
		return domain.DashboardResponse{}, &mirror.FetchError{Collection: store.CollectionOrders, Err: err}
	}
	expenseDocs, err := s.store.ReadAll(ctx, store.CollectionExpenses)
	if err != nil {
		return domain.DashboardResponse{}, &mirror.FetchError{Collection: store.CollectionExpenses, Err: err}
	}
	inventoryDocs, err := s.store.ReadAll(ctx, store.CollectionInventory)
	if err != nil {
		return domain.DashboardResponse{}, &mirror.FetchError{Collection: store.CollectionInventory, Err: err}
	}

	orders := make([]domain.Order, 0, len(orderDocs))
	for _, doc := range orderDocs {
		orders = append(orders, domain.DecodeOrder(doc))
	}
	expenses := make([]domain.Expense, 0, len(expenseDocs))
	for _, doc := range expenseDocs {
		expenses = append(expenses, domain.DecodeExpense(doc))
	}
	inventory := make([]domain.InventoryItem, 0, len(inventoryDocs))
	for _, doc := range inventoryDocs {
		inventory = append(inventory, domain.DecodeInventoryItem(doc))
	}

	snapshot := metrics.Summarize(orders, expenses, inventory, s.metricsOpts)
	if err := s.metricsCache.Set(ctx, metricsCacheKey, &snapshot, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: metrics cache write failed: %v", err)
	}

	return domain.DashboardResponse{Metrics: snapshot, RecentOrders: recent}, nil
}

func (s *Service) recentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	docs, err := s.store.ReadQuery(ctx, store.CollectionOrders, store.Query{
		OrderBy:    "order_date",
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, &mirror.FetchError{Collection: store.CollectionOrders, Err: err}
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, domain.DecodeOrder(doc))
	}
	return orders, nil
}

func (s *Service) ensure(ctx context.Context, load func(context.Context) error, ensureLoaded func(context.Context) error, refresh bool) error {
	if refresh {
		return load(ctx)
	}
	return ensureLoaded(ctx)
}

func parseExpenseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Now().UTC(), nil
	}
	if parsed, err := time.Parse("2006-01-02", trimmed); err == nil {
		return parsed.UTC(), nil
	}
	return time.Parse(time.RFC3339, trimmed)
}
