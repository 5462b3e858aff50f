package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/example/maktabati/pkg/events"
	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/query"
	"github.com/example/maktabati/pkg/repository/memory"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []any
}

func (r *recordedEvents) Publish(e any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordedEvents) all() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events...)
}

type testEnv struct {
	categories *memory.CategoryRepository
	products   *memory.ProductRepository
	orders     *memory.OrderRepository
	seq        *memory.SequenceRepository
	admins     *memory.AdminRepository
	events     *recordedEvents

	categorySvc *CategoryService
	productSvc  *ProductService
	orderSvc    *OrderService
	statsSvc    *StatsService
	seedSvc     *SeedService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	env := &testEnv{
		categories: memory.NewCategoryRepository(),
		products:   memory.NewProductRepository(),
		orders:     memory.NewOrderRepository(),
		seq:        memory.NewSequenceRepository(),
		admins:     memory.NewAdminRepository(),
		events:     &recordedEvents{},
	}
	env.categorySvc = NewCategoryService(env.categories, env.products, env.events, logger)
	env.productSvc = NewProductService(env.products, env.categories, nil, env.events, logger)
	env.orderSvc = NewOrderService(env.orders, env.products, env.seq, env.events, logger)
	env.statsSvc = NewStatsService(env.products, env.categories, env.orders)
	env.seedSvc = NewSeedService(env.categories, env.products, logger)
	return env
}

func (e *testEnv) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := e.categorySvc.Create(context.Background(), CategoryInput{Name: name}, "tester")
	require.NoError(t, err)
	return c
}

func (e *testEnv) product(t *testing.T, cat *models.Category, name string, price float64, stock int) *models.Product {
	t.Helper()
	p, err := e.productSvc.Create(context.Background(), ProductInput{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Category:    cat.ID.Hex(),
		Images:      []string{"https://cdn.example/" + name + ".jpg"},
		Stock:       stock,
	}, "tester")
	require.NoError(t, err)
	return p
}

func submission(items ...models.OrderItemSubmission) models.OrderSubmission {
	sub := models.OrderSubmission{
		Customer: models.Customer{Name: "Amina", City: "Rabat", Phone: "0612345678"},
		Items:    items,
	}
	for _, it := range items {
		sub.TotalAmount += it.Total
		sub.TotalItems += it.Quantity
	}
	return sub
}

func line(p *models.Product, qty int) models.OrderItemSubmission {
	return models.OrderItemSubmission{
		ProductID: p.ID.Hex(),
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  qty,
		Total:     money(p.Price).Mul(money(float64(qty))).Round(2).InexactFloat64(),
	}
}

func TestOrderService_SequentialOrderIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Stationery")
	p := env.product(t, cat, "Pen", 4.5, 1000)

	for k := 1; k <= 15; k++ {
		o, err := env.orderSvc.Create(ctx, submission(line(p, 1)))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("ORD-%06d", k), o.OrderID)
		assert.Equal(t, models.StatusPending, o.Status)
	}
}

func TestOrderService_ConcurrentOrdersGetDistinctIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Stationery")
	p := env.product(t, cat, "Pen", 4.5, 1000)

	const n = 40
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := env.orderSvc.Create(ctx, submission(line(p, 1)))
			if assert.NoError(t, err) {
				ids <- o.OrderID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen[fmt.Sprintf("ORD-%06d", n)])
}

func TestOrderService_SyncSequence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, env.orders.Create(ctx, &models.Order{OrderID: models.FormatOrderID(int64(i))}))
	}
	require.NoError(t, env.orderSvc.SyncSequence(ctx))

	cat := env.category(t, "Stationery")
	p := env.product(t, cat, "Pen", 4.5, 10)
	o, err := env.orderSvc.Create(ctx, submission(line(p, 1)))
	require.NoError(t, err)
	assert.Equal(t, "ORD-000004", o.OrderID)
}

func TestOrderService_CreateSnapshotsCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Textbooks")
	p := env.product(t, cat, "Algebra", 45.99, 25)

	o, err := env.orderSvc.Create(ctx, submission(line(p, 2)))
	require.NoError(t, err)
	assert.Equal(t, 91.98, o.TotalAmount)
	assert.Equal(t, 2, o.TotalItems)
	require.Len(t, o.Items, 1)
	assert.Equal(t, cat.ID, o.Items[0].CategoryID)

	page, err := env.orderSvc.List(ctx, query.OrderParams{Category: cat.ID.Hex()})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 1)

	other := env.category(t, "Bags")
	page, err = env.orderSvc.List(ctx, query.OrderParams{Category: other.ID.Hex()})
	require.NoError(t, err)
	assert.Empty(t, page.Orders)

	var placed []events.OrderPlaced
	for _, ev := range env.events.all() {
		if e, ok := ev.(events.OrderPlaced); ok {
			placed = append(placed, e)
		}
	}
	require.Len(t, placed, 1)
	assert.Equal(t, o.OrderID, placed[0].OrderID)
}

func TestOrderService_CreateRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Stationery")
	pen := env.product(t, cat, "Pen", 10, 5)
	hidden := env.product(t, cat, "Hidden", 10, 5)
	inactive := false
	_, err := env.productSvc.Update(ctx, hidden.ID.Hex(), ProductPatch{IsActive: &inactive}, "tester")
	require.NoError(t, err)

	tests := []struct {
		name  string
		sub   func() models.OrderSubmission
		field string
	}{
		{"missing customer", func() models.OrderSubmission {
			s := submission(line(pen, 1))
			s.Customer.City = "  "
			return s
		}, "customer"},
		{"bad phone", func() models.OrderSubmission {
			s := submission(line(pen, 1))
			s.Customer.Phone = "0512345678"
			return s
		}, "customer.phone"},
		{"no items", func() models.OrderSubmission { return submission() }, "items"},
		{"line total", func() models.OrderSubmission {
			it := line(pen, 2)
			it.Total = 19.99
			s := submission(it)
			return s
		}, "items[0].total"},
		{"order total", func() models.OrderSubmission {
			s := submission(line(pen, 1))
			s.TotalAmount = 11
			return s
		}, "totalAmount"},
		{"item count", func() models.OrderSubmission {
			s := submission(line(pen, 1))
			s.TotalItems = 3
			return s
		}, "totalItems"},
		{"stale price", func() models.OrderSubmission {
			it := line(pen, 1)
			it.Price, it.Total = 8, 8
			return submission(it)
		}, "items[0].price"},
		{"out of stock", func() models.OrderSubmission { return submission(line(pen, 6)) }, "items[0].quantity"},
		{"inactive product", func() models.OrderSubmission { return submission(line(hidden, 1)) }, "items[0]"},
		{"unknown product", func() models.OrderSubmission {
			it := line(pen, 1)
			it.ProductID = "not-an-id"
			return submission(it)
		}, "items[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orderSvc.Create(ctx, tt.sub())
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	n, err := env.orders.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type failingOrders struct {
	*memory.OrderRepository
}

func (f failingOrders) Create(ctx context.Context, o *models.Order) error {
	_ = f.OrderRepository.Create(ctx, &models.Order{OrderID: o.OrderID})
	return f.OrderRepository.Create(ctx, o)
}

func TestOrderService_DuplicateOrderIDIsSaveFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Stationery")
	p := env.product(t, cat, "Pen", 4.5, 10)

	svc := NewOrderService(failingOrders{env.orders}, env.products, env.seq, env.events, zaptest.NewLogger(t))
	_, err := svc.Create(ctx, submission(line(p, 1)))
	assert.ErrorIs(t, err, ErrOrderSave)
}

type unavailableOrders struct {
	*memory.OrderRepository
}

func (unavailableOrders) Create(context.Context, *models.Order) error {
	return errors.New("connection reset")
}

// A failed insert spends its sequence number; the next order skips it.
func TestOrderService_FailedInsertLeavesGap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Stationery")
	p := env.product(t, cat, "Pen", 4.5, 10)

	first, err := env.orderSvc.Create(ctx, submission(line(p, 1)))
	require.NoError(t, err)
	assert.Equal(t, "ORD-000001", first.OrderID)

	failing := NewOrderService(unavailableOrders{env.orders}, env.products, env.seq, env.events, zaptest.NewLogger(t))
	_, err = failing.Create(ctx, submission(line(p, 1)))
	require.ErrorIs(t, err, ErrOrderSave)
	n, err := env.orders.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	next, err := env.orderSvc.Create(ctx, submission(line(p, 1)))
	require.NoError(t, err)
	assert.Equal(t, "ORD-000003", next.OrderID)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Stationery")
	p := env.product(t, cat, "Pen", 4.5, 10)
	o, err := env.orderSvc.Create(ctx, submission(line(p, 1)))
	require.NoError(t, err)

	updated, err := env.orderSvc.UpdateStatus(ctx, o.ID.Hex(), "delivered", "root")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, updated.Status)

	// any status may follow any other
	updated, err = env.orderSvc.UpdateStatus(ctx, o.ID.Hex(), "pending", "root")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)

	_, err = env.orderSvc.UpdateStatus(ctx, o.ID.Hex(), "refunded", "root")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = env.orderSvc.UpdateStatus(ctx, "64b000000000000000000000", "shipped", "root")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_ListPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Stationery")
	p := env.product(t, cat, "Pen", 1, 1000)
	for i := 0; i < 25; i++ {
		_, err := env.orderSvc.Create(ctx, submission(line(p, 1)))
		require.NoError(t, err)
	}

	page, err := env.orderSvc.List(ctx, query.OrderParams{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 5)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)
	// default sort is newest first
	assert.Equal(t, "ORD-000005", page.Orders[0].OrderID)

	page, err = env.orderSvc.List(ctx, query.OrderParams{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Orders)
	assert.Equal(t, 9, page.Pagination.CurrentPage)
	assert.Equal(t, int64(25), page.Pagination.Total)

	page, err = env.orderSvc.List(ctx, query.OrderParams{Search: "ord-00002", SortBy: "orderId", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Orders, 6)
	assert.Equal(t, "ORD-000020", page.Orders[0].OrderID)

	_, err = env.orderSvc.List(ctx, query.OrderParams{Status: "lost"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "status", ve.Field)
}

func TestStatsService_Dashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Stationery")
	p := env.product(t, cat, "Pen", 10.25, 100)
	hidden := env.product(t, cat, "Old pen", 3, 100)
	inactive := false
	_, err := env.productSvc.Update(ctx, hidden.ID.Hex(), ProductPatch{IsActive: &inactive}, "tester")
	require.NoError(t, err)

	_, err = env.orderSvc.Create(ctx, submission(line(p, 2)))
	require.NoError(t, err)
	cancelled, err := env.orderSvc.Create(ctx, submission(line(p, 1)))
	require.NoError(t, err)
	_, err = env.orderSvc.UpdateStatus(ctx, cancelled.ID.Hex(), "cancelled", "root")
	require.NoError(t, err)

	stats, err := env.statsSvc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.TotalCategories)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, 20.5, stats.TotalRevenue)
}

func TestSeedService_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.seedSvc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, res.CategoriesCreated)
	assert.Equal(t, 6, res.ProductsCreated)

	res, err = env.seedSvc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.CategoriesCreated)
	assert.Zero(t, res.ProductsCreated)

	page, err := env.productSvc.List(ctx, query.ProductParams{Search: "calculator"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	require.NotNil(t, page.Products[0].Category)
	assert.Equal(t, "Calculators", page.Products[0].Category.Name)
}

func TestParseID_Malformed(t *testing.T) {
	_, err := parseID("xyz", ErrProductNotFound)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, "product not found", err.Error())
}
