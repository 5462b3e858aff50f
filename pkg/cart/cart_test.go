package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/repository/memory"
)

func product(name string, price float64, stock int) models.Product {
	return models.Product{ID: primitive.NewObjectID(), Name: name, Price: price, Stock: stock, IsActive: true}
}

func openStore(t *testing.T, storage Storage) *Store {
	t.Helper()
	s, err := Open(context.Background(), "maktabati_cart:test", storage, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func TestStore_AddSameProductTwice(t *testing.T) {
	s := openStore(t, memory.NewCartStorage())
	ctx := context.Background()
	pen := product("Pen", 3, 10)

	require.NoError(t, s.Add(ctx, pen))
	require.NoError(t, s.Add(ctx, pen))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestStore_AddOutOfStockIsNoop(t *testing.T) {
	s := openStore(t, memory.NewCartStorage())
	require.NoError(t, s.Add(context.Background(), product("Gone", 3, 0)))
	assert.Empty(t, s.Lines())
}

func TestStore_SetQuantity(t *testing.T) {
	ctx := context.Background()
	pen := product("Pen", 3, 4)

	for _, n := range []int{0, -5} {
		s := openStore(t, memory.NewCartStorage())
		require.NoError(t, s.Add(ctx, pen))
		require.NoError(t, s.SetQuantity(ctx, pen.ID.Hex(), n))
		assert.Empty(t, s.Lines(), "n=%d", n)
	}

	s := openStore(t, memory.NewCartStorage())
	require.NoError(t, s.Add(ctx, pen))
	require.NoError(t, s.SetQuantity(ctx, pen.ID.Hex(), 99))
	assert.Equal(t, 4, s.Lines()[0].Quantity)

	require.NoError(t, s.SetQuantity(ctx, pen.ID.Hex(), 3))
	assert.Equal(t, 3, s.Lines()[0].Quantity)

	require.NoError(t, s.SetQuantity(ctx, "missing", 3))
	assert.Len(t, s.Lines(), 1)
}

func TestStore_Totals(t *testing.T) {
	s := openStore(t, memory.NewCartStorage())
	ctx := context.Background()
	a := product("A", 10, 10)
	b := product("B", 5, 10)
	require.NoError(t, s.Add(ctx, a))
	require.NoError(t, s.SetQuantity(ctx, a.ID.Hex(), 2))
	require.NoError(t, s.Add(ctx, b))
	require.NoError(t, s.SetQuantity(ctx, b.ID.Hex(), 3))

	tot := s.Totals()
	assert.Equal(t, 5, tot.TotalItems)
	assert.True(t, decimal.RequireFromString("35.00").Equal(tot.TotalPrice), tot.TotalPrice.String())
}

func TestStore_RemoveAndClear(t *testing.T) {
	s := openStore(t, memory.NewCartStorage())
	ctx := context.Background()
	a, b := product("A", 1, 5), product("B", 2, 5)
	require.NoError(t, s.Add(ctx, a))
	require.NoError(t, s.Add(ctx, b))

	require.NoError(t, s.Remove(ctx, a.ID.Hex()))
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "B", lines[0].Product.Name)

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.Lines())
	assert.Zero(t, s.Totals().TotalItems)
}

func TestStore_PersistsEveryMutation(t *testing.T) {
	storage := memory.NewCartStorage()
	ctx := context.Background()
	s := openStore(t, storage)
	pen := product("Pen", 3, 10)
	require.NoError(t, s.Add(ctx, pen))
	require.NoError(t, s.Add(ctx, pen))

	reopened := openStore(t, storage)
	lines := reopened.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, pen.ID, lines[0].Product.ID)

	raw, err := storage.Load(ctx, "maktabati_cart:test")
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded[0], "product")
	assert.Contains(t, decoded[0], "quantity")
}

func TestOpen_MalformedIsEmpty(t *testing.T) {
	storage := memory.NewCartStorage()
	require.NoError(t, storage.Save(context.Background(), "maktabati_cart:test", []byte("{not json")))
	s := openStore(t, storage)
	assert.Empty(t, s.Lines())
}

type brokenStorage struct{}

func (brokenStorage) Load(context.Context, string) ([]byte, error) { return nil, nil }
func (brokenStorage) Save(context.Context, string, []byte) error   { return errors.New("disk full") }

func TestStore_SaveFailureIsReported(t *testing.T) {
	s := openStore(t, brokenStorage{})
	err := s.Add(context.Background(), product("Pen", 1, 1))
	assert.Error(t, err)
	assert.Len(t, s.Lines(), 1)
}

func TestStore_SubscribersSeeLatestState(t *testing.T) {
	s := openStore(t, memory.NewCartStorage())
	ctx := context.Background()
	events, cancel := s.Subscribe()
	pen := product("Pen", 2.5, 10)

	require.NoError(t, s.Add(ctx, pen))
	require.NoError(t, s.Add(ctx, pen))
	require.NoError(t, s.Add(ctx, product("Ink", 1, 10)))

	select {
	case ev := <-events:
		assert.Equal(t, 3, ev.Totals.TotalItems)
		assert.Len(t, ev.Lines, 2)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open)
	require.NoError(t, s.Clear(ctx))
}

func TestRegistry_SharesAndSweeps(t *testing.T) {
	storage := memory.NewCartStorage()
	reg := NewRegistry(storage, "maktabati_cart", zaptest.NewLogger(t))
	ctx := context.Background()

	a, err := reg.Get(ctx, "abc")
	require.NoError(t, err)
	b, err := reg.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "maktabati_cart:abc", a.Key())

	require.NoError(t, a.Add(ctx, product("Pen", 1, 5)))

	_, cancel := a.Subscribe()
	assert.Zero(t, reg.Sweep(0))
	cancel()

	time.Sleep(time.Millisecond)
	assert.Equal(t, 1, reg.Sweep(0))
	assert.Zero(t, reg.Len())

	c, err := reg.Get(ctx, "abc")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Len(t, c.Lines(), 1)
}

func TestRegistry_GetKeepsStoreAlive(t *testing.T) {
	reg := NewRegistry(memory.NewCartStorage(), "maktabati_cart", zaptest.NewLogger(t))
	ctx := context.Background()

	a, err := reg.Get(ctx, "abc")
	require.NoError(t, err)
	a.mu.Lock()
	a.lastUsed = time.Now().Add(-time.Hour)
	a.mu.Unlock()

	b, err := reg.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Zero(t, reg.Sweep(time.Minute))
	assert.Equal(t, 1, reg.Len())
}
