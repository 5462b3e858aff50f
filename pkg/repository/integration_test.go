package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/query"
)

func TestCategoryRepo_FindByNameCaseInsensitive(t *testing.T) {
	db := testDatabase(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Category{Name: "Art Supplies"}))

	found, err := repo.FindByName(ctx, "art supplies")
	require.NoError(t, err)
	assert.Equal(t, "Art Supplies", found.Name)

	_, err = repo.FindByName(ctx, "art")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByName(ctx, "Art.Supplies")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepo_FindMatchesInMemorySemantics(t *testing.T) {
	db := testDatabase(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	fixtures := []*models.Product{
		{Name: "Blue Pen", Description: "Gel ink", Price: 5, Tags: []string{"school"}, Images: []string{"a"}, IsActive: true},
		{Name: "Red Pen", Description: "Gel ink", Price: 6, Tags: []string{"office"}, Images: []string{"b"}, IsActive: true},
		{Name: "Blue Folder", Description: "A4", Price: 12, Images: []string{"c"}, IsActive: false},
	}
	for _, p := range fixtures {
		require.NoError(t, repo.Create(ctx, p))
	}

	q, err := query.BuildProductQuery(query.ProductParams{Search: "blue school"})
	require.NoError(t, err)
	got, total, err := repo.Find(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)
	assert.Equal(t, "Blue Pen", got[0].Name)

	lo, hi := 5.0, 6.0
	q, err = query.BuildProductQuery(query.ProductParams{MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	_, total, err = repo.Find(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestOrderRepo_DuplicateOrderID(t *testing.T) {
	db := testDatabase(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	o := &models.Order{OrderID: "ORD-000001", Status: models.StatusPending}
	require.NoError(t, repo.Create(ctx, o))

	err := repo.Create(ctx, &models.Order{OrderID: "ORD-000001", Status: models.StatusPending})
	assert.ErrorIs(t, err, ErrDuplicate)

	updated, err := repo.UpdateStatus(ctx, o.ID, models.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, updated.Status)

	_, err = repo.UpdateStatus(ctx, primitive.NewObjectID(), models.StatusShipped)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSequenceRepo_ConcurrentNext(t *testing.T) {
	db := testDatabase(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsureAtLeast(ctx, "orders", 10))
	require.NoError(t, repo.EnsureAtLeast(ctx, "orders", 3))

	const n = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repo.Next(ctx, "orders")
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for v := int64(11); v <= 10+n; v++ {
		assert.True(t, seen[v], v)
	}
}

func TestCartStorage_RoundTrip(t *testing.T) {
	r := testRedis(t)
	s := NewCartStorage(r, 0)
	ctx := context.Background()
	key := "maktabati_cart:test-" + primitive.NewObjectID().Hex()
	t.Cleanup(func() { _ = r.Del(context.Background(), key) })

	data, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Save(ctx, key, []byte(`[]`)))
	data, err = s.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}
