package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/repository"
)

type recordingStore struct {
	mu   sync.Mutex
	logs []repository.AuditLog
	// rejects entries for this entity id
	failFor string
}

func (s *recordingStore) CreateAuditLog(_ context.Context, log *repository.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor != "" && log.EntityID == s.failFor {
		return errors.New("mongo down")
	}
	s.logs = append(s.logs, *log)
	return nil
}

func (s *recordingStore) snapshot() []repository.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.AuditLog(nil), s.logs...)
}

func TestBus_WritesAuditEntries(t *testing.T) {
	store := &recordingStore{}
	bus, err := NewBus("storefront", store, zaptest.NewLogger(t))
	require.NoError(t, err)

	bus.Publish(OrderPlaced{ID: "abc", OrderID: "ORD-000001", TotalAmount: 91.98, TotalItems: 2})
	bus.Publish(OrderStatusChanged{ID: "abc", OrderID: "ORD-000001", From: models.StatusPending, To: models.StatusShipped, Actor: "root"})
	bus.Publish(CatalogChanged{Entity: EntityCategory, Action: ActionDeleted, ID: "c1", Name: "أقلام"})
	bus.Close()

	logs := store.snapshot()
	require.Len(t, logs, 3)
	assert.Equal(t, "order.placed", logs[0].Action)
	assert.Equal(t, "ORD-000001", logs[0].Data["orderId"])
	assert.Equal(t, "storefront", logs[0].Service)
	assert.Equal(t, "order.status_changed", logs[1].Action)
	assert.Equal(t, "shipped", logs[1].Data["to"])
	assert.Equal(t, "root", logs[1].Actor)
	assert.Equal(t, "category.deleted", logs[2].Action)
}

func TestBus_StoreFailureDoesNotStopActor(t *testing.T) {
	store := &recordingStore{failFor: "a"}
	bus, err := NewBus("storefront", store, zaptest.NewLogger(t))
	require.NoError(t, err)

	bus.Publish(OrderPlaced{ID: "a"})
	bus.Publish(OrderPlaced{ID: "b"})
	require.Eventually(t, func() bool { return len(store.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	bus.Close()
	assert.Equal(t, "b", store.snapshot()[0].EntityID)
}
