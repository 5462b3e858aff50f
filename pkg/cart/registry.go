package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry shares one Store per cart id within the process, so every
// request and event stream for a cart sees the same state.
type Registry struct {
	storage Storage
	prefix  string
	logger  *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(storage Storage, prefix string, logger *zap.Logger) *Registry {
	return &Registry{
		storage: storage,
		prefix:  prefix,
		logger:  logger.Named("cart"),
		stores:  make(map[string]*Store),
	}
}

// Key is the storage key for a cart id.
func (r *Registry) Key(cartID string) string {
	return r.prefix + ":" + cartID
}

// Get returns the open store for cartID, restoring it from storage first.
func (r *Registry) Get(ctx context.Context, cartID string) (*Store, error) {
	key := r.Key(cartID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[key]; ok {
		// a store handed out must not look idle to the next Sweep
		s.touch()
		return s, nil
	}
	s, err := Open(ctx, key, r.storage, r.logger)
	if err != nil {
		return nil, err
	}
	r.stores[key] = s
	return s, nil
}

// Sweep drops stores untouched for longer than idle that nobody is
// watching. Their state stays in storage and is reloaded on next use.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, s := range r.stores {
		if s.subscribers() == 0 && s.idleSince().Before(cutoff) {
			delete(r.stores, key)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.logger.Debug("Evicted idle carts", zap.Int("count", n))
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
