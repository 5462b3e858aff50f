// Package cart keeps a shopper's pending selection: one line per product,
// persisted in full after every change and broadcast to subscribers so
// independent views (a badge, a cart page) stay in step.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/models"
)

// Line is a product snapshot taken when it was first added.
type Line struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

func (l Line) ProductID() string {
	return l.Product.ID.Hex()
}

// Storage persists the serialized cart. Load returns nil data for a cart
// that was never saved.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type Totals struct {
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Event is delivered to subscribers after each change.
type Event struct {
	Key    string `json:"key"`
	Lines  []Line `json:"items"`
	Totals Totals `json:"totals"`
}

type Store struct {
	key     string
	storage Storage
	logger  *zap.Logger

	mu       sync.Mutex
	lines    []Line
	subs     map[int]chan Event
	nextSub  int
	lastUsed time.Time
}

// Open restores the cart saved under key. A value that does not parse is
// logged and treated as an empty cart.
func Open(ctx context.Context, key string, storage Storage, logger *zap.Logger) (*Store, error) {
	data, err := storage.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open cart: %w", err)
	}

	s := &Store{
		key:      key,
		storage:  storage,
		logger:   logger,
		subs:     make(map[int]chan Event),
		lastUsed: time.Now(),
	}
	if len(data) == 0 {
		return s, nil
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		logger.Warn("Discarding malformed cart", zap.String("key", key), zap.Error(err))
		return s, nil
	}
	s.lines = lines
	return s, nil
}

func (s *Store) Key() string {
	return s.key
}

// Add puts one unit of p in the cart. An existing line is incremented; a
// product with no stock is ignored.
func (s *Store) Add(ctx context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Stock == 0 {
		return nil
	}
	if i := s.indexOf(p.ID.Hex()); i >= 0 {
		s.lines[i].Quantity++
	} else {
		s.lines = append(s.lines, Line{Product: p, Quantity: 1})
	}
	return s.commit(ctx)
}

// SetQuantity removes the line when n <= 0 and otherwise stores n clamped
// to [1, stock]. Unknown products are ignored.
func (s *Store) SetQuantity(ctx context.Context, productID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(productID)
	if i < 0 {
		return nil
	}
	if n <= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		return s.commit(ctx)
	}
	if stock := s.lines[i].Product.Stock; n > stock {
		n = stock
	}
	if n < 1 {
		n = 1
	}
	s.lines[i].Quantity = n
	return s.commit(ctx)
}

func (s *Store) Remove(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(productID)
	if i < 0 {
		return nil
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return s.commit(ctx)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	return s.commit(ctx)
}

// Lines returns a copy of the cart in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	return s.copyLines()
}

// Totals is computed from the lines on every call.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalsOf(s.lines)
}

func totalsOf(lines []Line) Totals {
	t := Totals{TotalPrice: decimal.Zero}
	for _, l := range lines {
		t.TotalItems += l.Quantity
		price := decimal.NewFromFloat(l.Product.Price)
		t.TotalPrice = t.TotalPrice.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	t.TotalPrice = t.TotalPrice.Round(2)
	return t
}

// Subscribe registers for change events. Each subscriber only ever holds the
// most recent event; cancel must be called to release it.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Store) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
}

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Store) indexOf(productID string) int {
	for i, l := range s.lines {
		if l.ProductID() == productID {
			return i
		}
	}
	return -1
}

func (s *Store) copyLines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// commit persists the full cart and notifies subscribers. Callers hold s.mu.
// Subscribers are notified even when saving fails, since the in-memory cart
// has already changed.
func (s *Store) commit(ctx context.Context) error {
	s.lastUsed = time.Now()
	lines := s.copyLines()
	ev := Event{Key: s.key, Lines: lines, Totals: totalsOf(lines)}
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- ev
	}

	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Save(ctx, s.key, data); err != nil {
		s.logger.Warn("Failed to persist cart", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}
