// Package memory implements the repository interfaces in process. It backs
// the "memory" storage driver and the service tests; lookups run through
// query.Apply so filters behave exactly as they do against Mongo.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/query"
	"github.com/example/maktabati/pkg/repository"
)

type CategoryRepository struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Category
}

func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{items: make(map[primitive.ObjectID]models.Category)}
}

func (r *CategoryRepository) Create(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.items[c.ID] = *c
	return nil
}

func (r *CategoryRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *CategoryRepository) FindByName(_ context.Context, name string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.items {
		if strings.EqualFold(c.Name, name) {
			c := c
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *CategoryRepository) List(_ context.Context) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Category, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CategoryRepository) Update(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	r.items[c.ID] = *c
	return nil
}

func (r *CategoryRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *CategoryRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}

type ProductRepository struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{items: make(map[primitive.ObjectID]models.Product)}
}

func (r *ProductRepository) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Tags == nil {
		p.Tags = []string{}
	}
	r.items[p.ID] = cloneProduct(*p)
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (r *ProductRepository) Find(_ context.Context, q query.Query) ([]models.Product, int64, error) {
	r.mu.RLock()
	all := make([]models.Product, 0, len(r.items))
	for _, p := range r.items {
		all = append(all, cloneProduct(p))
	}
	r.mu.RUnlock()

	page, total := query.Apply(all, q)
	return page, total, nil
}

func (r *ProductRepository) Update(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	stored := cloneProduct(*p)
	stored.Category = nil
	r.items[p.ID] = stored
	return nil
}

func (r *ProductRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ProductRepository) Count(_ context.Context, f query.Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, p := range r.items {
		if f == nil || f.Match(p) {
			n++
		}
	}
	return n, nil
}

func cloneProduct(p models.Product) models.Product {
	p.Images = append([]string(nil), p.Images...)
	p.Tags = append([]string{}, p.Tags...)
	return p
}

type OrderRepository struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Order
	ids   map[string]bool
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		items: make(map[primitive.ObjectID]models.Order),
		ids:   make(map[string]bool),
	}
}

func (r *OrderRepository) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ids[o.OrderID] {
		return fmt.Errorf("insert order %s: %w", o.OrderID, repository.ErrDuplicate)
	}
	now := time.Now().UTC()
	o.ID = primitive.NewObjectID()
	o.CreatedAt, o.UpdatedAt = now, now
	r.items[o.ID] = cloneOrder(*o)
	r.ids[o.OrderID] = true
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *OrderRepository) Find(_ context.Context, q query.Query) ([]models.Order, int64, error) {
	r.mu.RLock()
	all := make([]models.Order, 0, len(r.items))
	for _, o := range r.items {
		all = append(all, cloneOrder(o))
	}
	r.mu.RUnlock()

	page, total := query.Apply(all, q)
	return page, total, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	r.items[id] = o
	o = cloneOrder(o)
	return &o, nil
}

func (r *OrderRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}

func (r *OrderRepository) Revenue(_ context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum float64
	for _, o := range r.items {
		if o.Status != models.StatusCancelled {
			sum += o.TotalAmount
		}
	}
	return sum, nil
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

type SequenceRepository struct {
	mu  sync.Mutex
	seq map[string]int64
}

func NewSequenceRepository() *SequenceRepository {
	return &SequenceRepository{seq: make(map[string]int64)}
}

func (r *SequenceRepository) Next(_ context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq[name]++
	return r.seq[name], nil
}

func (r *SequenceRepository) EnsureAtLeast(_ context.Context, name string, value int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seq[name] < value {
		r.seq[name] = value
	}
	return nil
}

type AdminRepository struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.AdminUser
}

func NewAdminRepository() *AdminRepository {
	return &AdminRepository{items: make(map[primitive.ObjectID]models.AdminUser)}
}

func (r *AdminRepository) Create(_ context.Context, u *models.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.items {
		if cur.Email == u.Email || cur.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now
	r.items[u.ID] = *u
	return nil
}

func (r *AdminRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *AdminRepository) GetByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	return r.find(func(u models.AdminUser) bool { return u.Email == email })
}

func (r *AdminRepository) GetByUsername(_ context.Context, username string) (*models.AdminUser, error) {
	return r.find(func(u models.AdminUser) bool { return u.Username == username })
}

func (r *AdminRepository) find(pred func(models.AdminUser) bool) (*models.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.items {
		if pred(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AdminRepository) TouchLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	u.UpdatedAt = at
	r.items[id] = u
	return nil
}

// SetActive toggles an account; used by operators and tests.
func (r *AdminRepository) SetActive(id primitive.ObjectID, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.items[id]; ok {
		u.IsActive = active
		r.items[id] = u
	}
}

func (r *AdminRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}

// CartStorage keeps serialized carts in a map.
type CartStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewCartStorage() *CartStorage {
	return &CartStorage{data: make(map[string][]byte)}
}

func (s *CartStorage) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *CartStorage) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}

// AuditRepository keeps audit entries in memory and mirrors them to the log.
type AuditRepository struct {
	mu     sync.Mutex
	logs   []repository.AuditLog
	logger *zap.Logger
}

func NewAuditRepository(logger *zap.Logger) *AuditRepository {
	return &AuditRepository{logger: logger}
}

func (r *AuditRepository) CreateAuditLog(_ context.Context, log *repository.AuditLog) error {
	log.CreatedAt = time.Now()
	r.mu.Lock()
	r.logs = append(r.logs, *log)
	r.mu.Unlock()

	r.logger.Info("audit",
		zap.String("action", log.Action),
		zap.String("entity_id", log.EntityID),
		zap.String("actor", log.Actor))
	return nil
}

func (r *AuditRepository) AuditLogs(_ context.Context, entityID string, limit int64) ([]repository.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []repository.AuditLog{}
	for i := len(r.logs) - 1; i >= 0; i-- {
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		if entityID == "" || r.logs[i].EntityID == entityID {
			out = append(out, r.logs[i])
		}
	}
	return out, nil
}

var (
	_ repository.CategoryRepository = (*CategoryRepository)(nil)
	_ repository.ProductRepository  = (*ProductRepository)(nil)
	_ repository.OrderRepository    = (*OrderRepository)(nil)
	_ repository.SequenceRepository = (*SequenceRepository)(nil)
	_ repository.AdminRepository    = (*AdminRepository)(nil)
	_ repository.AuditRepository    = (*AuditRepository)(nil)
	_ repository.AuditLogReader     = (*AuditRepository)(nil)
)
