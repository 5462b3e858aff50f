package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/query"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type CategoryRepository interface {
	Create(ctx context.Context, c *models.Category) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	// FindByName matches the whole name case-insensitively.
	FindByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Find(ctx context.Context, q query.Query) ([]models.Product, int64, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context, f query.Filter) (int64, error)
}

type OrderRepository interface {
	// Create fails with ErrDuplicate when the orderId is already taken.
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Find(ctx context.Context, q query.Query) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	Count(ctx context.Context) (int64, error)
	// Revenue sums totalAmount over orders that are not cancelled.
	Revenue(ctx context.Context) (float64, error)
}

// SequenceRepository hands out monotonically increasing integers per name.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
	// EnsureAtLeast raises the counter to value if it is currently lower.
	EnsureAtLeast(ctx context.Context, name string, value int64) error
}

type AdminRepository interface {
	Create(ctx context.Context, u *models.AdminUser) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error)
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Service   string             `bson:"service" json:"service"`
	Action    string             `bson:"action" json:"action"`
	EntityID  string             `bson:"entity_id" json:"entityId"`
	Actor     string             `bson:"actor,omitempty" json:"actor,omitempty"`
	Data      bson.M             `bson:"data" json:"data"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

type AuditRepository interface {
	CreateAuditLog(ctx context.Context, log *AuditLog) error
}

// AuditLogReader lists entries newest first. An empty entityID matches every
// entry.
type AuditLogReader interface {
	AuditLogs(ctx context.Context, entityID string, limit int64) ([]AuditLog, error)
}

func filterDoc(f query.Filter) bson.D {
	if f == nil {
		return bson.D{}
	}
	return f.BSON()
}
