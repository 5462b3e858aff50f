package events

import "github.com/example/maktabati/pkg/models"

// OrderPlaced is emitted once an order has been stored.
type OrderPlaced struct {
	ID          string
	OrderID     string
	City        string
	TotalAmount float64
	TotalItems  int
}

type OrderStatusChanged struct {
	ID      string
	OrderID string
	From    models.OrderStatus
	To      models.OrderStatus
	Actor   string
}

// CatalogChanged covers category and product writes made from the back office.
type CatalogChanged struct {
	Entity string
	Action string
	ID     string
	Name   string
	Actor  string
}

const (
	EntityCategory = "category"
	EntityProduct  = "product"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Publisher accepts domain events without blocking the caller.
type Publisher interface {
	Publish(event any)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(any) {}
