package models

import (
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusProcessing,
	StatusShipped, StatusDelivered, StatusCancelled,
}

func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

// Valid reports membership in the status enum. Transitions between any two
// valid statuses are allowed.
func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

const OrderIDPrefix = "ORD-"

// FormatOrderID renders sequence number seq as ORD-000042.
func FormatOrderID(seq int64) string {
	return fmt.Sprintf("%s%06d", OrderIDPrefix, seq)
}

// NextOrderID derives the identifier that follows count already stored orders.
func NextOrderID(count int64) string {
	return FormatOrderID(count + 1)
}

var phonePattern = regexp.MustCompile(`^0[67]\d{8}$`)

// IsValidPhone reports whether s is a Moroccan mobile number: ten digits
// starting with 06 or 07.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

type Customer struct {
	Name  string `bson:"name" json:"name" binding:"required"`
	City  string `bson:"city" json:"city" binding:"required"`
	Phone string `bson:"phone" json:"phone" binding:"required,mphone"`
}

type OrderItem struct {
	ProductID  string             `bson:"productId" json:"productId"`
	CategoryID primitive.ObjectID `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	Name       string             `bson:"name" json:"name"`
	Price      float64            `bson:"price" json:"price"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Total      float64            `bson:"total" json:"total"`
}

type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID     string             `bson:"orderId" json:"orderId"`
	Customer    Customer           `bson:"customer" json:"customer"`
	Items       []OrderItem        `bson:"items" json:"items"`
	TotalAmount float64            `bson:"totalAmount" json:"totalAmount"`
	TotalItems  int                `bson:"totalItems" json:"totalItems"`
	Status      OrderStatus        `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (o Order) Lookup(path string) []any {
	switch path {
	case "_id":
		return []any{o.ID}
	case "orderId":
		return []any{o.OrderID}
	case "customer.name":
		return []any{o.Customer.Name}
	case "customer.city":
		return []any{o.Customer.City}
	case "customer.phone":
		return []any{o.Customer.Phone}
	case "status":
		return []any{string(o.Status)}
	case "totalAmount":
		return []any{o.TotalAmount}
	case "totalItems":
		return []any{o.TotalItems}
	case "items.categoryId":
		out := make([]any, 0, len(o.Items))
		for _, it := range o.Items {
			out = append(out, it.CategoryID)
		}
		return out
	case "items.productId":
		out := make([]any, 0, len(o.Items))
		for _, it := range o.Items {
			out = append(out, it.ProductID)
		}
		return out
	case "createdAt":
		return []any{o.CreatedAt}
	case "updatedAt":
		return []any{o.UpdatedAt}
	}
	return nil
}

// OrderSubmission is the checkout payload: client-computed line totals and
// order totals that the server verifies before persisting.
type OrderSubmission struct {
	Customer    Customer              `json:"customer"`
	Items       []OrderItemSubmission `json:"items" binding:"required,min=1,dive"`
	TotalAmount float64               `json:"totalAmount" binding:"required,gt=0"`
	TotalItems  int                   `json:"totalItems" binding:"required,gte=1"`
}

type OrderItemSubmission struct {
	ProductID string  `json:"productId" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Price     float64 `json:"price" binding:"required,gte=0"`
	Quantity  int     `json:"quantity" binding:"required,gte=1"`
	Total     float64 `json:"total" binding:"required,gte=0"`
}
