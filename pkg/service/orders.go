package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/events"
	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/query"
	"github.com/example/maktabati/pkg/repository"
)

// OrderSequence is the counter name behind order numbers.
const OrderSequence = "orders"

type OrderPage struct {
	Orders     []models.Order
	Pagination query.Pagination
}

type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	seq      repository.SequenceRepository
	events   events.Publisher
	logger   *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, seq repository.SequenceRepository, pub events.Publisher, logger *zap.Logger) *OrderService {
	return &OrderService{orders: orders, products: products, seq: seq, events: pub, logger: logger}
}

// SyncSequence raises the order counter to the number of stored orders so
// that numbering continues after data created without the counter.
func (s *OrderService) SyncSequence(ctx context.Context) error {
	n, err := s.orders.Count(ctx)
	if err != nil {
		return fmt.Errorf("count orders: %w", err)
	}
	if err := s.seq.EnsureAtLeast(ctx, OrderSequence, n); err != nil {
		return fmt.Errorf("sync order sequence: %w", err)
	}
	return nil
}

// Create validates a checkout submission and stores it as a pending order.
//
// Line totals and order totals are checked, not recomputed. Every product
// must exist, be active, have enough stock and still cost what the client
// was shown.
func (s *OrderService) Create(ctx context.Context, sub models.OrderSubmission) (*models.Order, error) {
	customer, err := validateCustomer(sub.Customer)
	if err != nil {
		return nil, err
	}
	if len(sub.Items) == 0 {
		return nil, invalid("items", "order must contain at least one item")
	}

	items := make([]models.OrderItem, 0, len(sub.Items))
	sumAmount := decimal.Zero
	sumItems := 0
	for i, it := range sub.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.ProductID) == "" || strings.TrimSpace(it.Name) == "" {
			return nil, invalid(field, "product id and name are required")
		}
		if it.Quantity < 1 {
			return nil, invalid(field+".quantity", "quantity must be at least 1")
		}
		if it.Price < 0 {
			return nil, invalid(field+".price", "price cannot be negative")
		}
		price := money(it.Price)
		total := money(it.Total)
		if !price.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2).Equal(total) {
			return nil, invalid(field+".total", "line total does not equal price times quantity")
		}

		p, err := s.orderableProduct(ctx, field, it)
		if err != nil {
			return nil, err
		}

		items = append(items, models.OrderItem{
			ProductID:  it.ProductID,
			CategoryID: p.CategoryID,
			Name:       it.Name,
			Price:      it.Price,
			Quantity:   it.Quantity,
			Total:      it.Total,
		})
		sumAmount = sumAmount.Add(total)
		sumItems += it.Quantity
	}

	if !sumAmount.Equal(money(sub.TotalAmount)) {
		return nil, invalid("totalAmount", "total amount does not match the items")
	}
	if sumItems != sub.TotalItems {
		return nil, invalid("totalItems", "total items does not match the items")
	}

	seq, err := s.seq.Next(ctx, OrderSequence)
	if err != nil {
		s.logger.Error("Order number allocation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOrderSave, err)
	}

	order := &models.Order{
		OrderID:     models.FormatOrderID(seq),
		Customer:    customer,
		Items:       items,
		TotalAmount: sub.TotalAmount,
		TotalItems:  sub.TotalItems,
		Status:      models.StatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("Order insert failed", zap.String("order_id", order.OrderID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOrderSave, err)
	}

	s.events.Publish(events.OrderPlaced{
		ID:          order.ID.Hex(),
		OrderID:     order.OrderID,
		City:        order.Customer.City,
		TotalAmount: order.TotalAmount,
		TotalItems:  order.TotalItems,
	})
	return order, nil
}

func (s *OrderService) orderableProduct(ctx context.Context, field string, it models.OrderItemSubmission) (*models.Product, error) {
	unavailable := invalid(field, "product %q is no longer available", it.Name)
	oid, err := parseID(it.ProductID, unavailable)
	if err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unavailable
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !p.IsActive {
		return nil, unavailable
	}
	if !money(p.Price).Equal(money(it.Price)) {
		return nil, invalid(field+".price", "price of %q has changed", it.Name)
	}
	if it.Quantity > p.Stock {
		return nil, invalid(field+".quantity", "only %d of %q left in stock", p.Stock, it.Name)
	}
	return p, nil
}

func validateCustomer(c models.Customer) (models.Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.City = strings.TrimSpace(c.City)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" || c.City == "" || c.Phone == "" {
		return c, invalid("customer", "customer name, city and phone are required")
	}
	if !models.IsValidPhone(c.Phone) {
		return c, invalid("customer.phone", "phone must be a mobile number starting with 06 or 07")
	}
	return c, nil
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func (s *OrderService) List(ctx context.Context, params query.OrderParams) (*OrderPage, error) {
	q, err := query.BuildOrderQuery(params)
	if err != nil {
		return nil, fromQueryError(err)
	}
	orders, total, err := s.orders.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	return &OrderPage{Orders: orders, Pagination: q.Page.Paginate(total)}, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseID(id, ErrOrderNotFound)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.GetByID(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// UpdateStatus moves an order to any valid status.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status string, actor string) (*models.Order, error) {
	next := models.OrderStatus(strings.TrimSpace(status))
	if !next.Valid() {
		return nil, invalid("status", "status must be one of pending, confirmed, processing, shipped, delivered, cancelled")
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.UpdateStatus(ctx, cur.ID, next)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.events.Publish(events.OrderStatusChanged{
		ID: o.ID.Hex(), OrderID: o.OrderID, From: cur.Status, To: next, Actor: actor,
	})
	return o, nil
}
