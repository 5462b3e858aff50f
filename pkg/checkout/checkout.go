package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/cart"
	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/service"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrSubmitFailed = errors.New("failed to save order")
)

// FieldErrors maps a customer field to what is wrong with it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid customer: " + strings.Join(parts, "; ")
}

// ValidateCustomer trims the contact fields and checks them. Name needs two
// characters, city must be present and phone must be a mobile number.
func ValidateCustomer(c models.Customer) (models.Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.City = strings.TrimSpace(c.City)
	c.Phone = strings.TrimSpace(c.Phone)

	fe := FieldErrors{}
	if len([]rune(c.Name)) < 2 {
		fe["name"] = "name must be at least 2 characters"
	}
	if c.City == "" {
		fe["city"] = "city is required"
	}
	if !models.IsValidPhone(c.Phone) {
		fe["phone"] = "phone must be 10 digits starting with 06 or 07"
	}
	if len(fe) > 0 {
		return c, fe
	}
	return c, nil
}

// BuildPayload maps every cart line to an order item and sums the totals.
func BuildPayload(c models.Customer, lines []cart.Line) models.OrderSubmission {
	sub := models.OrderSubmission{
		Customer: c,
		Items:    make([]models.OrderItemSubmission, 0, len(lines)),
	}
	amount := decimal.Zero
	for _, l := range lines {
		price := decimal.NewFromFloat(l.Product.Price)
		total := price.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		sub.Items = append(sub.Items, models.OrderItemSubmission{
			ProductID: l.ProductID(),
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
			Total:     total.InexactFloat64(),
		})
		amount = amount.Add(total)
		sub.TotalItems += l.Quantity
	}
	sub.TotalAmount = amount.Round(2).InexactFloat64()
	return sub
}

type OrderCreator interface {
	Create(ctx context.Context, sub models.OrderSubmission) (*models.Order, error)
}

type Submitter struct {
	orders OrderCreator
	logger *zap.Logger
}

func NewSubmitter(orders OrderCreator, logger *zap.Logger) *Submitter {
	return &Submitter{orders: orders, logger: logger}
}

// Submit places an order for the cart's current contents and empties the
// cart once the order is stored. Nothing is retried.
func (s *Submitter) Submit(ctx context.Context, store *cart.Store, c models.Customer) (*models.Order, error) {
	lines := store.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	c, err := ValidateCustomer(c)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Create(ctx, BuildPayload(c, lines))
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			return nil, err
		}
		s.logger.Error("Order submission failed", zap.String("cart", store.Key()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}

	if err := store.Clear(ctx); err != nil {
		s.logger.Warn("Order placed but cart not cleared",
			zap.String("order_id", order.OrderID), zap.Error(err))
	}
	return order, nil
}
