package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"github.com/example/maktabati/pkg/cart"
	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/repository/memory"
	"github.com/example/maktabati/pkg/service"
)

type recordingCreator struct {
	got []models.OrderSubmission
	err error
}

func (r *recordingCreator) Create(_ context.Context, sub models.OrderSubmission) (*models.Order, error) {
	r.got = append(r.got, sub)
	if r.err != nil {
		return nil, r.err
	}
	return &models.Order{OrderID: models.FormatOrderID(int64(len(r.got))), TotalAmount: sub.TotalAmount}, nil
}

var amina = models.Customer{Name: " Amina ", City: "Fès", Phone: "0712345678"}

func newCart(t *testing.T) *cart.Store {
	t.Helper()
	s, err := cart.Open(context.Background(), "maktabati_cart:c1", memory.NewCartStorage(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func TestValidateCustomer(t *testing.T) {
	c, err := ValidateCustomer(amina)
	require.NoError(t, err)
	assert.Equal(t, "Amina", c.Name)

	_, err = ValidateCustomer(models.Customer{Name: " A ", City: "  ", Phone: "0812345678"})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe, 3)
	assert.Contains(t, fe, "name")
	assert.Contains(t, fe, "city")
	assert.Contains(t, fe, "phone")

	// two Arabic letters are two characters
	_, err = ValidateCustomer(models.Customer{Name: "علي", City: "Rabat", Phone: "0612345678"})
	assert.NoError(t, err)
}

func TestSubmit_EmptyCartBlocked(t *testing.T) {
	creator := &recordingCreator{}
	sub := NewSubmitter(creator, zaptest.NewLogger(t))
	_, err := sub.Submit(context.Background(), newCart(t), amina)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, creator.got)
}

func TestSubmit_PayloadAndClear(t *testing.T) {
	ctx := context.Background()
	store := newCart(t)
	book := models.Product{ID: primitive.NewObjectID(), Name: "Algebra", Price: 45.99, Stock: 10}
	require.NoError(t, store.Add(ctx, book))
	require.NoError(t, store.Add(ctx, book))

	creator := &recordingCreator{}
	order, err := NewSubmitter(creator, zaptest.NewLogger(t)).Submit(ctx, store, amina)
	require.NoError(t, err)
	assert.Equal(t, "ORD-000001", order.OrderID)

	require.Len(t, creator.got, 1)
	payload := creator.got[0]
	assert.Equal(t, 91.98, payload.TotalAmount)
	assert.Equal(t, 2, payload.TotalItems)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, book.ID.Hex(), payload.Items[0].ProductID)
	assert.Equal(t, 91.98, payload.Items[0].Total)
	assert.Equal(t, "Amina", payload.Customer.Name)

	assert.Empty(t, store.Lines())
}

func TestSubmit_InvalidCustomerKeepsCart(t *testing.T) {
	ctx := context.Background()
	store := newCart(t)
	require.NoError(t, store.Add(ctx, models.Product{ID: primitive.NewObjectID(), Name: "Pen", Price: 1, Stock: 1}))

	creator := &recordingCreator{}
	_, err := NewSubmitter(creator, zaptest.NewLogger(t)).Submit(ctx, store, models.Customer{Name: "Amina", City: "Rabat", Phone: "12"})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Empty(t, creator.got)
	assert.Len(t, store.Lines(), 1)
}

func TestSubmit_FailureIsGenericAndKeepsCart(t *testing.T) {
	ctx := context.Background()
	store := newCart(t)
	require.NoError(t, store.Add(ctx, models.Product{ID: primitive.NewObjectID(), Name: "Pen", Price: 1, Stock: 1}))

	creator := &recordingCreator{err: service.ErrOrderSave}
	_, err := NewSubmitter(creator, zaptest.NewLogger(t)).Submit(ctx, store, amina)
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.Len(t, creator.got, 1, "no retry")
	assert.Len(t, store.Lines(), 1)

	creator.err = &service.ValidationError{Field: "items[0].price", Message: "changed"}
	_, err = NewSubmitter(creator, zaptest.NewLogger(t)).Submit(ctx, store, amina)
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.False(t, errors.Is(err, ErrSubmitFailed))
}

func TestBuildPayload_MixedLines(t *testing.T) {
	lines := []cart.Line{
		{Product: models.Product{ID: primitive.NewObjectID(), Name: "A", Price: 10}, Quantity: 2},
		{Product: models.Product{ID: primitive.NewObjectID(), Name: "B", Price: 5}, Quantity: 3},
		{Product: models.Product{ID: primitive.NewObjectID(), Name: "C", Price: 0.1}, Quantity: 3},
	}
	sub := BuildPayload(amina, lines)
	assert.Equal(t, 8, sub.TotalItems)
	assert.Equal(t, 35.3, sub.TotalAmount)
	assert.Equal(t, 0.3, sub.Items[2].Total)
}
