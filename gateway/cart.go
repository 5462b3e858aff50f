package gateway

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/cart"
	"github.com/example/maktabati/pkg/models"
)

const (
	cartCookie = "maktabati_cart"
	cartHeader = "X-Cart-ID"
	// cartUpdatedEvent is the server-sent event name for cart changes.
	cartUpdatedEvent = "cartUpdated"
)

// cartID resolves the shopper's cart from the header or cookie, issuing a
// fresh id when neither carries a valid one.
func (g *Gateway) cartID(c *gin.Context) string {
	id := c.GetHeader(cartHeader)
	if id == "" {
		id, _ = c.Cookie(cartCookie)
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cartCookie, id, int(g.config.Cart.TTL.Seconds()), "/", "", false, true)
	c.Header(cartHeader, id)
	return id
}

func (g *Gateway) cartStore(c *gin.Context) (*cart.Store, string, bool) {
	id := g.cartID(c)
	store, err := g.svc.Carts.Get(c.Request.Context(), id)
	if err != nil {
		g.respondError(c, err)
		return nil, "", false
	}
	return store, id, true
}

type totalsView struct {
	TotalItems int     `json:"totalItems"`
	TotalPrice float64 `json:"totalPrice"`
}

func viewTotals(t cart.Totals) totalsView {
	return totalsView{TotalItems: t.TotalItems, TotalPrice: t.TotalPrice.InexactFloat64()}
}

func cartBody(id string, lines []cart.Line, t cart.Totals) gin.H {
	if lines == nil {
		lines = []cart.Line{}
	}
	return gin.H{"cartId": id, "items": lines, "totals": viewTotals(t)}
}

func (g *Gateway) respondCart(c *gin.Context, store *cart.Store, id string) {
	c.JSON(http.StatusOK, cartBody(id, store.Lines(), store.Totals()))
}

func (g *Gateway) getCart(c *gin.Context) {
	store, id, ok := g.cartStore(c)
	if !ok {
		return
	}
	g.respondCart(c, store, id)
}

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// addCartItem snapshots the current storefront view of the product.
func (g *Gateway) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.respondError(c, bindError(err))
		return
	}
	store, id, ok := g.cartStore(c)
	if !ok {
		return
	}
	p, err := g.svc.Products.Get(c.Request.Context(), req.ProductID)
	if err != nil {
		g.respondError(c, err)
		return
	}
	if err := store.Add(c.Request.Context(), *p); err != nil {
		g.respondError(c, err)
		return
	}
	g.respondCart(c, store, id)
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (g *Gateway) setCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.respondError(c, bindError(err))
		return
	}
	store, id, ok := g.cartStore(c)
	if !ok {
		return
	}
	if err := store.SetQuantity(c.Request.Context(), c.Param("productId"), *req.Quantity); err != nil {
		g.respondError(c, err)
		return
	}
	g.respondCart(c, store, id)
}

func (g *Gateway) removeCartItem(c *gin.Context) {
	store, id, ok := g.cartStore(c)
	if !ok {
		return
	}
	if err := store.Remove(c.Request.Context(), c.Param("productId")); err != nil {
		g.respondError(c, err)
		return
	}
	g.respondCart(c, store, id)
}

func (g *Gateway) clearCart(c *gin.Context) {
	store, id, ok := g.cartStore(c)
	if !ok {
		return
	}
	if err := store.Clear(c.Request.Context()); err != nil {
		g.respondError(c, err)
		return
	}
	g.respondCart(c, store, id)
}

// cartEvents streams the cart state: once on connect and again after every
// change, until the client goes away.
func (g *Gateway) cartEvents(c *gin.Context) {
	store, id, ok := g.cartStore(c)
	if !ok {
		return
	}
	events, cancel := store.Subscribe()
	defer cancel()

	// the stream outlives server.write_timeout
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		g.logger.Debug("Write deadline not cleared for cart stream", zap.Error(err))
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(cartUpdatedEvent, gin.H{"cartId": id, "totals": viewTotals(store.Totals())})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(cartUpdatedEvent, gin.H{"cartId": id, "totals": viewTotals(ev.Totals)})
			return true
		}
	})
}

// checkoutRequest carries no binding rules; the submitter reports every
// customer field problem at once.
type checkoutRequest struct {
	Customer struct {
		Name  string `json:"name"`
		City  string `json:"city"`
		Phone string `json:"phone"`
	} `json:"customer"`
}

func (g *Gateway) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.respondError(c, bindError(err))
		return
	}
	store, _, ok := g.cartStore(c)
	if !ok {
		return
	}
	customer := models.Customer{Name: req.Customer.Name, City: req.Customer.City, Phone: req.Customer.Phone}
	o, err := g.svc.Checkout.Submit(c.Request.Context(), store, customer)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "order placed",
		"orderId": o.OrderID,
		"order":   orderSummary(o),
	})
}
