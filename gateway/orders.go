package gateway

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/query"
)

func orderSummary(o *models.Order) gin.H {
	return gin.H{
		"id":          o.ID.Hex(),
		"orderId":     o.OrderID,
		"status":      o.Status,
		"totalAmount": o.TotalAmount,
		"createdAt":   o.CreatedAt,
	}
}

func (g *Gateway) createOrder(c *gin.Context) {
	var sub models.OrderSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		g.respondError(c, bindError(err))
		return
	}
	o, err := g.svc.Orders.Create(c.Request.Context(), sub)
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

func (g *Gateway) listOrders(c *gin.Context) {
	params := query.OrderParams{
		Search:    c.Query("search"),
		Status:    c.Query("status"),
		Category:  c.Query("category"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	params.Page, _ = strconv.Atoi(c.Query("page"))
	params.Limit, _ = strconv.Atoi(c.Query("limit"))

	page, err := g.svc.Orders.List(c.Request.Context(), params)
	if err != nil {
		g.respondError(c, err)
		return
	}
	orders := page.Orders
	if orders == nil {
		orders = []models.Order{}
	}
	pg := page.Pagination
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"pagination": gin.H{
			"currentPage": pg.CurrentPage,
			"totalPages":  pg.TotalPages,
			"totalOrders": pg.Total,
			"hasNext":     pg.HasNext,
			"hasPrev":     pg.HasPrev,
		},
	})
}

func (g *Gateway) getOrder(c *gin.Context) {
	o, err := g.svc.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.respondError(c, bindError(err))
		return
	}
	o, err := g.svc.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, actor(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order status updated", "order": o})
}
