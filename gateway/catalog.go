package gateway

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/query"
	"github.com/example/maktabati/pkg/service"
)

func (g *Gateway) listCategories(c *gin.Context) {
	cats, err := g.svc.Categories.List(c.Request.Context())
	if err != nil {
		g.respondError(c, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (g *Gateway) getCategory(c *gin.Context) {
	cat, err := g.svc.Categories.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

func (g *Gateway) createCategory(c *gin.Context) {
	var in service.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.respondError(c, bindError(err))
		return
	}
	cat, err := g.svc.Categories.Create(c.Request.Context(), in, actor(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "category created", "category": cat})
}

func (g *Gateway) updateCategory(c *gin.Context) {
	var in service.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.respondError(c, bindError(err))
		return
	}
	cat, err := g.svc.Categories.Update(c.Request.Context(), c.Param("id"), in, actor(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category updated", "category": cat})
}

func (g *Gateway) deleteCategory(c *gin.Context) {
	if err := g.svc.Categories.Delete(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

// productParams reads the product list query string. Non-numeric page and
// limit fall back to defaults; a non-numeric price bound is rejected.
func productParams(c *gin.Context) (query.ProductParams, error) {
	p := query.ProductParams{
		Search:    c.Query("search"),
		Category:  c.Query("category"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	p.Page, _ = strconv.Atoi(c.Query("page"))
	p.Limit, _ = strconv.Atoi(c.Query("limit"))

	var err error
	if p.MinPrice, err = floatParam(c, "minPrice"); err != nil {
		return p, err
	}
	if p.MaxPrice, err = floatParam(c, "maxPrice"); err != nil {
		return p, err
	}
	return p, nil
}

func floatParam(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &service.ValidationError{Field: name, Message: "must be a number"}
	}
	return &v, nil
}

func productPageBody(page *service.ProductPage) gin.H {
	products := page.Products
	if products == nil {
		products = []models.Product{}
	}
	pg := page.Pagination
	return gin.H{
		"products": products,
		"pagination": gin.H{
			"currentPage":   pg.CurrentPage,
			"totalPages":    pg.TotalPages,
			"totalProducts": pg.Total,
			"hasNext":       pg.HasNext,
			"hasPrev":       pg.HasPrev,
		},
	}
}

func (g *Gateway) listProducts(c *gin.Context) {
	params, err := productParams(c)
	if err != nil {
		g.respondError(c, err)
		return
	}
	page, err := g.svc.Products.List(c.Request.Context(), params)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, productPageBody(page))
}

func (g *Gateway) featuredProducts(c *gin.Context) {
	products, err := g.svc.Products.Featured(c.Request.Context())
	if err != nil {
		g.respondError(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (g *Gateway) getProduct(c *gin.Context) {
	p, err := g.svc.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (g *Gateway) adminListProducts(c *gin.Context) {
	params, err := productParams(c)
	if err != nil {
		g.respondError(c, err)
		return
	}
	if params.Limit == 0 {
		params.Limit = query.MaxPageSize
	}
	page, err := g.svc.Products.AdminList(c.Request.Context(), params)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, productPageBody(page))
}

func (g *Gateway) adminGetProduct(c *gin.Context) {
	p, err := g.svc.Products.AdminGet(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (g *Gateway) createProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.respondError(c, bindError(err))
		return
	}
	p, err := g.svc.Products.Create(c.Request.Context(), in, actor(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "product created", "product": p})
}

func (g *Gateway) updateProduct(c *gin.Context) {
	var patch service.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		g.respondError(c, bindError(err))
		return
	}
	p, err := g.svc.Products.Update(c.Request.Context(), c.Param("id"), patch, actor(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product updated", "product": p})
}

func (g *Gateway) deleteProduct(c *gin.Context) {
	if err := g.svc.Products.Delete(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}
