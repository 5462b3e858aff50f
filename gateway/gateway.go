package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/cart"
	"github.com/example/maktabati/pkg/checkout"
	"github.com/example/maktabati/pkg/config"
	"github.com/example/maktabati/pkg/media"
	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/service"
)

const requestIDHeader = "X-Request-ID"

// Services are the application components the HTTP surface drives.
type Services struct {
	Categories *service.CategoryService
	Products   *service.ProductService
	Orders     *service.OrderService
	Auth       *service.AuthService
	Stats      *service.StatsService
	Seed       *service.SeedService
	Audit      *service.AuditService
	Carts      *cart.Registry
	Checkout   *checkout.Submitter
	Media      media.Uploader
}

type Gateway struct {
	config *config.Config
	svc    Services
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
}

func NewGateway(cfg *config.Config, logger *zap.Logger, svc Services) *Gateway {
	registerValidators()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))
	router.MaxMultipartMemory = cfg.Media.MaxSize

	g := &Gateway{
		config: cfg,
		svc:    svc,
		logger: logger,
		router: router,
	}
	g.setupRoutes()
	return g
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) setupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := g.router.Group("/api")
	{
		api.GET("/categories", g.listCategories)

		products := api.Group("/products")
		{
			products.GET("", g.listProducts)
			products.GET("/featured", g.featuredProducts)
			products.GET("/:id", g.getProduct)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", g.createOrder)
			orders.GET("", g.authenticate(), g.listOrders)
			orders.GET("/:id", g.authenticate(), g.getOrder)
			orders.PATCH("/:id", g.authenticate(), g.updateOrderStatus)
		}

		carts := api.Group("/cart")
		{
			carts.GET("", g.getCart)
			carts.DELETE("", g.clearCart)
			carts.POST("/items", g.addCartItem)
			carts.PUT("/items/:productId", g.setCartItem)
			carts.DELETE("/items/:productId", g.removeCartItem)
			carts.GET("/events", g.cartEvents)
		}
		api.POST("/checkout", g.checkout)
	}

	admin := api.Group("/admin")
	{
		admin.POST("/auth/register", g.register)
		admin.POST("/auth/login", g.login)

		secured := admin.Group("", g.authenticate())
		{
			secured.GET("/auth/verify", g.verify)

			secured.GET("/categories", g.listCategories)
			secured.POST("/categories", g.createCategory)
			secured.GET("/categories/:id", g.getCategory)
			secured.PUT("/categories/:id", g.updateCategory)
			secured.DELETE("/categories/:id", g.deleteCategory)

			secured.GET("/products", g.adminListProducts)
			secured.POST("/products", g.createProduct)
			secured.GET("/products/:id", g.adminGetProduct)
			secured.PATCH("/products/:id", g.updateProduct)
			secured.PUT("/products/:id", g.updateProduct)
			secured.DELETE("/products/:id", g.deleteProduct)

			secured.POST("/upload", g.uploadImage)
			secured.DELETE("/upload/*publicId", g.deleteImage)

			secured.GET("/dashboard/stats", g.dashboardStats)
			secured.GET("/audit", g.auditTrail)
			secured.POST("/seed", requireRole(models.RoleSuperAdmin), g.seed)
		}
	}
}

func (g *Gateway) Start() error {
	g.server = &http.Server{
		Addr:         g.config.Server.Addr(),
		Handler:      g.router,
		ReadTimeout:  g.config.Server.ReadTimeout,
		WriteTimeout: g.config.Server.WriteTimeout,
	}
	g.logger.Info("Gateway starting", zap.String("address", g.config.Server.Addr()))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("requestID")),
		)
	}
}
