package gateway

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/media"
)

const uploadField = "file"

func (g *Gateway) uploadImage(c *gin.Context) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		g.respondError(c, media.ErrNoFile)
		return
	}
	if fh.Size > g.config.Media.MaxSize {
		g.respondError(c, media.ErrTooLarge)
		return
	}
	f, err := fh.Open()
	if err != nil {
		g.respondError(c, err)
		return
	}
	defer f.Close()

	img, err := media.ReadImage(f, fh.Filename, g.config.Media.MaxSize)
	if err != nil {
		g.respondError(c, err)
		return
	}
	up, err := g.svc.Media.Upload(c.Request.Context(), img)
	if err != nil {
		g.respondError(c, err)
		return
	}
	g.logger.Info("Image uploaded by admin", zap.String("public_id", up.PublicID), zap.String("actor", actor(c)))
	c.JSON(http.StatusOK, up)
}

func (g *Gateway) deleteImage(c *gin.Context) {
	publicID := strings.TrimPrefix(c.Param("publicId"), "/")
	if publicID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "publicId is required"})
		return
	}
	if err := g.svc.Media.Delete(c.Request.Context(), publicID); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "image deleted", "publicId": publicID})
}

func (g *Gateway) dashboardStats(c *gin.Context) {
	stats, err := g.svc.Stats.Dashboard(c.Request.Context())
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (g *Gateway) seed(c *gin.Context) {
	res, err := g.svc.Seed.Seed(c.Request.Context())
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           "sample data seeded",
		"categoriesCreated": res.CategoriesCreated,
		"productsCreated":   res.ProductsCreated,
	})
}

// auditTrail lists recent audit entries, newest first, optionally for one
// entity via ?entityId=.
func (g *Gateway) auditTrail(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := g.svc.Audit.Recent(c.Request.Context(), c.Query("entityId"), limit)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
