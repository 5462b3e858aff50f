package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/service"
)

const adminKey = "admin"

// authenticate requires a bearer token for a live admin account.
func (g *Gateway) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		u, err := g.svc.Auth.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			g.respondError(c, err)
			c.Abort()
			return
		}
		c.Set(adminKey, u)
		c.Next()
	}
}

func requireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentAdmin(c)
		if u == nil || !u.Role.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

func currentAdmin(c *gin.Context) *models.AdminUser {
	v, _ := c.Get(adminKey)
	u, _ := v.(*models.AdminUser)
	return u
}

// actor names the admin behind a request for the audit trail.
func actor(c *gin.Context) string {
	if u := currentAdmin(c); u != nil {
		return u.Username
	}
	return ""
}

type adminView struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	LastLogin *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func toAdminView(u *models.AdminUser) adminView {
	return adminView{
		ID:        u.ID.Hex(),
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

func (g *Gateway) register(c *gin.Context) {
	var in service.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.respondError(c, bindError(err))
		return
	}
	u, err := g.svc.Auth.Register(c.Request.Context(), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "admin account created", "user": toAdminView(u)})
}

func (g *Gateway) login(c *gin.Context) {
	var in service.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.respondError(c, bindError(err))
		return
	}
	token, u, err := g.svc.Auth.Login(c.Request.Context(), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged in", "token": token, "user": toAdminView(u)})
}

func (g *Gateway) verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": toAdminView(currentAdmin(c))})
}
