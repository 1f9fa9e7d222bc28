package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront-backend/internal/ratelimit"
	"storefront-backend/internal/service"
	"storefront-backend/pkg/logger"
)

// HealthFunc reports per-dependency health for the healthz endpoint.
type HealthFunc func(ctx context.Context) (healthy bool, detail gin.H)

// RouterConfig carries the non-handler wiring the router needs.
type RouterConfig struct {
	CORSOrigins []string
	AdminToken  string
	Health      HealthFunc
}

// NewRouter assembles the gin engine with middleware and all routes.
func NewRouter(
	authHandler *AuthHandler,
	productHandler *ProductHandler,
	orderHandler *OrderHandler,
	authService service.AuthServiceInterface,
	limiter ratelimit.Limiter,
	cfg RouterConfig,
	log *logger.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Admin-Token"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		if cfg.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		healthy, detail := cfg.Health(c.Request.Context())
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, detail)
	})

	api := r.Group("/api")
	{
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		api.GET("/products", productHandler.ListProducts)
		api.GET("/products/:id", productHandler.GetProduct)

		admin := api.Group("", AdminOnly(cfg.AdminToken, log))
		{
			admin.POST("/products", productHandler.CreateProduct)
			admin.PUT("/products/:id", productHandler.UpdateProduct)
		}

		// Order creation allows guests, so auth is optional; the rate
		// limiter runs after auth to key on the user when one exists.
		api.POST("/orders",
			OptionalAuth(authService),
			RateLimit(limiter, log),
			orderHandler.CreateOrder)

		api.GET("/orders/lookup", orderHandler.LookupGuestOrder)

		authed := api.Group("", AuthRequired(authService))
		{
			authed.GET("/orders/history", orderHandler.GetOrderHistory)
			authed.GET("/orders/:id", orderHandler.GetOrder)
		}
	}

	return r
}
