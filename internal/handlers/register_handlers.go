package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/kasapahq/vendorpay/cmd/docs"
	"github.com/kasapahq/vendorpay/internal/core/services"
	"github.com/kasapahq/vendorpay/internal/middleware"
	"github.com/kasapahq/vendorpay/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies from
// the service container.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, container *services.Container) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	// Register public authentication routes
	registerAuthRoutes(r, cfg, container.User)

	// Setup API v1 routes with Auth Middleware
	setupAPIV1Routes(r, cfg, container)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific
// entity route registrations.
func setupAPIV1Routes(r *gin.Engine, cfg *config.Config, container *services.Container) {
	rate, _ := limiter.NewRateFromFormatted("100-M")
	ipLimiter := limiter.New(memory.NewStore(), rate)

	// Apply rate limiting and AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.RateLimit(ipLimiter), middleware.AuthMiddleware(cfg.JWTSecret))

	registerBatchRoutes(v1, container.Finalization)
	registerRateRoutes(v1, container.Rate)
	registerLedgerRoutes(v1, container.Ledger)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
