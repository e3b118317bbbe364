package rest

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"token-service/app/port"
	"token-service/app/rest/handlers"
	custommw "token-service/app/rest/middleware"
	"token-service/app/utils/validator"
)

// RouterConfig holds router configuration
type RouterConfig struct {
	Logger       *slog.Logger
	AuthUsecase  port.AuthUsecase
	Validator    *validator.Validator
	StorageCheck func(ctx context.Context) error
	EnableDebug  bool
}

// NewRouter creates and configures the Echo router
func NewRouter(config RouterConfig) *echo.Echo {
	e := echo.New()

	e.HideBanner = true
	e.Debug = config.EnableDebug

	authHandler := handlers.NewAuthHandler(config.AuthUsecase, config.Validator, config.Logger)
	healthHandler := handlers.NewHealthHandler(config.Logger, config.StorageCheck)

	rateLimiter := custommw.NewRateLimiter()

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(custommw.DefaultCORS())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}, error=${error}\n",
	}))

	// API versioning
	v1 := e.Group("/v1")

	// Health endpoints (no auth required)
	v1.GET("/health", healthHandler.HealthCheck)
	v1.GET("/ready", healthHandler.ReadinessCheck)
	v1.GET("/live", healthHandler.LivenessCheck)

	// Authentication endpoints
	auth := v1.Group("/auth")
	auth.GET("", authHandler.AuthCheck)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/register", authHandler.Register)

	return e
}
