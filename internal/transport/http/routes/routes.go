package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Lmagalhaesz/classly/internal/infra/config"
	"github.com/Lmagalhaesz/classly/internal/transport/http/handlers"
	"github.com/Lmagalhaesz/classly/internal/transport/http/middleware"
	"github.com/Lmagalhaesz/classly/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth         *usecase.AuthService
	Registration *usecase.RegistrationService
	Sessions     *usecase.SessionService
	Tokens       *usecase.TokenService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.CORSOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	checks := make(map[string]handlers.ReadinessCheck, 2)
	if deps.Database != nil {
		checks["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}

	healthHandler := handlers.NewHealthHandler(checks)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")

		secureCookies := deps.Config.App.Env == "production"
		authHandler := handlers.NewAuthHandler(
			deps.Services.Auth,
			deps.Config.JWT.RefreshTokenTTL,
			handlers.WithRegistrationService(deps.Services.Registration),
			handlers.WithSecureCookies(secureCookies),
		)

		authHandler.RegisterRoutes(authGroup, handlers.RouteMiddlewares{
			Login:    buildRateLimitMiddlewares(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts),
			Register: buildRateLimitMiddlewares(deps, "auth_register_ip", deps.Config.RateLimit.RegisterMaxAttempts),
		})

		sessionHandler := handlers.NewSessionHandler(deps.Services.Sessions, deps.Services.Auth)
		sessionHandler.RegisterRoutes(authGroup)

		tokenHandler := handlers.NewTokenHandler(deps.Services.Tokens, deps.Services.Auth)
		tokenHandler.RegisterRoutes(authGroup)
	}

	return r
}

func buildRateLimitMiddlewares(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
