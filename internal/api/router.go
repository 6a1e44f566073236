package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/taskdash/task-dashboard-api/internal/api/handler"
	"github.com/taskdash/task-dashboard-api/internal/api/middleware"
	"github.com/taskdash/task-dashboard-api/internal/core/ports"
	"github.com/taskdash/task-dashboard-api/internal/infrastructure/config"
)

// Deps collects everything the router needs. Services arrive as ports so
// tests can wire in-memory implementations; a nil Limiter or Readiness simply
// disables that concern.
type Deps struct {
	AuthService ports.AuthService
	TaskService ports.TaskService
	Limiter     middleware.Limiter
	RateLimits  config.RateLimitConfig
	Readiness   echo.HandlerFunc
	// Registry overrides the default Prometheus registry for the HTTP
	// request metrics and the /metrics endpoint. Tests use a private
	// registry so repeated router construction does not double-register.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	registerer := prometheus.DefaultRegisterer
	gatherer := prometheus.DefaultGatherer
	if deps.Registry != nil {
		registerer = deps.Registry
		gatherer = deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "taskdash",
		Registerer: registerer,
	}))

	authHandler := handler.NewAuthHandler(deps.AuthService)
	taskHandler := handler.NewTaskHandler(deps.TaskService)
	authMiddleware := middleware.Auth(deps.AuthService)

	limit := func(scope string, perMinute int) echo.MiddlewareFunc {
		return middleware.RateLimit(deps.Limiter, scope, perMinute, deps.Log)
	}

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register, limit("register", deps.RateLimits.RegisterPerMinute))
	e.POST("/auth/login", authHandler.Login, limit("login", deps.RateLimits.LoginPerMinute))
	e.GET("/auth/me", authHandler.Me, authMiddleware)

	// --- Task routes (all authenticated, all owner-scoped) ---
	tasks := e.Group("/tasks", authMiddleware, limit("api", deps.RateLimits.APIPerMinute))
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.GET("/stats", taskHandler.Stats)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.PATCH("/:id/status", taskHandler.UpdateStatus)
	tasks.DELETE("/:id", taskHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness) // liveness – is the process alive?
	if deps.Readiness != nil {
		e.GET("/health/ready", deps.Readiness) // readiness – are dependencies up?
	} else {
		e.GET("/health/ready", healthHandler.Liveness)
	}

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer,
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
