package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/3d-marketplace/auth-api/docs"
	"github.com/3d-marketplace/auth-api/internal/api/handler"
	"github.com/3d-marketplace/auth-api/internal/api/middleware"
	"github.com/3d-marketplace/auth-api/internal/core/domain"
	"github.com/3d-marketplace/auth-api/internal/core/ports"
)

const metricsSubsystem = "marketplace_http"

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Auth     ports.AuthService
	Accounts ports.AccountService
	Tokens   ports.TokenVerifier

	// LoginLimiter backs the per-IP window on POST /api/login. LoginWindow
	// is that window's length, reported to throttled clients.
	LoginLimiter echomiddleware.RateLimiterStore
	LoginWindow  time.Duration
	// Readiness lists the dependencies checked by /api/health/ready.
	Readiness map[string]handler.Pinger

	CORSAllowOrigins []string

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: deps.CORSAllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	profileHandler := handler.NewProfileHandler(deps.Accounts)
	adminHandler := handler.NewAdminHandler(deps.Accounts)
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Readiness, deps.Log)

	requireToken := middleware.Auth(deps.Tokens)
	loginLimit := middleware.LoginRateLimit(deps.LoginLimiter, deps.LoginWindow, deps.Log)

	// --- Operational routes ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Middleware is attached per route: a group-level Use would put the
	// group's catch-all 404 behind it as well.
	api := e.Group("/api")

	// --- Health probes (no auth required) ---
	api.GET("/health", healthHandler.Liveness)
	api.GET("/health/ready", readinessHandler.Readiness)

	// --- Auth routes ---
	api.POST("/login", authHandler.Login, loginLimit)
	api.POST("/register", authHandler.Register)
	api.POST("/logout", authHandler.Logout, requireToken)
	api.POST("/change-password", authHandler.ChangePassword, requireToken)

	// --- Profile ---
	api.GET("/profile", profileHandler.Get, requireToken)
	api.PUT("/profile", profileHandler.Update, requireToken)

	// --- Admin ---
	api.GET("/admin/users", adminHandler.ListUsers, requireToken, middleware.RBAC(domain.RoleAdmin))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
