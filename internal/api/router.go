package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/diosesguerreros/vehicle-portal/docs"
	"github.com/diosesguerreros/vehicle-portal/internal/api/handler"
	"github.com/diosesguerreros/vehicle-portal/internal/api/middleware"
	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
	"github.com/diosesguerreros/vehicle-portal/internal/infrastructure/http/handlers"
	"github.com/diosesguerreros/vehicle-portal/internal/web"
)

// Deps is everything the router wires into handlers. Mongo and Redis may be
// nil when the audit trail or the shared token store are disabled.
type Deps struct {
	Clients   *service.ClientRegistry
	Screens   *service.ScreenRegistry
	Validator echo.Validator
	Cookie    middleware.CookieOptions
	Backend   handlers.Pinger
	Mongo     *mongo.Database
	Redis     *redis.Client
	Log       zerolog.Logger

	// Registerer and Gatherer default to the global prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) (*echo.Echo, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}
	if deps.Validator == nil {
		deps.Validator = handler.NewValidator()
	}
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = deps.Validator
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.Secure())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "portal",
		Registerer: deps.Registerer,
	}))

	// --- Operational endpoints (no client cookie) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Backend, deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.StaticFS("/static", web.Static())

	// --- Everything below knows its browser ---
	// Per route, so unmatched paths never create a client.
	withClient := middleware.Client(deps.Cookie, deps.Clients)

	app := handler.NewAppHandler(deps.Screens, deps.Log)
	e.GET("/", app.Index, withClient)
	e.POST("/login", app.Login, withClient)
	e.POST("/logout", app.Logout, withClient)
	e.POST("/navigate", app.Navigate, withClient)
	e.POST("/sidebar/toggle", app.ToggleSidebar, withClient)
	e.POST("/sidebar/close", app.CloseSidebar, withClient)
	e.POST("/screens/:page/items", app.Submit, withClient)
	e.POST("/screens/:page/items/:id", app.Submit, withClient)
	e.POST("/screens/:page/items/:id/delete", app.Delete, withClient)

	sessions := handler.NewSessionHandler(deps.Screens, deps.Log)
	apiGroup := e.Group("/api")
	apiGroup.GET("/session", sessions.Get, withClient)
	apiGroup.POST("/session", sessions.Login, withClient)
	apiGroup.DELETE("/session", sessions.Logout, withClient)
	apiGroup.POST("/session/refresh", sessions.Refresh, withClient, middleware.RequireSession())
	apiGroup.GET("/menu", sessions.Menu, withClient, middleware.RequireSession())
	apiGroup.GET("/screens/:page", sessions.Screen, withClient, middleware.PageAccess("page"))

	return e, nil
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
