// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/charmbracelet/log"
	"github.com/floor-layout/backend/internal/auth"
	"github.com/floor-layout/backend/internal/provider"
	"github.com/floor-layout/backend/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store    store.Store
	Provider provider.Provider
	Issuer   *auth.Issuer
	Metrics  *Metrics  // optional
	Events   *EventHub // optional
	Logger   *log.Logger
	Mode     string
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Auth   AuthHandler
	Layout LayoutHandler
	Data   DataHandler

	auth    *Authenticator
	metrics *Metrics
	events  *EventHub
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	apiLog := logger.WithPrefix("api")

	var events Publisher
	if deps.Events != nil {
		events = deps.Events
	}

	p := deps.Provider
	if deps.Metrics != nil {
		p = provider.Observed(p, deps.Metrics.ObserveProvider)
	}

	return &Handlers{
		Health: NewHealthHandler(deps.Version, deps.Mode, deps.Provider.Mode()),
		Auth:   NewAuthHandler(deps.Store, deps.Issuer, apiLog),
		Layout: NewLayoutHandler(deps.Store, events, apiLog),
		Data:   NewDataHandler(p, apiLog),

		auth:    NewAuthenticator(deps.Store, deps.Issuer, apiLog),
		metrics: deps.Metrics,
		events:  deps.Events,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	authenticated := handlers.auth.Authenticated()
	maintainer := handlers.auth.RequireRole(auth.RoleMaintainer)
	admin := handlers.auth.RequireRole(auth.RoleAdmin)

	// Health check
	e.GET("/health", handlers.Health.HandleHealth)
	if handlers.metrics != nil {
		e.GET("/metrics", handlers.metrics.Handler())
	}

	// Auth routes
	authGroup := e.Group("/api/auth")
	authGroup.POST("/login", handlers.Auth.HandleLogin)
	authGroup.POST("/register", handlers.Auth.HandleRegister)
	authGroup.GET("/verify", handlers.Auth.HandleVerify, authenticated)
	authGroup.GET("/users", handlers.Auth.HandleListUsers, admin)
	authGroup.PUT("/users/:id/role", handlers.Auth.HandleUpdateUserRole, admin)

	// Layout routes
	layoutGroup := e.Group("/api/layouts")
	layoutGroup.GET("", handlers.Layout.HandleListLayouts)
	layoutGroup.POST("", handlers.Layout.HandleCreateLayout, maintainer)
	layoutGroup.GET("/:id", handlers.Layout.HandleGetLayout)
	layoutGroup.PUT("/:id", handlers.Layout.HandleUpdateLayout, maintainer)
	layoutGroup.DELETE("/:id", handlers.Layout.HandleDeleteLayout, maintainer)
	layoutGroup.POST("/:id/components", handlers.Layout.HandleCreateComponent, maintainer)

	// Component routes, also reachable under the older /api/layouts/components prefix
	for _, prefix := range []string{"/api/components", "/api/layouts/components"} {
		componentGroup := e.Group(prefix)
		componentGroup.PUT("/:id", handlers.Layout.HandleUpdateComponent, maintainer)
		componentGroup.PATCH("/:id", handlers.Layout.HandleUpdateComponent, maintainer)
		componentGroup.DELETE("/:id", handlers.Layout.HandleDeleteComponent, maintainer)
	}

	// WIP data routes
	dataGroup := e.Group("/api/data")
	dataGroup.POST("/wip", handlers.Data.HandleWip)
	dataGroup.POST("/wip/msgpack", handlers.Data.HandleWipMsgpack)
	dataGroup.POST("/counts", handlers.Data.HandleCounts)

	RegisterWebSocketRoutes(e, handlers)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	if handlers.events == nil {
		return
	}
	e.GET("/api/ws/layouts", handlers.events.HandleWebSocket)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, handlers *Handlers, showErrorDetails bool) {
	e.HTTPErrorHandler = NewErrorHandler(showErrorDetails)

	// The editor calls /api/layouts/ with a trailing slash
	e.Pre(middleware.RemoveTrailingSlash())

	if handlers.metrics != nil {
		e.Use(handlers.metrics.Middleware())
	}
}
