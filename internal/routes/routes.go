// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"motion-service/internal/config"
	"motion-service/internal/handler"
	"motion-service/internal/metrics"
	"motion-service/internal/middleware"
	"motion-service/internal/service"
	"motion-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config         *config.Config
	logger         *zap.Logger
	db             handler.DatabaseChecker
	channelService *service.ChannelService
	discovery      *service.DiscoveryService
	ports          handler.PortRegistry
	metrics        *metrics.Metrics
	wsHandler      *handler.WebSocketHandler
}

// NewRouter creates a new router instance. db, discoveryService and m may be nil.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db handler.DatabaseChecker,
	channelService *service.ChannelService,
	discoveryService *service.DiscoveryService,
	ports handler.PortRegistry,
	m *metrics.Metrics,
	wsHandler *handler.WebSocketHandler,
) *Router {
	return &Router{
		config:         config,
		logger:         logger,
		db:             db,
		channelService: channelService,
		discovery:      discoveryService,
		ports:          ports,
		metrics:        m,
		wsHandler:      wsHandler,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if r.config.App.Environment == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.channelService, r.config, r.logger)
	channelHandler := handler.NewChannelHandler(r.channelService, r.logger)
	portsHandler := handler.NewPortsHandler(r.ports, r.logger)

	// Health check routes
	healthHandler.RegisterRoutes(router)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	channelHandler.RegisterRoutes(apiV1)
	portsHandler.RegisterRoutes(apiV1)
	if r.discovery != nil {
		handler.NewDiscoveryHandler(r.discovery, r.logger).RegisterRoutes(apiV1)
	}

	// WebSocket routes
	if r.wsHandler != nil {
		r.wsHandler.RegisterRoutes(router.Group("/ws"))
	}

	r.addMetricsRoutes(router)
	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addMetricsRoutes exposes prometheus metrics when enabled
func (r *Router) addMetricsRoutes(router *gin.Engine) {
	if r.metrics == nil || !r.config.Metrics.Enabled {
		return
	}
	path := r.config.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	router.GET(path, gin.WrapH(r.metrics.Handler()))
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
