// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "motion-service/docs"
	"motion-service/internal/channel"
	"motion-service/internal/config"
	"motion-service/internal/database"
	"motion-service/internal/events"
	"motion-service/internal/handler"
	"motion-service/internal/metrics"
	"motion-service/internal/protocol"
	"motion-service/internal/repository"
	"motion-service/internal/routes"
	"motion-service/internal/service"
	"motion-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	// Background work
	ctx    context.Context
	cancel context.CancelFunc

	// Channel core
	syncIO *protocol.SyncIO
	table  *channel.Table

	// Services
	bus              *events.Bus
	metrics          *metrics.Metrics
	channelService   *service.ChannelService
	discoveryService *service.DiscoveryService
	wsHandler        *handler.WebSocketHandler

	// Repositories
	exchangeRepo repository.ExchangeRepository
}

// @title Motion Service API
// @version 1.0.0
// @description Channel table and resynchronizing command exchange for Newport XPS motion controllers

// @contact.name Motion Service API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8086
// @BasePath /api/v1
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "motion-service")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.initializeDatabase(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initializeRepositories()
	app.initializeChannelTable()
	app.initializeServices()
	app.initializeServer()

	return app, nil
}

// initializeDatabase sets up the journal database and runs migrations
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Info("Database disabled, exchange journal kept in memory")
		return nil
	}

	db, err := database.NewConnection(app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	if app.config.Database.AutoMigrate {
		migrator := database.NewMigrator(db, app.logger, &app.config.Database)
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates repository instances
func (app *Application) initializeRepositories() {
	if app.database != nil {
		app.exchangeRepo = repository.NewExchangeRepository(app.database, app.logger)
	} else {
		app.exchangeRepo = repository.NewMemoryExchangeRepository(app.config.Journal.MemoryCapacity)
	}

	app.logger.Info("Repositories initialized successfully")
}

// initializeChannelTable sets up the octet I/O ports and the channel table
func (app *Application) initializeChannelTable() {
	app.syncIO = protocol.NewSyncIO(app.config.Protocol, app.logger)
	app.table = channel.NewTable(app.syncIO, service.TableConfig(app.config.Channel), app.logger)

	app.logger.Info("Channel table initialized",
		zap.Int("capacity", app.table.Capacity()),
		zap.Strings("ports", app.syncIO.Ports()),
	)
}

// initializeServices creates service instances
func (app *Application) initializeServices() {
	app.bus = events.NewBus(app.logger)
	if app.config.Metrics.Enabled {
		app.metrics = metrics.New()
	}

	app.channelService = service.NewChannelService(
		app.table,
		app.exchangeRepo,
		app.bus,
		app.metrics,
		app.config,
		app.logger,
	)
	app.discoveryService = service.NewDiscoveryService(
		app.bus,
		app.logger,
		service.DefaultScanners(app.config, app.syncIO, app.syncIO, app.logger)...,
	)
	app.wsHandler = handler.NewWebSocketHandler(app.channelService, app.config, app.logger)

	app.logger.Info("Services initialized successfully")
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	var db handler.DatabaseChecker
	if app.database != nil {
		db = app.database
	}

	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		db,
		app.channelService,
		app.discoveryService,
		app.syncIO,
		app.metrics,
		app.wsHandler,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      routerManager.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)
}

// startBackgroundServices starts background services
func (app *Application) startBackgroundServices() {
	go app.bus.Run(app.ctx)
	go app.wsHandler.Forward(app.ctx, app.bus.Subscribe(events.AllEvents))
	go app.channelService.RunCleanup(app.ctx, app.config.Journal.CleanupInterval)

	app.logger.Info("Background services started")
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "motion-service")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	closed, err := app.channelService.CloseAll()
	if err != nil {
		app.logger.Error("Channel close error", zap.Int("closed", closed), zap.Error(err))
	} else {
		app.logger.Info("Channels closed", zap.Int("closed", closed))
	}

	app.cancel()

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start runs the HTTP server until a shutdown signal arrives
func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.startBackgroundServices()
	app.waitForShutdown()

	return nil
}
