package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/mwhitfield/taskboard-api/internal/config"
	"github.com/mwhitfield/taskboard-api/internal/events"
	"github.com/mwhitfield/taskboard-api/internal/platform/postgres"
	"github.com/mwhitfield/taskboard-api/internal/service"
	"github.com/mwhitfield/taskboard-api/internal/service/auth"
	"github.com/mwhitfield/taskboard-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore     store.UserStore
	taskStore     store.TaskStore
	categoryStore store.CategoryStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	taskService      service.TaskService
	categoryService  service.CategoryService

	// Event fan-out
	hub     *events.Hub
	hubStop context.CancelFunc
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.categoryStore = postgres.NewPostgresCategoryStore(db, logger)

	// The hub is created here and handed to the task service by reference,
	// so handlers, services, and the websocket endpoint all share one
	// broadcast loop.
	app.hub = events.NewHub(logger)

	app.taskService, err = service.NewTaskService(app.taskStore, app.categoryStore, app.hub, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.categoryService, err = service.NewCategoryService(db, app.categoryStore, app.taskStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create category service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the event hub and the HTTP server, handling lifecycle and
// cleanup. It returns an error if the server fails to start or encounters
// problems.
func (app *application) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	app.hubStop = stopHub
	go app.hub.Run(hubCtx)

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop the event hub's broadcast loop
	if app.hubStop != nil {
		app.hubStop()
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
