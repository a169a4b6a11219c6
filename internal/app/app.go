package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mhorta/tfpulse/config"
	"github.com/mhorta/tfpulse/internal/api"
	"github.com/mhorta/tfpulse/internal/service"
	"github.com/mhorta/tfpulse/internal/storage"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Opens the configured bar store backend (PostgreSQL or ClickHouse).
//   - Initializes the repository layer (BarRepository).
//   - Creates the service and HTTP handler layers.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes.
//   - Provides a cleanup function to close resources (e.g., DB connection).
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	// Load global configuration
	cfg := config.AppConfig

	// Open the storage backend selected by STORAGE_BACKEND
	repo, ping, cleanup, err := OpenRepository(cfg)
	if err != nil {
		return nil, nil, err
	}

	// Initialize service layer (business logic)
	svc := service.NewTimeframeService(repo)

	// Initialize HTTP handler layer (business logic to HTTP mapping)
	handler := api.NewHandler(svc)

	// Setup Gin router with routes
	router := api.NewRouter(handler)

	// Register health and readiness probes
	healthHandler := api.NewHealthHandler(ping)
	healthHandler.Register(router)

	return router, cleanup, nil
}

// OpenRepository opens the bar repository for the configured backend
// and returns it with a readiness ping and a cleanup function. It is
// also used by the CLI ingest and fetch modes, which need a repository
// without the HTTP stack.
func OpenRepository(cfg config.Config) (storage.BarRepository, func() error, func(), error) {
	switch cfg.Storage.Backend {
	case "", "postgres":
		// indirection for unit testing
		db, err := postgresOpener(cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		return storage.NewBarRepository(db), db.Ping, func() { _ = db.Close() }, nil

	case "clickhouse":
		conn, err := clickhouseOpener(cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize clickhouse: %w", err)
		}
		ping := func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return conn.Ping(ctx)
		}
		repo := storage.NewClickHouseBarRepository(conn, cfg.ClickHouse.DBName)
		return repo, ping, func() { _ = conn.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
