// Feedline Core - shared resource feed with live updates
//
// This is the main entry point for the Feedline Core server. It serves a
// REST API over one resource collection, authenticates callers with bearer
// tokens and pushes every committed mutation to WebSocket subscribers.
//
// "feedline migrate up|down|status" manages the schema without starting
// the server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/feedline-core/internal/api"
	"github.com/nerrad567/feedline-core/internal/auth"
	"github.com/nerrad567/feedline-core/internal/hub"
	"github.com/nerrad567/feedline-core/internal/infrastructure/blob"
	"github.com/nerrad567/feedline-core/internal/infrastructure/config"
	"github.com/nerrad567/feedline-core/internal/infrastructure/database"
	"github.com/nerrad567/feedline-core/internal/infrastructure/logging"
	"github.com/nerrad567/feedline-core/internal/resource"
	"github.com/nerrad567/feedline-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// startupHealthTimeout bounds the health check run after startup.
const startupHealthTimeout = 5 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Feedline Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
		Migrations:  migrations.FS,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	users := auth.NewUserRepository(db.DB)
	if cfg.Bootstrap.Enabled {
		if _, seedErr := auth.SeedBootstrap(ctx, users, cfg.Bootstrap.Identifier, log.Logger); seedErr != nil {
			return fmt.Errorf("seeding bootstrap account: %w", seedErr)
		}
	}

	tokens, err := auth.NewTokenIssuer(cfg.Security.JWT.Secret, cfg.AccessTokenTTL())
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}

	blobs, err := blob.NewStore(cfg.Uploads.Dir, cfg.Uploads.URLPrefix, cfg.Uploads.MaxSize)
	if err != nil {
		return fmt.Errorf("opening upload store: %w", err)
	}
	log.Info("upload store ready", "dir", blobs.Dir(), "url_prefix", blobs.URLPrefix())

	// The hub outlives the HTTP server so in-flight mutations can still
	// publish while requests drain.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	notifications := hub.New(cfg.WebSocket, log)
	go notifications.Run(hubCtx)

	resources := resource.NewService(
		resource.NewRepository(db.DB),
		notifications,
		blobs,
		resource.PageDefaults{
			Size:    cfg.Pagination.DefaultPageSize,
			MaxSize: cfg.Pagination.MaxPageSize,
		},
		log,
	)

	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Uploads:   cfg.Uploads,
		Logger:    log,
		DB:        db,
		Users:     users,
		Tokens:    tokens,
		Resources: resources,
		Hub:       notifications,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
		stopHub()
	}()

	healthCtx, cancelHealth := context.WithTimeout(ctx, startupHealthTimeout)
	defer cancelHealth()
	if err := server.HealthCheck(healthCtx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server (drains requests), then the hub (closes WebSockets)
	// 2. Database

	log.Info("Feedline Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FEEDLINE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FEEDLINE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
