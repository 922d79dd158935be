// Atrium Core - Back-Office Authentication Service
//
// This is the main entry point for the Atrium Core application.
// Atrium provides the authentication and authorisation backbone for
// administrative back-office systems:
//   - Credential verification with brute-force throttling
//   - Redis-backed multi-device sessions
//   - Role-based permission resolution
//   - Menu and department trees for admin consoles
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	_ "github.com/atrium-ops/atrium-core/migrations"

	"github.com/atrium-ops/atrium-core/internal/api"
	"github.com/atrium-ops/atrium-core/internal/audit"
	"github.com/atrium-ops/atrium-core/internal/auth"
	"github.com/atrium-ops/atrium-core/internal/directory"
	"github.com/atrium-ops/atrium-core/internal/infrastructure/config"
	"github.com/atrium-ops/atrium-core/internal/infrastructure/database"
	"github.com/atrium-ops/atrium-core/internal/infrastructure/logging"
	"github.com/atrium-ops/atrium-core/internal/infrastructure/redis"
	"github.com/atrium-ops/atrium-core/internal/rbac"
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

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Atrium Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to Redis (session store and throttle counters)
	redisClient, err := redis.Connect(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to Redis: %w", err)
	}
	defer func() {
		log.Info("closing Redis connection")
		if closeErr := redisClient.Close(); closeErr != nil {
			log.Error("error closing Redis", "error", closeErr)
		}
	}()
	log.Info("Redis connected", "addr", cfg.Redis.Addr)

	// Wire the auth stack
	accounts := auth.NewAccountRepository(db.DB)
	logins := audit.NewSQLiteRepository(db.DB)
	store := auth.NewRedisStore(redisClient.Cmdable())
	throttle := auth.NewThrottle(store, cfg.Security.Throttle.MaxAttempts, cfg.Security.ThrottleWindow())
	verifier := auth.NewVerifier(accounts, throttle)
	issuer := auth.NewTokenIssuer(cfg.Security.JWT.Secret, cfg.App.Realm, cfg.Security.TokenTTL())
	manager := auth.NewManager(accounts, verifier, issuer, store, logins, log.Logger,
		auth.ManagerOptions{
			Realm:       cfg.App.Realm,
			ExpiryGrace: cfg.Security.SessionExpiryGrace(),
		})
	log.Info("auth stack initialised",
		"realm", cfg.App.Realm,
		"token_ttl", cfg.Security.TokenTTL(),
		"throttle_max_attempts", cfg.Security.Throttle.MaxAttempts,
	)

	// Seed the first administrator on an empty database
	if _, seedErr := auth.SeedSuperAdmin(ctx, db.DB, accounts, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding super admin: %w", seedErr)
	}

	// Start the login log retention job
	scheduler, err := startRetention(cfg, logins, log)
	if err != nil {
		return fmt.Errorf("starting retention job: %w", err)
	}
	if scheduler != nil {
		defer func() {
			log.Info("stopping retention scheduler")
			<-scheduler.Stop().Done()
		}()
	}

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Manager:  manager,
		Issuer:   issuer,
		Resolver: rbac.NewResolver(db.DB),
		Menus:    directory.NewMenuRepository(db.DB),
		Depts:    directory.NewDeptRepository(db.DB),
		Logins:   logins,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, redisClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Retention scheduler
	// 3. Redis
	// 4. Database

	log.Info("Atrium Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ATRIUM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ATRIUM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, redisClient *redis.Client, apiServer *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := redisClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// startRetention schedules the periodic login log prune. A zero retention
// period disables the job entirely.
func startRetention(cfg *config.Config, logins audit.Repository, log *logging.Logger) (*cron.Cron, error) {
	if cfg.Retention.LoginLogDays <= 0 {
		log.Info("login log retention disabled")
		return nil, nil
	}

	retain := time.Duration(cfg.Retention.LoginLogDays) * 24 * time.Hour
	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Retention.PruneSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		pruned, pruneErr := logins.PruneOlderThan(ctx, time.Now().Add(-retain))
		if pruneErr != nil {
			log.Error("login log prune failed", "error", pruneErr)
			return
		}
		if pruned > 0 {
			log.Info("pruned old login logs", "rows", pruned, "older_than_days", cfg.Retention.LoginLogDays)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling prune job: %w", err)
	}

	scheduler.Start()
	log.Info("retention scheduler started",
		"schedule", cfg.Retention.PruneSchedule,
		"login_log_days", cfg.Retention.LoginLogDays,
	)
	return scheduler, nil
}
