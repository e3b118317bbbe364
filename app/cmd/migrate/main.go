package main

import (
	"database/sql"
	"embed"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"token-service/app/config"
	"token-service/app/utils/logger"
	"token-service/app/utils/migration"
)

//go:embed migrations
var migrationsFS embed.FS

func main() {
	var (
		command = flag.String("command", "up", "Migration command (up, down, status)")
		steps   = flag.String("steps", "0", "Number of steps for down migration")
		tenant  = flag.String("tenant", "", "Run against a single tenant (default: all)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Could not load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := cfg.LogLevel
	if *verbose {
		logLevel = "debug"
	}

	appLogger, err := logger.New(logLevel)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	registry, err := config.LoadRegistry(cfg)
	if err != nil {
		appLogger.Error("Failed to load tenant registry", "error", err)
		os.Exit(1)
	}

	tenantIDs := registry.IDs()
	if *tenant != "" {
		if !registry.Has(*tenant) {
			appLogger.Error("Unknown tenant", "tenant_id", *tenant)
			os.Exit(1)
		}
		tenantIDs = []string{*tenant}
	}

	// Every tenant database carries the same schema
	for _, tenantID := range tenantIDs {
		if err := migrateTenant(registry, tenantID, *command, *steps, appLogger); err != nil {
			appLogger.Error("Migration failed", "tenant_id", tenantID, "error", err)
			os.Exit(1)
		}
	}

	appLogger.Info("Migration command completed", "command", *command, "tenants", len(tenantIDs))
}

func migrateTenant(registry *config.Registry, tenantID, command, steps string, appLogger *slog.Logger) error {
	tenantLogger := appLogger.With("tenant_id", tenantID)

	t, err := registry.Get(tenantID)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", t.DB.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	migrator := migration.NewMigrator(db, tenantLogger, migrationsFS)

	switch command {
	case "up":
		if err := migrator.Up(); err != nil {
			return err
		}
		tenantLogger.Info("All migrations applied")

	case "down":
		stepCount, err := strconv.Atoi(steps)
		if err != nil {
			return fmt.Errorf("invalid steps value %q: %w", steps, err)
		}
		if stepCount <= 0 {
			stepCount = 1
		}
		for i := 0; i < stepCount; i++ {
			if err := migrator.Down(); err != nil {
				return err
			}
		}
		tenantLogger.Info("Migrations rolled back", "steps", stepCount)

	case "status":
		if err := migrator.Status(); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown command %q (available: up, down, status)", command)
	}

	return nil
}
