// Package cli provides common initialization shared by cmd/kharcha
// and cmd/kharcha-report.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kharcha/internal/backend"
	"kharcha/internal/config"
	"kharcha/internal/log"
	"kharcha/internal/storage"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *log.Logger {
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// OpenLedger constructs the configured ledger store.
// Returns the store or exits the process on failure.
func OpenLedger(logger *log.Logger, cfg *config.Config) storage.Ledger {
	store, err := backend.Open(backend.Config{
		Type:           backend.Type(cfg.LedgerBackend),
		LedgerFilePath: cfg.LedgerFilePath,
		SQLiteDBPath:   cfg.SQLiteDBPath,
	}, logger.WithComponent(log.ComponentBackend).Logger)
	if err != nil {
		logger.Error("Failed to open ledger store", log.FieldError, err.Error(), "backend", cfg.LedgerBackend)
		os.Exit(1)
	}
	return store
}

// NotifyShutdown returns a context cancelled on SIGINT or SIGTERM.
func NotifyShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ShutdownTimeout is how long in-flight requests get to finish once a
// shutdown signal arrives.
const ShutdownTimeout = 10 * time.Second
