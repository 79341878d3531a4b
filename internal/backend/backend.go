// Package backend selects and constructs the ledger store from
// configuration.
package backend

import (
	"fmt"
	"log/slog"

	"kharcha/internal/storage"
)

// Type identifies a ledger storage backend.
type Type string

const (
	FileBackend   Type = "file"
	SQLiteBackend Type = "sqlite"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid.
func (t Type) IsValid() bool {
	switch t {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build a ledger store.
type Config struct {
	Type Type

	// File backend
	LedgerFilePath string

	// SQLite backend
	SQLiteDBPath string
}

// Open constructs the configured ledger store. The returned store owns
// its resources; callers close it via Ledger.Close.
func Open(cfg Config, logger *slog.Logger) (storage.Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid ledger backend: %s", cfg.Type)
	}

	switch cfg.Type {
	case SQLiteBackend:
		store, err := storage.NewSQLiteLedger(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite ledger: %w", err)
		}
		logger.Info("Initialized sqlite ledger backend", "db_path", cfg.SQLiteDBPath)
		return store, nil
	default:
		store, err := storage.NewFileLedger(cfg.LedgerFilePath)
		if err != nil {
			return nil, fmt.Errorf("initialize file ledger: %w", err)
		}
		logger.Info("Initialized file ledger backend", "path", cfg.LedgerFilePath)
		return store, nil
	}
}
