package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kharcha/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteLedger stores the serialized ledger blob in a single-row
// key-value table. The blob-store contract is unchanged: every save
// rewrites the whole blob under one key, inside one statement.
type SQLiteLedger struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

// LoadAll reads the full ledger blob. A missing row is an empty
// ledger; a corrupt blob is logged and treated as empty.
func (l *SQLiteLedger) LoadAll(ctx context.Context) ([]core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var blob []byte
	err := l.db.QueryRowContext(ctx,
		`SELECT value FROM ledger_blobs WHERE key = ?`, StorageKey).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.WarnContext(ctx, "Ledger blob unreadable, starting empty",
			"key", StorageKey, "error", err)
		return nil, nil
	}

	records, err := decodeRecords(blob)
	if err != nil {
		slog.WarnContext(ctx, "Ledger blob corrupt, starting empty",
			"key", StorageKey, "error", err)
		return nil, nil
	}
	return records, nil
}

// SaveAll upserts the whole serialized ledger under the storage key.
func (l *SQLiteLedger) SaveAll(ctx context.Context, records []core.Expense) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	blob, err := encodeRecords(records)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO ledger_blobs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		StorageKey, blob, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: upsert blob: %v", ErrWrite, err)
	}

	slog.DebugContext(ctx, "Ledger saved", "key", StorageKey, "records", len(records))
	return nil
}

func (l *SQLiteLedger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}
