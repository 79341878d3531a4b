package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"kharcha/internal/core"
)

// FileLedger stores the serialized ledger in a single JSON file,
// written atomically via temp-file rename.
type FileLedger struct {
	mu   sync.Mutex
	path string
}

func NewFileLedger(path string) (*FileLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	return &FileLedger{path: path}, nil
}

// LoadAll reads the full ledger. A missing file is an empty ledger; a
// corrupt file is logged and treated as empty rather than propagated.
func (l *FileLedger) LoadAll(ctx context.Context) ([]core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.WarnContext(ctx, "Ledger file unreadable, starting empty",
				"path", l.path, "error", err)
		}
		return nil, nil
	}

	records, err := decodeRecords(data)
	if err != nil {
		slog.WarnContext(ctx, "Ledger blob corrupt, starting empty",
			"path", l.path, "error", err)
		return nil, nil
	}
	return records, nil
}

// SaveAll replaces the persisted ledger with records. The write goes
// to a temp file first and is renamed into place, so readers never
// observe a partial blob.
func (l *FileLedger) SaveAll(ctx context.Context, records []core.Expense) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := encodeRecords(records)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrWrite, tmp, err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", ErrWrite, l.path, err)
	}

	slog.DebugContext(ctx, "Ledger saved", "path", l.path, "records", len(records))
	return nil
}

func (l *FileLedger) Close() error { return nil }
