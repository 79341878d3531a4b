// Package storage persists the expense ledger as a single serialized
// blob. Every mutation is a full read-modify-write of that blob; there
// is no partial write path. This is safe because the application has
// exactly one writer (see the services package).
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"kharcha/internal/core"
)

// StorageKey is the single key the ledger blob lives under, kept for
// compatibility with blobs written by earlier versions.
const StorageKey = "expenses"

// ErrWrite marks a failed ledger write. Write failures must reach the
// caller: swallowing them would make data loss invisible.
var ErrWrite = errors.New("ledger write failed")

// Ledger is the blob-store port. LoadAll returns the full persisted
// sequence; an unreadable or corrupt blob is absorbed and reported as
// an empty ledger, never as a fatal error. SaveAll replaces the whole
// persisted sequence atomically from the caller's perspective.
type Ledger interface {
	LoadAll(ctx context.Context) ([]core.Expense, error)
	SaveAll(ctx context.Context, records []core.Expense) error
	Close() error
}

// decodeRecords parses a serialized ledger blob and normalizes legacy
// records (absent month, timestamp-bearing ids).
func decodeRecords(data []byte) ([]core.Expense, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []core.Expense
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse ledger blob: %w", err)
	}
	for i := range records {
		records[i].Normalize()
	}
	return records, nil
}

// encodeRecords serializes the ledger. A nil sequence is written as an
// empty JSON array so the persisted representation is stable.
func encodeRecords(records []core.Expense) ([]byte, error) {
	if records == nil {
		records = []core.Expense{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode ledger blob: %w", err)
	}
	return data, nil
}
