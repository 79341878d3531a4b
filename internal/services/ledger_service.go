// Package services implements the write workflows over the ledger
// store: entry, edit and delete. All mutations are whole
// read-modify-write cycles against the single persisted blob; the
// renderer-facing read path goes through Snapshot plus the pure
// aggregation functions in core.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/core"
	"kharcha/internal/storage"
)

// EntryForm carries raw form values for a new expense. Amount arrives
// as the user typed it; validation and rounding happen here, not in
// the shell.
type EntryForm struct {
	Amount        string
	Date          string // YYYY-MM-DD, empty means today
	Category      string
	PaymentMethod string // form key or display string, empty means Cash
	Description   string
}

// ExpensePatch is the mutable subset of a record for the edit
// workflow. ID, category and creation time are immutable after
// creation.
type ExpensePatch struct {
	Amount        int64
	Date          string
	PaymentMethod string // empty keeps the current method
	Description   string
}

// ConfirmFunc is the caller-supplied confirmation step for deletes.
// The core never prompts; the shell owns the dialog.
type ConfirmFunc func() bool

// HistoryQuery is the explicit view state for the history read path,
// replacing ambient "current filter" globals.
type HistoryQuery struct {
	Category string // empty means all
}

// HistoryEntry is a ledger record plus its derived editability for the
// reference time the query ran at.
type HistoryEntry struct {
	core.Expense
	Editable bool `json:"editable"`
}

// LedgerService orchestrates validated mutations of the ledger store.
type LedgerService struct {
	store storage.Ledger
}

func NewLedgerService(store storage.Ledger) *LedgerService {
	return &LedgerService{store: store}
}

// Submit validates form values and appends a new record to the ledger.
// Validation order is fixed: amount, category, payment method, date.
// The category's display metadata is snapshotted onto the record at
// creation and never re-synced.
func (s *LedgerService) Submit(ctx context.Context, form EntryForm, now time.Time) (core.Expense, error) {
	amount, err := core.ParseAmount(form.Amount)
	if err != nil {
		return core.Expense{}, core.NewValidationError("amount", err)
	}

	category := core.Category(strings.TrimSpace(form.Category))
	meta, ok := category.Meta()
	if !ok {
		return core.Expense{}, core.NewValidationError("category", core.ErrUnknownCategory)
	}

	payment, err := core.ParsePaymentMethod(form.PaymentMethod)
	if err != nil {
		return core.Expense{}, core.NewValidationError("paymentMethod", err)
	}

	date := strings.TrimSpace(form.Date)
	if date == "" {
		date = core.DateKey(now)
	} else if _, err := core.ParseDate(date); err != nil {
		return core.Expense{}, core.NewValidationError("date", err)
	}

	expense := core.Expense{
		ID:            uuid.NewString(),
		CreatedAt:     now.UTC(),
		Date:          date,
		Month:         core.MonthOf(date),
		Amount:        amount,
		Category:      category,
		CategoryName:  meta.Name,
		CategoryIcon:  meta.Icon,
		PaymentMethod: payment,
		Description:   strings.TrimSpace(form.Description),
	}

	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load ledger: %w", err)
	}
	records = append(records, expense)
	if err := s.store.SaveAll(ctx, records); err != nil {
		return core.Expense{}, fmt.Errorf("save ledger: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"id", expense.ID,
		"amount", expense.Amount,
		"category", expense.Category,
		"date", expense.Date)

	return expense, nil
}

// Edit applies patch to the record with the given id and rewrites the
// ledger. It fails with ErrNotFound for unknown ids, ErrNotEditable
// for records outside the current calendar month (derived against
// now), and a ValidationError for a non-positive amount or a bad
// date. Month is recomputed from the patched date; id, category and
// creation time stay untouched.
func (s *LedgerService) Edit(ctx context.Context, id string, patch ExpensePatch, now time.Time) (core.Expense, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load ledger: %w", err)
	}

	idx := -1
	for i := range records {
		if records[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return core.Expense{}, core.ErrNotFound
	}
	if !records[idx].Editable(now) {
		return core.Expense{}, core.ErrNotEditable
	}

	if patch.Amount <= 0 {
		return core.Expense{}, core.NewValidationError("amount", core.ErrInvalidAmount)
	}
	date := strings.TrimSpace(patch.Date)
	if date == "" {
		return core.Expense{}, core.NewValidationError("date", core.ErrInvalidDate)
	}
	if _, err := core.ParseDate(date); err != nil {
		return core.Expense{}, core.NewValidationError("date", err)
	}
	payment := records[idx].PaymentMethod
	if strings.TrimSpace(patch.PaymentMethod) != "" {
		payment, err = core.ParsePaymentMethod(patch.PaymentMethod)
		if err != nil {
			return core.Expense{}, core.NewValidationError("paymentMethod", err)
		}
	}

	records[idx].Amount = patch.Amount
	records[idx].Date = date
	records[idx].Month = core.MonthOf(date)
	records[idx].PaymentMethod = payment
	records[idx].Description = strings.TrimSpace(patch.Description)

	if err := s.store.SaveAll(ctx, records); err != nil {
		return core.Expense{}, fmt.Errorf("save ledger: %w", err)
	}

	slog.InfoContext(ctx, "Expense updated", "id", id, "amount", patch.Amount, "date", date)
	return records[idx], nil
}

// Delete removes the record with the given id. confirm is the
// explicit confirmation step: when it declines, the ledger is left
// untouched and ErrCancelled is returned. A nil confirm means the
// shell already confirmed.
func (s *LedgerService) Delete(ctx context.Context, id string, confirm ConfirmFunc) error {
	if confirm != nil && !confirm() {
		return core.ErrCancelled
	}

	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	kept := records[:0:0]
	found := false
	for _, r := range records {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return core.ErrNotFound
	}

	if err := s.store.SaveAll(ctx, kept); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// Snapshot returns the full current ledger for the read path.
func (s *LedgerService) Snapshot(ctx context.Context) ([]core.Expense, error) {
	return s.store.LoadAll(ctx)
}

// History returns the recency-sorted ledger view with derived
// editability, optionally filtered by a closed-set category. An
// unknown category filter is a validation failure, not an empty
// result.
func (s *LedgerService) History(ctx context.Context, query HistoryQuery, now time.Time) ([]HistoryEntry, error) {
	category := core.Category(strings.TrimSpace(query.Category))
	if category != "" && !category.IsValid() {
		return nil, core.NewValidationError("category", core.ErrUnknownCategory)
	}

	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	records = core.FilterByCategory(records, category)
	core.SortNewestFirst(records)

	entries := make([]HistoryEntry, len(records))
	for i, r := range records {
		entries[i] = HistoryEntry{Expense: r, Editable: r.Editable(now)}
	}
	return entries, nil
}

// Close releases the underlying store.
func (s *LedgerService) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
