package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category is a closed classification key for an expense.
type Category string

const (
	Groceries      Category = "Groceries"
	Utilities      Category = "Utilities"
	Housing        Category = "Housing"
	Education      Category = "Education"
	Healthcare     Category = "Healthcare"
	Transportation Category = "Transportation"
	Clothing       Category = "Clothing"
	Entertainment  Category = "Entertainment"
	Subscriptions  Category = "Subscriptions"
	Services       Category = "Services"
)

// PaymentMethod is the display form of a closed payment method set.
type PaymentMethod string

const (
	Cash          PaymentMethod = "Cash"
	Card          PaymentMethod = "Card"
	OnlinePayment PaymentMethod = "Online Payment"
	BankTransfer  PaymentMethod = "Bank Transfer"
	OtherPayment  PaymentMethod = "Other"
)

type (
	// CategoryMeta is the display metadata attached to a category.
	// It is snapshotted onto each record at creation time and never
	// re-joined against the registry afterwards: changing a category's
	// icon later must not rewrite history.
	CategoryMeta struct {
		Name string
		Icon string
	}

	// Expense is a single ledger record. JSON field names match the
	// persisted blob format.
	Expense struct {
		ID            string        `json:"id"`
		CreatedAt     time.Time     `json:"createdAt"`
		Date          string        `json:"date"`  // YYYY-MM-DD
		Month         string        `json:"month"` // YYYY-MM, always Date truncated
		Amount        int64         `json:"amount"`
		Category      Category      `json:"category"`
		CategoryName  string        `json:"categoryName"`
		CategoryIcon  string        `json:"categoryIcon"`
		PaymentMethod PaymentMethod `json:"paymentMethod"`
		Description   string        `json:"description"`
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrNotFound             = errors.New("expense not found")
	ErrNotEditable          = errors.New("expense outside editable window")
	ErrCancelled            = errors.New("operation cancelled")
)

// ValidationError reports the first failing input rule together with
// the field it applies to. It wraps one of the Err* sentinels above so
// callers can match with errors.Is while still naming the field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps err as a validation failure on field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// categoryOrder fixes the registry iteration order for UIs.
var categoryOrder = []Category{
	Groceries, Utilities, Housing, Education, Healthcare,
	Transportation, Clothing, Entertainment, Subscriptions, Services,
}

var categoryRegistry = map[Category]CategoryMeta{
	Groceries:      {Name: "Groceries", Icon: "/icons/svg/shopping-cart.svg"},
	Utilities:      {Name: "Utilities", Icon: "/icons/svg/zap.svg"},
	Housing:        {Name: "Housing", Icon: "/icons/svg/home.svg"},
	Education:      {Name: "Education", Icon: "/icons/svg/graduation-cap.svg"},
	Healthcare:     {Name: "Healthcare", Icon: "/icons/svg/pill.svg"},
	Transportation: {Name: "Transportation", Icon: "/icons/svg/car.svg"},
	Clothing:       {Name: "Clothing", Icon: "/icons/svg/shirt.svg"},
	Entertainment:  {Name: "Entertainment", Icon: "/icons/svg/clapperboard.svg"},
	Subscriptions:  {Name: "Subscriptions", Icon: "/icons/svg/calendar-days.svg"},
	Services:       {Name: "Services", Icon: "/icons/svg/user-round-pen.svg"},
}

// Categories returns all registered categories in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Meta returns the display metadata for a category and whether the
// category belongs to the closed set.
func (c Category) Meta() (CategoryMeta, bool) {
	m, ok := categoryRegistry[c]
	return m, ok
}

// IsValid reports whether the category belongs to the closed set.
func (c Category) IsValid() bool {
	_, ok := categoryRegistry[c]
	return ok
}

// paymentMethodKeys maps form option values to display strings.
var paymentMethodKeys = map[string]PaymentMethod{
	"cash":           Cash,
	"card":           Card,
	"online-payment": OnlinePayment,
	"bank-transfer":  BankTransfer,
	"other":          OtherPayment,
}

// PaymentMethods returns the closed payment method set in form order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{Cash, Card, OnlinePayment, BankTransfer, OtherPayment}
}

// IsValid reports whether the payment method belongs to the closed set.
func (p PaymentMethod) IsValid() bool {
	switch p {
	case Cash, Card, OnlinePayment, BankTransfer, OtherPayment:
		return true
	default:
		return false
	}
}

// ParsePaymentMethod resolves either a form key ("online-payment") or
// a display string ("Online Payment") to a member of the closed set.
// An empty value falls back to Cash, the first form option.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Cash, nil
	}
	if pm, ok := paymentMethodKeys[strings.ToLower(s)]; ok {
		return pm, nil
	}
	if pm := PaymentMethod(s); pm.IsValid() {
		return pm, nil
	}
	return "", ErrUnknownPaymentMethod
}

// MonthKey returns t as a YYYY-MM ledger month key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// DateKey returns t as a YYYY-MM-DD calendar date string.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// MonthOf derives the YYYY-MM month from a YYYY-MM-DD date string.
func MonthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// ParseDate validates a YYYY-MM-DD date string.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// MonthDisplayName formats a YYYY-MM key for humans ("2026-01" ->
// "January 2026"). Unparseable keys are returned as-is.
func MonthDisplayName(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return t.Format("January 2006")
}

// Editable reports whether the record may still be mutated: only
// records in the current calendar month are. Derived at call time
// against now rather than stored, so a month rollover closes the
// window without any rewrite.
func (e Expense) Editable(now time.Time) bool {
	return e.Month == MonthKey(now)
}

// Validate checks the record invariants.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("empty id")
	}
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	if e.Month != MonthOf(e.Date) {
		return fmt.Errorf("month %q does not match date %q", e.Month, e.Date)
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !e.Category.IsValid() {
		return ErrUnknownCategory
	}
	if !e.PaymentMethod.IsValid() {
		return ErrUnknownPaymentMethod
	}
	return nil
}

// Normalize repairs records loaded from blobs written by older
// versions: derives Month when absent and backfills CreatedAt from
// legacy "exp_<millis>_<suffix>" identifiers that encoded the creation
// time inside the id.
func (e *Expense) Normalize() {
	if e.Month == "" && e.Date != "" {
		e.Month = MonthOf(e.Date)
	}
	if e.CreatedAt.IsZero() {
		if ts, ok := legacyIDTimestamp(e.ID); ok {
			e.CreatedAt = ts
		}
	}
}

func legacyIDTimestamp(id string) (time.Time, bool) {
	parts := strings.Split(id, "_")
	if len(parts) < 2 || parts[0] != "exp" {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || millis <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(millis).UTC(), true
}
