package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/services"
	"kharcha/internal/storage"
)

var testNow = time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.NewFileLedger(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	srv := NewServer(":0", services.NewLedgerService(store), log.New(log.DefaultConfig()), 8, time.Minute)
	srv.clock = func() time.Time { return testNow }
	t.Cleanup(func() { _ = srv.svc.Close() })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func createExpense(t *testing.T, srv *Server, body string) core.Expense {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/expenses", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	var e core.Expense
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode created expense: %v", err)
	}
	return e
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestFormView(t *testing.T) {
	srv := newTestServer(t)
	createExpense(t, srv, `{"amount":"120.5","category":"Groceries","date":"2026-01-20"}`)

	rr := do(t, srv, http.MethodGet, "/api/form", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("form status=%d", rr.Code)
	}
	var view formView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode form view: %v", err)
	}
	if len(view.Categories) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(view.Categories))
	}
	if view.Today != "2026-01-20" {
		t.Fatalf("Today = %q", view.Today)
	}
	if view.TodayTotal != 121 {
		t.Fatalf("TodayTotal = %d, want 121", view.TodayTotal)
	}
}

func TestCreateExpenseValidationAndSuccess(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/expenses", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/expenses", `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/expenses", `{"amount":"abc","category":"Groceries"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Field != "amount" {
		t.Fatalf("expected amount field error, got %s", rr.Body.String())
	}

	// Amount failures are reported before category failures
	rr = do(t, srv, http.MethodPost, "/api/expenses", `{"amount":"","category":"Gadgets"}`)
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if rr.Code != http.StatusUnprocessableEntity || resp.Field != "amount" {
		t.Fatalf("expected amount error first, got %d %s", rr.Code, rr.Body.String())
	}

	e := createExpense(t, srv, `{"amount":"500","category":"Groceries","paymentMethod":"card","description":"weekly shop"}`)
	if e.ID == "" || e.Amount != 500 || e.PaymentMethod != core.Card {
		t.Fatalf("unexpected record: %+v", e)
	}
	if e.Date != "2026-01-20" || e.Month != "2026-01" {
		t.Fatalf("date not defaulted to today: %+v", e)
	}
}

func TestUpdateExpense(t *testing.T) {
	srv := newTestServer(t)
	e := createExpense(t, srv, `{"amount":"500","category":"Groceries","date":"2026-01-15"}`)

	rr := do(t, srv, http.MethodPost, "/api/expenses/update",
		`{"id":"`+e.ID+`","amount":"750","date":"2026-01-16","paymentMethod":"card"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got core.Expense
	_ = json.Unmarshal(rr.Body.Bytes(), &got)
	if got.Amount != 750 || got.Date != "2026-01-16" || got.PaymentMethod != core.Card {
		t.Fatalf("patch not applied: %+v", got)
	}

	rr = do(t, srv, http.MethodPost, "/api/expenses/update",
		`{"id":"missing","amount":"100","date":"2026-01-16"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/expenses/update",
		`{"id":"`+e.ID+`","amount":"-1","date":"2026-01-16"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestUpdateOutsideEditableWindowConflicts(t *testing.T) {
	srv := newTestServer(t)
	e := createExpense(t, srv, `{"amount":"100","category":"Groceries","date":"2025-12-10"}`)

	// The record was created now but belongs to a past ledger month.
	rr := do(t, srv, http.MethodPost, "/api/expenses/update",
		`{"id":"`+e.ID+`","amount":"200","date":"2025-12-11"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDeleteExpenseRequiresConfirmation(t *testing.T) {
	srv := newTestServer(t)
	e := createExpense(t, srv, `{"amount":"100","category":"Groceries"}`)

	rr := do(t, srv, http.MethodPost, "/api/expenses/delete", `{"id":"`+e.ID+`"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 without confirmation, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/api/expenses/delete", `{"id":"`+e.ID+`","confirmed":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/api/expenses/delete", `{"id":"`+e.ID+`","confirmed":true}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted id, got %d", rr.Code)
	}
}

func TestDashboardAggregatesAndCacheInvalidation(t *testing.T) {
	srv := newTestServer(t)
	createExpense(t, srv, `{"amount":"400","category":"Groceries","date":"2026-01-19"}`)
	createExpense(t, srv, `{"amount":"300","category":"Utilities","date":"2026-01-20"}`)
	createExpense(t, srv, `{"amount":"300","category":"Housing","date":"2025-12-05"}`)

	rr := do(t, srv, http.MethodGet, "/api/dashboard", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	var view dashboardView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if view.Month != "2026-01" || view.Label != "January 2026" {
		t.Fatalf("month header: %+v", view)
	}
	if view.Total != 700 || view.Count != 2 || view.TodayTotal != 300 {
		t.Fatalf("totals: %+v", view)
	}
	if len(view.TopCategories) != 2 || view.TopCategories[0].Total != 400 {
		t.Fatalf("top categories: %+v", view.TopCategories)
	}
	if len(view.Week) != 7 || view.Week[0].Date != "2026-01-19" || view.Week[0].Total != 400 {
		t.Fatalf("week buckets: %+v", view.Week)
	}

	// A write must invalidate the cached dashboard.
	createExpense(t, srv, `{"amount":"100","category":"Groceries","date":"2026-01-20"}`)
	rr = do(t, srv, http.MethodGet, "/api/dashboard", "")
	_ = json.Unmarshal(rr.Body.Bytes(), &view)
	if view.Total != 800 || view.Count != 3 {
		t.Fatalf("dashboard served stale view after write: %+v", view)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	createExpense(t, srv, `{"amount":"100","category":"Groceries","date":"2026-01-10"}`)
	createExpense(t, srv, `{"amount":"200","category":"Utilities","date":"2025-12-11"}`)

	rr := do(t, srv, http.MethodGet, "/api/history", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("history status=%d", rr.Code)
	}
	var entries []services.HistoryEntry
	if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// December record is outside the current ledger month.
	for _, e := range entries {
		if e.Month == "2026-01" && !e.Editable {
			t.Fatalf("current-month record not editable: %+v", e)
		}
		if e.Month == "2025-12" && e.Editable {
			t.Fatalf("past-month record editable: %+v", e)
		}
	}

	rr = do(t, srv, http.MethodGet, "/api/history?category=Groceries", "")
	_ = json.Unmarshal(rr.Body.Bytes(), &entries)
	if len(entries) != 1 || entries[0].Category != core.Groceries {
		t.Fatalf("filtered history: %+v", entries)
	}

	rr = do(t, srv, http.MethodGet, "/api/history?category=Gadgets", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown category filter, got %d", rr.Code)
	}
}

func TestMonthsAndMonthSummary(t *testing.T) {
	srv := newTestServer(t)
	createExpense(t, srv, `{"amount":"100","category":"Groceries","date":"2026-01-10"}`)
	createExpense(t, srv, `{"amount":"300","category":"Utilities","date":"2025-12-11"}`)
	createExpense(t, srv, `{"amount":"100","category":"Groceries","date":"2025-12-12"}`)
	createExpense(t, srv, `{"amount":"200","category":"Housing","date":"2025-11-01"}`)

	rr := do(t, srv, http.MethodGet, "/api/months", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("months status=%d", rr.Code)
	}
	var months []monthOption
	_ = json.Unmarshal(rr.Body.Bytes(), &months)
	if len(months) != 2 || months[0].Month != "2025-12" || months[1].Month != "2025-11" {
		t.Fatalf("past months: %+v", months)
	}
	if months[0].Label != "December 2025" {
		t.Fatalf("month label: %+v", months[0])
	}

	rr = do(t, srv, http.MethodGet, "/api/months/2025-12", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("month summary status=%d", rr.Code)
	}
	var summary core.MonthSummary
	_ = json.Unmarshal(rr.Body.Bytes(), &summary)
	if summary.Total != 400 || summary.Count != 2 {
		t.Fatalf("summary: %+v", summary)
	}
	if len(summary.ByCategory) != 2 || summary.ByCategory[0].Percent != 75 {
		t.Fatalf("summary breakdown: %+v", summary.ByCategory)
	}

	rr = do(t, srv, http.MethodGet, "/api/months/december", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad month key, got %d", rr.Code)
	}
}
