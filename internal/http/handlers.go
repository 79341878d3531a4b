package http

import (
	"net/http"
	"strings"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/services"
)

type categoryOption struct {
	Category core.Category `json:"category"`
	Name     string        `json:"name"`
	Icon     string        `json:"icon"`
}

type formView struct {
	Categories     []categoryOption     `json:"categories"`
	PaymentMethods []core.PaymentMethod `json:"paymentMethods"`
	Today          string               `json:"today"`
	TodayTotal     int64                `json:"todayTotal"`
}

// handleForm serves the entry-form view data: the category registry,
// payment methods and today's running total.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	records, err := s.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := s.clock()
	view := formView{
		PaymentMethods: core.PaymentMethods(),
		Today:          core.DateKey(now),
		TodayTotal:     core.TodayTotal(records, now),
	}
	for _, c := range core.Categories() {
		meta, _ := c.Meta()
		view.Categories = append(view.Categories, categoryOption{Category: c, Name: meta.Name, Icon: meta.Icon})
	}

	writeJSON(w, http.StatusOK, view)
}

type createRequest struct {
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Category      string `json:"category"`
	PaymentMethod string `json:"paymentMethod"`
	Description   string `json:"description"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}

	expense, err := s.svc.Submit(r.Context(), services.EntryForm{
		Amount:        req.Amount,
		Date:          req.Date,
		Category:      req.Category,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
	}, s.clock())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusCreated, expense)
}

type updateRequest struct {
	ID            string `json:"id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	PaymentMethod string `json:"paymentMethod"`
	Description   string `json:"description"`
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req updateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, core.NewValidationError("amount", err))
		return
	}

	expense, err := s.svc.Edit(r.Context(), req.ID, services.ExpensePatch{
		Amount:        amount,
		Date:          req.Date,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
	}, s.clock())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusOK, expense)
}

type deleteRequest struct {
	ID        string `json:"id"`
	Confirmed bool   `json:"confirmed"`
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		methodNotAllowed(w, "POST, DELETE")
		return
	}

	var req deleteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.svc.Delete(r.Context(), req.ID, func() bool { return req.Confirmed }); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusOK, map[string]string{"deleted": req.ID})
}

type dashboardView struct {
	Month         string               `json:"month"`
	Label         string               `json:"label"`
	Total         int64                `json:"total"`
	TodayTotal    int64                `json:"todayTotal"`
	Count         int                  `json:"count"`
	TopCategories []core.CategoryShare `json:"topCategories"`
	ByCategory    []core.CategoryTotal `json:"byCategory"`
	Week          []core.DayTotal      `json:"week"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	now := s.clock()
	key := core.MonthKey(now) + "/" + core.DateKey(now)
	if view, ok := s.dashCache.Get(key); ok {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Dashboard cache hit", "month", view.Month)
		writeJSON(w, http.StatusOK, view)
		return
	}

	records, err := s.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	current := core.CurrentMonthExpenses(records, now)
	view := dashboardView{
		Month:         core.MonthKey(now),
		Label:         core.MonthDisplayName(core.MonthKey(now)),
		Total:         core.GrandTotal(current),
		TodayTotal:    core.TodayTotal(records, now),
		Count:         len(current),
		TopCategories: core.TopCategories(current, 3),
		ByCategory:    core.CategoryTotals(current),
		Week:          core.DailyTotalsForWeek(records, now),
	}

	s.dashCache.Set(key, view)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	query := services.HistoryQuery{Category: r.URL.Query().Get("category")}
	entries, err := s.svc.History(r.Context(), query, s.clock())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []services.HistoryEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

type monthOption struct {
	Month string `json:"month"`
	Label string `json:"label"`
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	records, err := s.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	months := []monthOption{}
	for _, m := range core.PastMonths(records, core.MonthKey(s.clock())) {
		months = append(months, monthOption{Month: m, Label: core.MonthDisplayName(m)})
	}

	writeJSON(w, http.StatusOK, months)
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	month := strings.TrimPrefix(r.URL.Path, "/api/months/")
	if _, err := time.Parse("2006-01", month); err != nil {
		writeError(w, r, core.NewValidationError("month", core.ErrInvalidDate))
		return
	}

	if summary, ok := s.monthCache.Get(month); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	records, err := s.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary := core.SummarizeMonth(records, month)
	s.monthCache.Set(month, summary)
	writeJSON(w, http.StatusOK, summary)
}
