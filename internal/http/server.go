// Package http exposes the ledger workflows as a JSON API for the
// view renderer. Handlers never mutate the store directly; every
// write goes through the workflow service.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kharcha/internal/cache"
	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/services"
)

type Server struct {
	http.Server

	svc    *services.LedgerService
	logger *log.Logger
	clock  func() time.Time

	// Read-side view caches; any write invalidates both.
	dashCache  *cache.ViewCache[dashboardView]
	monthCache *cache.ViewCache[core.MonthSummary]
	caches     *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run
// server listening on addr once ListenAndServe is called.
func NewServer(addr string, svc *services.LedgerService, logger *log.Logger, cacheSize int, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		svc:        svc,
		logger:     logger,
		clock:      time.Now,
		dashCache:  cache.NewViewCache[dashboardView](cacheSize, cacheTTL),
		monthCache: cache.NewViewCache[core.MonthSummary](cacheSize, cacheTTL),
		caches:     cache.NewManager(),
	}
	s.Server = http.Server{
		Addr:    addr,
		Handler: log.Middleware(logger)(mux),
	}

	s.caches.Register(s.dashCache)
	s.caches.Register(s.monthCache)
	s.caches.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/form", s.handleForm)
	mux.HandleFunc("/api/expenses", s.handleCreateExpense)
	mux.HandleFunc("/api/expenses/update", s.handleUpdateExpense)
	mux.HandleFunc("/api/expenses/delete", s.handleDeleteExpense)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/months", s.handleMonths)
	mux.HandleFunc("/api/months/", s.handleMonthSummary)

	return s
}

// invalidateViews drops every cached read view. Any mutation can move
// totals, rankings and month lists, so per-key invalidation buys
// nothing here.
func (s *Server) invalidateViews() {
	s.dashCache.InvalidateAll()
	s.monthCache.InvalidateAll()
}

// Shutdown stops the cache cleanup loop and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Snapshot(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("ledger unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
