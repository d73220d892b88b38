// Package api declares HTTP contracts and route registration helpers for the
// analytics backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/analysis-dashboard/internal/adapters/repository"
	"github.com/okian/analysis-dashboard/internal/domain/analysis"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// DistributionByCategory and DistributionByType return bar chart
	// datasets of one report. Unknown reports yield repository.ErrNotFound.
	DistributionByCategory(ctx context.Context, tool, reference string) (analysis.Distribution, error)
	DistributionByType(ctx context.Context, tool, reference string) (analysis.Distribution, error)

	// IssuesTable returns one row per stored report.
	IssuesTable(ctx context.Context) (analysis.IssuesTable, error)
}

// Server wires HTTP routes for the analytics API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	ajaxHandler   *AjaxHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		ajaxHandler:   NewAjaxHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/ajax/categories", MetricsMiddleware(s.ajaxHandler.HandleCategories, "ajax_categories"))
	mux.HandleFunc("/ajax/types", MetricsMiddleware(s.ajaxHandler.HandleTypes, "ajax_types"))
	mux.HandleFunc("/ajax/issues", MetricsMiddleware(s.ajaxHandler.HandleIssues, "ajax_issues"))
}

// Handler returns a mux serving only the API routes. Page widgets use it to
// reach the backend in-process.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(context.Background(), mux)
	return mux
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeStoreError translates store errors: unknown reports are 404,
// anything else is 500.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
