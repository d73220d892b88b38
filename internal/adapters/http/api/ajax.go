package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/analysis-dashboard/internal/domain/analysis"
)

// AjaxHandler serves the datasets behind the dashboard widgets.
type AjaxHandler struct {
	deps Dependencies
}

// NewAjaxHandler creates a new ajax handler.
func NewAjaxHandler(deps Dependencies) *AjaxHandler {
	return &AjaxHandler{deps: deps}
}

// HandleCategories handles GET /ajax/categories?tool=&reference= requests.
func (h *AjaxHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.handleDistribution(w, r, h.deps.DistributionByCategory)
}

// HandleTypes handles GET /ajax/types?tool=&reference= requests.
func (h *AjaxHandler) HandleTypes(w http.ResponseWriter, r *http.Request) {
	h.handleDistribution(w, r, h.deps.DistributionByType)
}

type distributionFunc func(ctx context.Context, tool, reference string) (analysis.Distribution, error)

func (h *AjaxHandler) handleDistribution(w http.ResponseWriter, r *http.Request, get distributionFunc) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	tool, reference, err := reportParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	d, err := get(r.Context(), tool, reference)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleIssues handles GET /ajax/issues requests.
func (h *AjaxHandler) HandleIssues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	table, err := h.deps.IssuesTable(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// reportParams returns the required tool and reference query parameters.
func reportParams(r *http.Request) (tool, reference string, err error) {
	q := r.URL.Query()
	tool = strings.TrimSpace(q.Get("tool"))
	reference = strings.TrimSpace(q.Get("reference"))
	switch {
	case tool == "":
		return "", "", fmt.Errorf("%w: tool", ErrMissingParam)
	case reference == "":
		return "", "", fmt.Errorf("%w: reference", ErrMissingParam)
	}
	return tool, reference, nil
}
