package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/analysis-dashboard/internal/domain/analysis"
	"github.com/okian/analysis-dashboard/internal/domain/parser"
	"github.com/okian/analysis-dashboard/internal/ui"
	"github.com/okian/analysis-dashboard/internal/ui/widget"
	"github.com/okian/analysis-dashboard/pkg/logger"
)

type pageData struct {
	Title     string
	Tool      string
	Reference string
	Tabs      []detailsTab
	Grid      template.HTML
	Tools     []parser.Tool
	Error     string
}

type detailsTab struct {
	Name   string
	ID     string
	Href   string
	Chart  template.HTML
	Active bool
}

var tabPanels = []struct {
	name     string
	selector string
}{
	{name: "Categories", selector: ui.CategoriesSelector},
	{name: "Types", selector: ui.TypesSelector},
}

// HandleDetails handles GET /details?tool=&reference= requests with the
// category and type charts of one report. An optional tab parameter
// selects the visible panel.
func (h *Handler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	tool := strings.TrimSpace(q.Get("tool"))
	reference := strings.TrimSpace(q.Get("reference"))
	if tool == "" || reference == "" {
		http.Error(w, fmt.Sprintf("%v: tool and reference are required", ErrMissingParam), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.fetchTimeout)
	defer cancel()

	page := widget.NewPage(map[string]string{
		ui.ToolSelector:      tool,
		ui.ReferenceSelector: reference,
	})
	details := ui.NewDetailsPage(h.backend, widget.NewChartRenderer(),
		ui.WithChartStyle(h.chartStyle),
		ui.WithLogger(h.log()),
	)
	details.Init(ctx, page).Wait()

	strip := page.TabStrip(ui.DetailsTabSelector)
	if n, err := strconv.Atoi(q.Get("tab")); err == nil && n >= 0 && n < len(tabPanels) {
		strip.Show(n)
	}

	data := pageData{
		Title:     "Details of " + tool + " " + reference,
		Tool:      tool,
		Reference: reference,
	}
	for i, p := range tabPanels {
		data.Tabs = append(data.Tabs, detailsTab{
			Name:   p.name,
			ID:     strings.TrimPrefix(p.selector, "#"),
			Href:   detailsLink(tool, reference) + "&tab=" + strconv.Itoa(i),
			Chart:  page.HTML(p.selector),
			Active: strip.IsActive(i),
		})
	}
	h.render(w, r, http.StatusOK, "details", data)
}

// handleIssuesPage renders the grid of stored reports. Sorting and paging
// come from the order, dir and page query parameters.
func (h *Handler) handleIssuesPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.fetchTimeout)
	defer cancel()

	navigator := widget.NewScriptNavigator()
	grids := widget.NewGridRenderer(h.backend, navigator, widget.ParseGridState(r.URL.Query()),
		widget.WithPageSize(h.pageSize),
		widget.WithColumns(analysis.TableColumns),
		widget.WithGridLogger(h.log()),
	)
	page := widget.NewPage(nil)
	ui.NewIssuesPage(grids, navigator).Init(ctx, page)
	page.Settle(ctx)

	h.render(w, r, http.StatusOK, "issues", pageData{
		Title: "Issues",
		Grid:  page.HTML(ui.IssuesSelector),
	})
}

// HandleUploadForm handles GET /upload requests.
func (h *Handler) HandleUploadForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "upload", pageData{
		Title: "Upload",
		Tools: h.reports.Tools(),
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.log().Error(r.Context(), "page render failed", logger.String("page", name), logger.Error(err))
		http.Error(w, fmt.Sprintf("%v: %s", ErrRender, name), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// detailsLink returns the escaped details page link of a stored report.
func detailsLink(tool, reference string) string {
	return "details?tool=" + url.QueryEscape(tool) + "&reference=" + url.QueryEscape(reference)
}
