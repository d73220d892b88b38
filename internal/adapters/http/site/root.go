// Package site serves the dashboard pages: the report index, the details
// charts, the issues grid and the upload form.
package site

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/okian/analysis-dashboard/internal/adapters/http/api"
	"github.com/okian/analysis-dashboard/internal/domain/analysis"
	"github.com/okian/analysis-dashboard/internal/domain/parser"
	"github.com/okian/analysis-dashboard/internal/ui"
	"github.com/okian/analysis-dashboard/pkg/logger"
)

const (
	defaultFetchTimeout   = 5 * time.Second
	defaultPageSize       = 10
	defaultUploadMaxBytes = 10 << 20
)

// Reports is what the pages need from the service layer.
type Reports interface {
	Tools() []parser.Tool
	Upload(ctx context.Context, toolID, reference, filename string, r io.Reader) (analysis.Report, error)
}

// Handler renders the dashboard pages. Widgets read their data through the
// backend fetcher, the same way a browser would call the ajax endpoints.
type Handler struct {
	reports Reports
	backend ui.Fetcher

	fetchTimeout   time.Duration
	pageSize       int
	uploadMaxBytes int64
	chartStyle     ui.ChartStyle
	logger         logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithFetchTimeout bounds the backend fetches of one page render.
func WithFetchTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.fetchTimeout = d
		}
	}
}

// WithPageSize sets the number of grid rows per page.
func WithPageSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithUploadMaxBytes limits the size of an upload request body.
func WithUploadMaxBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.uploadMaxBytes = n
		}
	}
}

// WithChartStyle sets the style of the details charts.
func WithChartStyle(style ui.ChartStyle) Option {
	return func(h *Handler) { h.chartStyle = style }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates the page handler.
func NewHandler(reports Reports, backend ui.Fetcher, opts ...Option) *Handler {
	h := &Handler{
		reports:        reports,
		backend:        backend,
		fetchTimeout:   defaultFetchTimeout,
		pageSize:       defaultPageSize,
		uploadMaxBytes: defaultUploadMaxBytes,
		chartStyle:     ui.DefaultChartStyle,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register attaches the page routes to mux.
func (h *Handler) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/", api.MetricsMiddleware(h.HandleRoot, "index"))
	mux.HandleFunc("/details", api.MetricsMiddleware(h.HandleDetails, "details"))
	mux.HandleFunc("/issues", api.MetricsMiddleware(h.HandleIssues, "issues"))
	mux.HandleFunc("/upload", api.MetricsMiddleware(h.HandleUploadForm, "upload"))
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

// HandleRoot handles GET / requests with the index page.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "index", pageData{Title: "Analysis Dashboard"})
}

// HandleIssues serves the grid on GET and accepts uploads on POST.
func (h *Handler) HandleIssues(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleIssuesPage(w, r)
	case http.MethodPost:
		h.handleUpload(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *Handler) log() logger.Logger {
	if h.logger == nil {
		return logger.Named("site")
	}
	return h.logger
}
