package widget

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/okian/analysis-dashboard/internal/ui"
	"github.com/okian/analysis-dashboard/pkg/logger"
	"github.com/okian/analysis-dashboard/pkg/metrics"
)

// NoDataMessage is shown by a grid without rows.
const NoDataMessage = "No data available"

const defaultPageSize = 10

// GridState is the sorting and paging position of a grid, carried in the
// query parameters order (column index), dir (asc or desc) and page (1-based).
type GridState struct {
	Order int
	Desc  bool
	Page  int
}

// ParseGridState reads a GridState from q. Invalid values fall back to the
// first column, ascending, first page.
func ParseGridState(q url.Values) GridState {
	s := GridState{Page: 1}
	if n, err := strconv.Atoi(q.Get("order")); err == nil && n >= 0 {
		s.Order = n
	}
	s.Desc = q.Get("dir") == "desc"
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		s.Page = n
	}
	return s
}

// Query encodes s as grid query parameters.
func (s GridState) Query() string {
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	return url.Values{
		"order": {strconv.Itoa(s.Order)},
		"dir":   {dir},
		"page":  {strconv.Itoa(s.Page)},
	}.Encode()
}

// GridRenderer builds grids that load their rows through a ui.Fetcher and
// render them as HTML tables.
type GridRenderer struct {
	fetcher   ui.Fetcher
	navigator *ScriptNavigator
	state     GridState
	pageSize  int
	columns   []string
	logger    logger.Logger
}

// GridOption configures a GridRenderer.
type GridOption func(*GridRenderer)

// WithPageSize sets the number of rows per page.
func WithPageSize(n int) GridOption {
	return func(r *GridRenderer) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithColumns sets the header names.
func WithColumns(names []string) GridOption {
	return func(r *GridRenderer) {
		r.columns = append([]string(nil), names...)
	}
}

// WithGridLogger sets the logger used for load failures.
func WithGridLogger(l logger.Logger) GridOption {
	return func(r *GridRenderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewGridRenderer returns a grid factory. Row clicks are resolved through
// navigator, which must be the navigator given to the page controller.
func NewGridRenderer(fetcher ui.Fetcher, navigator *ScriptNavigator, state GridState, opts ...GridOption) *GridRenderer {
	r := &GridRenderer{
		fetcher:   fetcher,
		navigator: navigator,
		state:     state,
		pageSize:  defaultPageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewGrid constructs a grid on target. When target supports deferred work
// (a Mount) the grid loads once the page settles; otherwise callers run Load.
func (r *GridRenderer) NewGrid(_ context.Context, target ui.Element, cfg ui.GridConfig) ui.Grid {
	g := &Grid{renderer: r, target: target, cfg: cfg}
	if d, ok := target.(interface{ Defer(func(context.Context)) }); ok {
		d.Defer(g.Load)
	}
	return g
}

// Grid is a data grid bound to one element.
type Grid struct {
	renderer *GridRenderer
	target   ui.Element
	cfg      ui.GridConfig

	mu       sync.Mutex
	handlers []func(ui.IssueRow)
	view     GridView
}

// OnRowClick registers a click handler for every row.
func (g *Grid) OnRowClick(handler func(ui.IssueRow)) {
	g.mu.Lock()
	g.handlers = append(g.handlers, handler)
	g.mu.Unlock()
}

// GridView is what a grid rendered.
type GridView struct {
	Headers []GridHeader
	Rows    []GridRow
	Page    int
	Pages   int
	Total   int
	Prev    string
	Next    string
	Colspan int
	Failed  bool
}

// GridHeader is a sortable column header.
type GridHeader struct {
	Name   string
	Href   string
	Sorted bool
	Desc   bool
}

// GridRow is a rendered row with the navigations its click triggers.
type GridRow struct {
	Cells  []string
	Clicks []Navigation
}

// View returns the last rendered view.
func (g *Grid) View() GridView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.view
}

// Load fetches the rows, sorts and pages them, and renders the table.
// A failed fetch renders the empty table.
func (g *Grid) Load(ctx context.Context) {
	r := g.renderer
	rows, err := g.fetch(ctx)
	if err != nil {
		metrics.RecordGridLoad("error")
		r.log().Debug(ctx, "grid load failed", logger.String("source", g.cfg.Source), logger.Error(err))
	} else {
		metrics.RecordGridLoad("ok")
	}

	view := g.buildView(rows)
	view.Failed = err != nil

	var buf bytes.Buffer
	if err := gridTemplate.Execute(&buf, view); err != nil {
		r.log().Error(ctx, "grid render failed", logger.Error(err))
		return
	}

	g.mu.Lock()
	g.view = view
	g.mu.Unlock()
	g.target.Render(template.HTML(buf.String())) //nolint:gosec // produced by html/template
}

func (g *Grid) fetch(ctx context.Context) ([][]string, error) {
	body, err := g.renderer.fetcher.Get(ctx, g.cfg.Source)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Data [][]string `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", g.cfg.Source, err)
	}
	return payload.Data, nil
}

func (g *Grid) buildView(rows [][]string) GridView {
	r := g.renderer
	state := r.state

	width := len(r.columns)
	for _, row := range rows {
		width = max(width, len(row))
	}
	if state.Order >= width {
		state.Order = 0
	}

	sortRows(rows, state.Order, state.Desc)

	pages := max(1, (len(rows)+r.pageSize-1)/r.pageSize)
	state.Page = min(max(state.Page, 1), pages)
	from := (state.Page - 1) * r.pageSize
	to := min(from+r.pageSize, len(rows))

	view := GridView{
		Page:    state.Page,
		Pages:   pages,
		Total:   len(rows),
		Colspan: max(width, 1),
	}
	for i := 0; i < width; i++ {
		name := fmt.Sprintf("Column %d", i+1)
		if i < len(r.columns) {
			name = r.columns[i]
		}
		next := GridState{Order: i, Page: 1, Desc: i == state.Order && !state.Desc}
		view.Headers = append(view.Headers, GridHeader{
			Name:   name,
			Href:   "?" + next.Query(),
			Sorted: i == state.Order,
			Desc:   i == state.Order && state.Desc,
		})
	}
	if state.Page > 1 {
		view.Prev = "?" + GridState{Order: state.Order, Desc: state.Desc, Page: state.Page - 1}.Query()
	}
	if state.Page < pages {
		view.Next = "?" + GridState{Order: state.Order, Desc: state.Desc, Page: state.Page + 1}.Query()
	}

	g.mu.Lock()
	handlers := slices.Clone(g.handlers)
	g.mu.Unlock()

	for _, cells := range rows[from:to] {
		row := GridRow{Cells: cells}
		if g.cfg.Mapper != nil && len(handlers) > 0 {
			mapped := g.cfg.Mapper(cells)
			row.Clicks = r.navigator.Capture(func() {
				for _, h := range handlers {
					h(mapped)
				}
			})
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// sortRows orders rows by column col. Numeric cells come before all other
// cells and compare by value; the rest compare as strings.
func sortRows(rows [][]string, col int, desc bool) {
	cell := func(row []string) string {
		if col < len(row) {
			return row[col]
		}
		return ""
	}
	slices.SortStableFunc(rows, func(a, b []string) int {
		c := compareCells(cell(a), cell(b))
		if desc {
			return -c
		}
		return c
	})
}

func compareCells(a, b string) int {
	fa, numA := numericCell(a)
	fb, numB := numericCell(b)
	switch {
	case numA && numB:
		return cmp.Compare(fa, fb)
	case numA:
		return -1
	case numB:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func numericCell(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func (r *GridRenderer) log() logger.Logger {
	if r.logger == nil {
		return logger.Named("grid")
	}
	return r.logger
}

var gridTemplate = template.Must(template.New("grid").Parse(`<table class="grid">
<thead><tr>{{range .Headers}}<th{{if .Sorted}} class="{{if .Desc}}sorted-desc{{else}}sorted-asc{{end}}"{{end}}><a href="{{.Href}}">{{.Name}}</a></th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr class="grid-row"{{with .Clicks}} onclick="{{range .}}window.open({{.URL}}, {{.Target}});{{end}}"{{end}}>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{- else}}
<tr class="grid-empty"><td colspan="{{.Colspan}}">` + NoDataMessage + `</td></tr>
{{- end}}
</tbody>
</table>
<nav class="grid-pager">
{{- if .Prev}}<a href="{{.Prev}}">&laquo; Previous</a>{{end}}
<span>Page {{.Page}} of {{.Pages}} ({{.Total}} entries)</span>
{{- if .Next}}<a href="{{.Next}}">Next &raquo;</a>{{end}}
</nav>
`))
