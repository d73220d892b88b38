// Package ui holds the page controllers of the dashboard. Controllers only
// wire widgets to backend endpoints; widgets and the backend are injected.
package ui

import (
	"context"
	"html/template"
)

// Document is a mounted page. Selectors are element ids such as "#tool".
type Document interface {
	// Text returns the text content of an element, or "" when it is absent.
	Text(selector string) string
	Element(selector string) Element
	Tabs(selector string) TabStrip
}

// Element is a mount point for widget output.
type Element interface {
	Render(content template.HTML)
}

// TabStrip shows one of several mutually exclusive panels.
type TabStrip interface {
	ShowFirst()
}

// Fetcher performs GET requests against the analytics backend. Paths are
// relative endpoints with an optional query, e.g. "ajax/types?tool=pmd".
type Fetcher interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// Navigator opens URLs in named browser windows.
type Navigator interface {
	Open(url, target string)
}

// ChartFactory constructs charts on page elements.
type ChartFactory interface {
	NewChart(target Element, cfg ChartConfig) error
}

// GridFactory constructs data grids on page elements. The grid loads its
// own rows from cfg.Source.
type GridFactory interface {
	NewGrid(ctx context.Context, target Element, cfg GridConfig) Grid
}

// Grid is a data grid with server-driven rows.
type Grid interface {
	// OnRowClick registers a handler for clicks on any row the grid holds,
	// including rows loaded after registration.
	OnRowClick(handler func(row IssueRow))
}

// PageContext identifies the report shown on a page. Values are opaque.
type PageContext struct {
	Tool      string
	Reference string
}

// ChartDataset is the backend's bar chart payload.
type ChartDataset struct {
	Labels   []string      `json:"labels"`
	Datasets []ChartSeries `json:"datasets"`
}

// ChartSeries is one series of values aligned with the dataset labels.
type ChartSeries struct {
	Label string    `json:"label,omitempty"`
	Data  []float64 `json:"data"`
}

// ChartStyle is the per-chart look.
type ChartStyle struct {
	FillColor   string
	BorderColor string
	BorderWidth float64
}

// DefaultChartStyle is applied by pages that are not given a style.
var DefaultChartStyle = ChartStyle{
	FillColor:   "#f7f1da",
	BorderColor: "#355564",
	BorderWidth: 1,
}

// ChartConfig describes a chart to construct.
type ChartConfig struct {
	Type   string
	Label  string
	Data   ChartDataset
	Legend bool
	Style  ChartStyle
}

// GridConfig describes a data grid to construct.
type GridConfig struct {
	Source string
	Mapper func(cells []string) IssueRow
}
