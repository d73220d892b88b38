package ui

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/okian/analysis-dashboard/pkg/logger"
	"github.com/okian/analysis-dashboard/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Element ids of the details page.
const (
	ToolSelector       = "#tool"
	ReferenceSelector  = "#reference"
	DetailsTabSelector = "#tab-details"
	CategoriesSelector = "#categories-chart"
	TypesSelector      = "#types-chart"
)

// HorizontalBar is the chart type of the details page charts.
const HorizontalBar = "horizontalBar"

type detailsChart struct {
	endpoint string
	target   string
	label    string
}

var detailsCharts = []detailsChart{
	{endpoint: "ajax/categories", target: CategoriesSelector, label: "Categories"},
	{endpoint: "ajax/types", target: TypesSelector, label: "Types"},
}

// DetailsPage draws the category and type charts of one report.
type DetailsPage struct {
	fetcher Fetcher
	charts  ChartFactory
	style   ChartStyle
	logger  logger.Logger
}

// DetailsOption configures a DetailsPage.
type DetailsOption func(*DetailsPage)

// WithChartStyle overrides DefaultChartStyle.
func WithChartStyle(style ChartStyle) DetailsOption {
	return func(p *DetailsPage) { p.style = style }
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(l logger.Logger) DetailsOption {
	return func(p *DetailsPage) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewDetailsPage returns a controller for the details page.
func NewDetailsPage(fetcher Fetcher, charts ChartFactory, opts ...DetailsOption) *DetailsPage {
	p := &DetailsPage{fetcher: fetcher, charts: charts, style: DefaultChartStyle}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Loading tracks the chart fetches started by Init.
type Loading struct {
	group *errgroup.Group
}

// Wait blocks until both chart fetches have settled.
func (l *Loading) Wait() {
	_ = l.group.Wait()
}

// Init starts one fetch per chart and activates the first tab. A failed
// fetch leaves its chart empty and does not affect the other one.
func (p *DetailsPage) Init(ctx context.Context, doc Document) *Loading {
	pc := PageContext{
		Tool:      strings.TrimSpace(doc.Text(ToolSelector)),
		Reference: strings.TrimSpace(doc.Text(ReferenceSelector)),
	}

	var g errgroup.Group
	for _, c := range detailsCharts {
		g.Go(func() error {
			p.drawChart(ctx, doc, pc, c)
			return nil
		})
	}

	doc.Tabs(DetailsTabSelector).ShowFirst()
	return &Loading{group: &g}
}

func (p *DetailsPage) drawChart(ctx context.Context, doc Document, pc PageContext, c detailsChart) {
	path := c.endpoint + "?" + query(pc)

	start := time.Now()
	body, err := p.fetcher.Get(ctx, path)
	fetchMs := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordBackendFetch(c.endpoint, fetchMs)
	if err != nil {
		p.skip(ctx, c, fetchMs, err)
		return
	}

	var data ChartDataset
	if err := json.Unmarshal(body, &data); err != nil {
		p.skip(ctx, c, fetchMs, err)
		return
	}

	err = p.charts.NewChart(doc.Element(c.target), ChartConfig{
		Type:   HorizontalBar,
		Label:  c.label,
		Data:   data,
		Legend: false,
		Style:  p.style,
	})
	if err != nil {
		p.skip(ctx, c, fetchMs, err)
		return
	}
	metrics.RecordChartRendered(c.label)
}

func (p *DetailsPage) skip(ctx context.Context, c detailsChart, fetchMs float64, err error) {
	metrics.RecordChartFetchFailed(c.label)
	p.log().Debug(ctx, "chart skipped",
		logger.String("endpoint", c.endpoint),
		logger.Float64("fetch_ms", fetchMs),
		logger.Error(err),
	)
}

func (p *DetailsPage) log() logger.Logger {
	if p.logger == nil {
		return logger.Named("details-page")
	}
	return p.logger
}

// query encodes the page context with tool first.
func query(pc PageContext) string {
	return "tool=" + url.QueryEscape(pc.Tool) + "&reference=" + url.QueryEscape(pc.Reference)
}
