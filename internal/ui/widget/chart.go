package widget

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"math"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/okian/analysis-dashboard/internal/ui"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultChartHeight = 360
	defaultBarWidth    = 40
	defaultBarSpacing  = 24
	minChartWidth      = 480
	chartPadding       = 120
	labelMargin        = 8
	maxYTicks          = 6
)

var (
	fontOnce    sync.Once
	defaultFont *truetype.Font
	fontErr     error
)

// chartFont parses the bundled font once. go-chart initialises its own copy
// lazily without synchronisation, so every renderer passes this one in.
func chartFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		defaultFont, fontErr = chart.GetDefaultFont()
	})
	return defaultFont, fontErr
}

// ChartRenderer draws bar charts as inline SVG.
type ChartRenderer struct {
	height   int
	barWidth int
	font     *truetype.Font
	fontErr  error
}

// ChartOption configures a ChartRenderer.
type ChartOption func(*ChartRenderer)

// WithChartHeight sets the chart height in pixels.
func WithChartHeight(h int) ChartOption {
	return func(r *ChartRenderer) {
		if h > 0 {
			r.height = h
		}
	}
}

// WithBarWidth sets the width of a single bar in pixels.
func WithBarWidth(w int) ChartOption {
	return func(r *ChartRenderer) {
		if w > 0 {
			r.barWidth = w
		}
	}
}

func NewChartRenderer(opts ...ChartOption) *ChartRenderer {
	r := &ChartRenderer{height: defaultChartHeight, barWidth: defaultBarWidth}
	for _, opt := range opts {
		opt(r)
	}
	r.font, r.fontErr = chartFont()
	return r
}

// NewChart renders cfg into target. A dataset without values renders nothing.
// Bars are widened so the longest label fits on one line, and the chart width
// grows with the number of bars.
func (r *ChartRenderer) NewChart(target ui.Element, cfg ui.ChartConfig) error {
	if r.fontErr != nil {
		return fmt.Errorf("load chart font: %w", r.fontErr)
	}
	bars, top := chartBars(cfg)
	if len(bars) == 0 || top <= 0 {
		return nil
	}

	barWidth, err := r.fitBarWidth(bars)
	if err != nil {
		return err
	}

	ticks, ceiling := countTicks(top)
	bc := chart.BarChart{
		Font:       r.font,
		Width:      max(minChartWidth, chartPadding+len(bars)*(barWidth+defaultBarSpacing)),
		Height:     r.height,
		BarWidth:   barWidth,
		BarSpacing: defaultBarSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: ceiling},
			ValueFormatter: chart.IntValueFormatter,
			Ticks:          ticks,
		},
		Bars: bars,
	}
	if cfg.Legend {
		bc.Title = html.EscapeString(cfg.Label)
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.SVG, &buf); err != nil {
		return fmt.Errorf("render %s chart: %w", cfg.Label, err)
	}
	target.Render(template.HTML(buf.String())) //nolint:gosec // SVG produced by go-chart
	return nil
}

// fitBarWidth returns the configured bar width, or a wider one when a label
// would not fit in a bar slot at the axis font size.
func (r *ChartRenderer) fitBarWidth(bars []chart.Value) (int, error) {
	m, err := chart.SVG(1, 1)
	if err != nil {
		return 0, fmt.Errorf("measure chart labels: %w", err)
	}
	m.SetFont(r.font)
	m.SetFontSize(chart.DefaultAxisFontSize)

	width := r.barWidth
	for _, b := range bars {
		width = max(width, m.MeasureText(b.Label).Width()+labelMargin-defaultBarSpacing)
	}
	return width, nil
}

// chartBars pairs the labels with the first series. go-chart writes label
// text into the SVG verbatim, so labels are escaped here.
func chartBars(cfg ui.ChartConfig) ([]chart.Value, float64) {
	if len(cfg.Data.Datasets) == 0 {
		return nil, 0
	}
	style := chart.Style{
		FillColor:   hexColor(cfg.Style.FillColor),
		StrokeColor: hexColor(cfg.Style.BorderColor),
		StrokeWidth: cfg.Style.BorderWidth,
	}

	data := cfg.Data.Datasets[0].Data
	var (
		bars []chart.Value
		top  float64
	)
	for i, label := range cfg.Data.Labels {
		if i >= len(data) {
			break
		}
		bars = append(bars, chart.Value{Label: html.EscapeString(label), Value: data[i], Style: style})
		top = max(top, data[i])
	}
	return bars, top
}

// countTicks spaces whole-number ticks from zero up to the first step at or
// above top.
func countTicks(top float64) ([]chart.Tick, float64) {
	step := max(1, math.Ceil(top/maxYTicks))
	ceiling := step * math.Ceil(top/step)
	var ticks []chart.Tick
	for v := 0.0; v <= ceiling; v += step {
		ticks = append(ticks, chart.Tick{Value: v, Label: chart.IntValueFormatter(v)})
	}
	return ticks, ceiling
}

// hexColor parses #rgb or #rrggbb. Anything else yields the zero color, which
// go-chart replaces with its default.
func hexColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 3 && len(hex) != 6 {
		return drawing.Color{}
	}
	return drawing.ColorFromHex(hex)
}
