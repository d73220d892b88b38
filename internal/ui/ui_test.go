package ui_test

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"sync"
	"testing"

	"github.com/okian/analysis-dashboard/internal/ui"
	"github.com/okian/analysis-dashboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeElement struct {
	selector string
}

func (e fakeElement) Render(template.HTML) {}

type fakeTabs struct {
	mu    sync.Mutex
	shown int
}

func (t *fakeTabs) ShowFirst() {
	t.mu.Lock()
	t.shown++
	t.mu.Unlock()
}

type fakeDocument struct {
	texts map[string]string
	tabs  map[string]*fakeTabs
	mu    sync.Mutex
}

func newFakeDocument(texts map[string]string) *fakeDocument {
	return &fakeDocument{texts: texts, tabs: map[string]*fakeTabs{}}
}

func (d *fakeDocument) Text(selector string) string { return d.texts[selector] }

func (d *fakeDocument) Element(selector string) ui.Element { return fakeElement{selector: selector} }

func (d *fakeDocument) Tabs(selector string) ui.TabStrip {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tabs[selector] == nil {
		d.tabs[selector] = &fakeTabs{}
	}
	return d.tabs[selector]
}

type fakeFetcher struct {
	mu        sync.Mutex
	calls     []string
	responses map[string]string
}

func (f *fakeFetcher) Get(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	body, ok := f.responses[path]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return []byte(body), nil
}

type chartCall struct {
	target string
	cfg    ui.ChartConfig
}

type fakeCharts struct {
	mu    sync.Mutex
	calls []chartCall
}

func (c *fakeCharts) NewChart(target ui.Element, cfg ui.ChartConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, chartCall{target: target.(fakeElement).selector, cfg: cfg})
	return nil
}

func (c *fakeCharts) byTarget() map[string]ui.ChartConfig {
	out := map[string]ui.ChartConfig{}
	for _, call := range c.calls {
		out[call.target] = call.cfg
	}
	return out
}

const (
	categoriesPath = "ajax/categories?tool=pmd&reference=v2"
	typesPath      = "ajax/types?tool=pmd&reference=v2"
	categoriesBody = `{"labels":["Design","Documentation"],"datasets":[{"data":[15,3]}]}`
	typesBody      = `{"labels":["GodClass"],"datasets":[{"data":[2]}]}`
)

func TestDetailsPage(t *testing.T) {
	Convey("Given a details page for pmd/v2", t, func() {
		doc := newFakeDocument(map[string]string{
			"#tool":      "  pmd\n",
			"#reference": "\tv2 ",
		})
		charts := &fakeCharts{}

		Convey("When both requests succeed", func() {
			fetcher := &fakeFetcher{responses: map[string]string{
				categoriesPath: categoriesBody,
				typesPath:      typesBody,
			}}
			ui.NewDetailsPage(fetcher, charts).Init(context.Background(), doc).Wait()

			Convey("Then each endpoint is requested exactly once with both parameters", func() {
				So(fetcher.calls, ShouldHaveLength, 2)
				So(fetcher.calls, ShouldContain, categoriesPath)
				So(fetcher.calls, ShouldContain, typesPath)
			})

			Convey("Then both charts are drawn from the response data", func() {
				got := charts.byTarget()
				So(got, ShouldHaveLength, 2)

				categories := got["#categories-chart"]
				So(categories.Type, ShouldEqual, ui.HorizontalBar)
				So(categories.Label, ShouldEqual, "Categories")
				So(categories.Legend, ShouldBeFalse)
				So(categories.Style, ShouldResemble, ui.DefaultChartStyle)
				So(categories.Data.Labels, ShouldResemble, []string{"Design", "Documentation"})
				So(categories.Data.Datasets[0].Data, ShouldResemble, []float64{15, 3})

				types := got["#types-chart"]
				So(types.Label, ShouldEqual, "Types")
				So(types.Data.Labels, ShouldResemble, []string{"GodClass"})
			})

			Convey("Then the first tab is active", func() {
				So(doc.tabs["#tab-details"].shown, ShouldEqual, 1)
			})
		})

		Convey("When the categories request fails", func() {
			fetcher := &fakeFetcher{responses: map[string]string{typesPath: typesBody}}
			ui.NewDetailsPage(fetcher, charts).Init(context.Background(), doc).Wait()

			Convey("Then only the types chart is drawn", func() {
				got := charts.byTarget()
				So(got, ShouldHaveLength, 1)
				So(got, ShouldContainKey, "#types-chart")
			})

			Convey("Then the first tab is still active", func() {
				So(doc.tabs["#tab-details"].shown, ShouldEqual, 1)
			})
		})

		Convey("When both requests fail or return garbage", func() {
			fetcher := &fakeFetcher{responses: map[string]string{typesPath: "<html>"}}
			ui.NewDetailsPage(fetcher, charts).Init(context.Background(), doc).Wait()

			Convey("Then no chart is drawn and the tab is active", func() {
				So(charts.calls, ShouldBeEmpty)
				So(fetcher.calls, ShouldHaveLength, 2)
				So(doc.tabs["#tab-details"].shown, ShouldEqual, 1)
			})
		})

		Convey("When a skipped chart is logged", func() {
			var buf bytes.Buffer
			So(logger.Init(logger.WithOutput(&buf)), ShouldBeNil)
			So(logger.SetLevelString("debug"), ShouldBeNil)
			defer func() {
				_ = logger.SetLevelString("info")
				_ = logger.Init()
			}()

			fetcher := &fakeFetcher{responses: map[string]string{typesPath: typesBody}}
			ui.NewDetailsPage(fetcher, charts, ui.WithLogger(logger.Named("details"))).
				Init(context.Background(), doc).Wait()

			Convey("Then the line names the endpoint and its fetch time", func() {
				So(buf.String(), ShouldContainSubstring, "chart skipped")
				So(buf.String(), ShouldContainSubstring, "endpoint=ajax/categories")
				So(buf.String(), ShouldContainSubstring, "fetch_ms=")
				So(buf.String(), ShouldContainSubstring, "error=\"connection refused\"")
			})
		})

		Convey("When a custom chart style is given", func() {
			style := ui.ChartStyle{FillColor: "#000000", BorderColor: "#ffffff", BorderWidth: 2}
			fetcher := &fakeFetcher{responses: map[string]string{categoriesPath: categoriesBody}}
			ui.NewDetailsPage(fetcher, charts, ui.WithChartStyle(style)).Init(context.Background(), doc).Wait()

			Convey("Then the chart uses it", func() {
				So(charts.byTarget()["#categories-chart"].Style, ShouldResemble, style)
			})
		})
	})
}

type fakeGrid struct {
	cfg      ui.GridConfig
	target   string
	handlers []func(ui.IssueRow)
}

func (g *fakeGrid) OnRowClick(h func(ui.IssueRow)) { g.handlers = append(g.handlers, h) }

// click dispatches a raw row the way a grid does: map, then notify.
func (g *fakeGrid) click(cells ...string) {
	row := g.cfg.Mapper(cells)
	for _, h := range g.handlers {
		h(row)
	}
}

type fakeGrids struct {
	grid *fakeGrid
}

func (f *fakeGrids) NewGrid(_ context.Context, target ui.Element, cfg ui.GridConfig) ui.Grid {
	f.grid = &fakeGrid{cfg: cfg, target: target.(fakeElement).selector}
	return f.grid
}

type navigation struct {
	url, target string
}

type fakeNavigator struct {
	opened []navigation
}

func (n *fakeNavigator) Open(url, target string) {
	n.opened = append(n.opened, navigation{url: url, target: target})
}

func TestIssuesPage(t *testing.T) {
	Convey("Given an initialized issues page", t, func() {
		grids := &fakeGrids{}
		nav := &fakeNavigator{}
		grid := ui.NewIssuesPage(grids, nav).Init(context.Background(), newFakeDocument(nil))

		Convey("The grid is mounted on #issues with the issues source", func() {
			So(grid, ShouldEqual, grids.grid)
			So(grids.grid.target, ShouldEqual, "#issues")
			So(grids.grid.cfg.Source, ShouldEqual, "ajax/issues")
			So(grids.grid.handlers, ShouldHaveLength, 1)
		})

		Convey("Clicking a row opens its details", func() {
			grids.grid.click("checkstyle", "ignored", "src/main/java/Foo.java", "12", "0", "1", "11", "0")

			So(nav.opened, ShouldHaveLength, 1)
			So(nav.opened[0].url, ShouldEqual, "details?tool=checkstyle&reference=src/main/java/Foo.java")
			So(nav.opened[0].target, ShouldEqual, "Details Report")
		})

		Convey("Clicking two rows reuses the same window", func() {
			grids.grid.click("pmd", "PMD", "pmd.xml")
			grids.grid.click("checkstyle", "CheckStyle", "main")

			So(nav.opened, ShouldHaveLength, 2)
			So(nav.opened[0].target, ShouldEqual, nav.opened[1].target)
			So(nav.opened[1].url, ShouldEqual, "details?tool=checkstyle&reference=main")
		})

		Convey("Values are interpolated without encoding", func() {
			grids.grid.click("pmd", "PMD", "a&b#c")
			So(nav.opened[0].url, ShouldEqual, "details?tool=pmd&reference=a&b#c")
		})
	})
}

func TestMapIssueRow(t *testing.T) {
	Convey("Given raw grid rows", t, func() {
		Convey("Positional columns are named", func() {
			row := ui.MapIssueRow([]string{"pmd", "PMD", "v2", "4"})
			So(row.Tool, ShouldEqual, "pmd")
			So(row.ToolName, ShouldEqual, "PMD")
			So(row.Reference, ShouldEqual, "v2")
			So(row.Cells, ShouldResemble, []string{"pmd", "PMD", "v2", "4"})
		})

		Convey("Short rows map missing columns to empty strings", func() {
			row := ui.MapIssueRow([]string{"pmd"})
			So(row.Tool, ShouldEqual, "pmd")
			So(row.Reference, ShouldBeEmpty)
		})
	})
}
