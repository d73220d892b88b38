package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/analysis-dashboard/internal/adapters/http/api"
	"github.com/okian/analysis-dashboard/internal/adapters/repository"
	"github.com/okian/analysis-dashboard/internal/domain/analysis"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDeps struct {
	categories analysis.Distribution
	types      analysis.Distribution
	table      analysis.IssuesTable
	err        error
	calls      []string
}

func (m *mockDeps) DistributionByCategory(_ context.Context, tool, reference string) (analysis.Distribution, error) {
	m.calls = append(m.calls, "categories:"+tool+":"+reference)
	return m.categories, m.err
}

func (m *mockDeps) DistributionByType(_ context.Context, tool, reference string) (analysis.Distribution, error) {
	m.calls = append(m.calls, "types:"+tool+":"+reference)
	return m.types, m.err
}

func (m *mockDeps) IssuesTable(context.Context) (analysis.IssuesTable, error) {
	return m.table, m.err
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "reports": 2}
}

func newDeps() *mockDeps {
	return &mockDeps{
		categories: analysis.NewDistribution(map[string]int{"Design": 15, "Documentation": 3}),
		types:      analysis.NewDistribution(map[string]int{"GodClass": 2}),
		table: analysis.IssuesTable{Data: [][]string{
			{"pmd", "PMD", "v2", "3", "0", "1", "2", "0"},
		}},
	}
}

func serve(deps api.Dependencies, method, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}).Register(context.Background(), mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestAjaxDistributions(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newDeps()

		Convey("When categories are requested for a report", func() {
			rec := serve(deps, http.MethodGet, "/ajax/categories?tool=pmd&reference=v2")

			Convey("Then the chart dataset is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				So(strings.TrimSpace(rec.Body.String()), ShouldEqual,
					`{"labels":["Design","Documentation"],"datasets":[{"data":[15,3]}]}`)
				So(deps.calls, ShouldResemble, []string{"categories:pmd:v2"})
			})
		})

		Convey("When types are requested", func() {
			rec := serve(deps, http.MethodGet, "/ajax/types?tool=pmd&reference=v2")
			var d analysis.Distribution
			So(json.Unmarshal(rec.Body.Bytes(), &d), ShouldBeNil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(d.Labels, ShouldResemble, []string{"GodClass"})
		})

		Convey("When a parameter is missing", func() {
			for _, target := range []string{
				"/ajax/categories?reference=v2",
				"/ajax/types?tool=pmd",
				"/ajax/types?tool=%20&reference=v2",
			} {
				rec := serve(deps, http.MethodGet, target)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
			}
			So(deps.calls, ShouldBeEmpty)
		})

		Convey("When the report does not exist", func() {
			deps.err = fmt.Errorf("pmd/v9: %w", repository.ErrNotFound)
			rec := serve(deps, http.MethodGet, "/ajax/categories?tool=pmd&reference=v9")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(rec.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
		})

		Convey("When the store fails", func() {
			deps.err = errors.New("disk on fire")
			rec := serve(deps, http.MethodGet, "/ajax/types?tool=pmd&reference=v2")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(rec.Body.String(), ShouldContainSubstring, "disk on fire")
		})

		Convey("When the method is not GET", func() {
			rec := serve(deps, http.MethodPost, "/ajax/categories?tool=pmd&reference=v2")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAjaxIssues(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newDeps()

		Convey("The issues table is served in the grid data shape", func() {
			rec := serve(deps, http.MethodGet, "/ajax/issues")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"data":[["pmd","PMD","v2","3","0","1","2","0"]]}`)
		})

		Convey("Store failures are internal errors", func() {
			deps.err = errors.New("boom")
			rec := serve(deps, http.MethodGet, "/ajax/issues")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newDeps()

		Convey("Stats are served as JSON", func() {
			rec := serve(deps, http.MethodGet, "/stats")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("Health exposes the metrics registry", func() {
			serve(deps, http.MethodGet, "/ajax/issues")
			rec := serve(deps, http.MethodGet, "/healthz")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "dashboard_analysis_http_requests_total")
		})

		Convey("Handler serves only API routes", func() {
			h := api.NewServer(deps, mockStats{}).Handler()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ajax/issues", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)

			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/details", nil))
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
