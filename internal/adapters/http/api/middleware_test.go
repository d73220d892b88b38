package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/analysis-dashboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a wrapped handler", t, func() {
		status := http.StatusOK
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("ok"))
		}, "middleware_test")

		Convey("The response passes through unchanged", func() {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "ok")
		})

		Convey("Error statuses are classified", func() {
			status = http.StatusRequestEntityTooLarge
			h(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

			n, err := testutil.GatherAndCount(metrics.GetRegistry(), "dashboard_analysis_errors_by_endpoint_total")
			So(err, ShouldBeNil)
			So(n, ShouldBeGreaterThan, 0)

			n, err = testutil.GatherAndCount(metrics.GetRegistry(), "dashboard_analysis_error_latency_milliseconds")
			So(err, ShouldBeNil)
			So(n, ShouldBeGreaterThan, 0)
		})
	})
}

func TestErrorClassification(t *testing.T) {
	Convey("Status codes map to error types and severities", t, func() {
		So(getErrorType(http.StatusInternalServerError), ShouldEqual, "server_error")
		So(getErrorType(http.StatusRequestEntityTooLarge), ShouldEqual, "too_large")
		So(getErrorType(http.StatusNotFound), ShouldEqual, "not_found")
		So(getErrorType(http.StatusBadRequest), ShouldEqual, "client_error")
		So(getErrorType(http.StatusOK), ShouldEqual, "unknown")

		So(getErrorSeverity(http.StatusBadGateway), ShouldEqual, "high")
		So(getErrorSeverity(http.StatusBadRequest), ShouldEqual, "medium")
		So(getErrorSeverity(http.StatusOK), ShouldEqual, "low")
	})
}
