package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func backend() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ajax/types", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tool") == "" {
			http.Error(w, "missing tool", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"labels":["` + r.URL.Query().Get("reference") + `"]}`))
	})
	return mux
}

func TestHTTPFetcher(t *testing.T) {
	Convey("Given a remote backend below a path prefix", t, func() {
		srv := httptest.NewServer(http.StripPrefix("/dashboard", backend()))
		defer srv.Close()

		f, err := NewHTTPFetcher(srv.URL+"/dashboard", time.Second)
		So(err, ShouldBeNil)

		Convey("Relative endpoints resolve under the base path", func() {
			body, err := f.Get(context.Background(), "ajax/types?tool=pmd&reference=v2")
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, `{"labels":["v2"]}`)
		})

		Convey("Non-2xx responses wrap ErrStatus", func() {
			_, err := f.Get(context.Background(), "ajax/types")
			So(errors.Is(err, ErrStatus), ShouldBeTrue)

			_, err = f.Get(context.Background(), "ajax/unknown")
			So(errors.Is(err, ErrStatus), ShouldBeTrue)
		})
	})

	Convey("Given an invalid base url", t, func() {
		_, err := NewHTTPFetcher("not a url", time.Second)
		So(errors.Is(err, ErrBaseURL), ShouldBeTrue)
	})
}

func TestLocalFetcher(t *testing.T) {
	Convey("Given an in-process backend", t, func() {
		f := NewLocalFetcher(backend())

		Convey("Requests are served by the handler", func() {
			body, err := f.Get(context.Background(), "ajax/types?tool=pmd&reference=main")
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, `{"labels":["main"]}`)
		})

		Convey("Error statuses wrap ErrStatus", func() {
			_, err := f.Get(context.Background(), "/ajax/types?reference=main")
			So(errors.Is(err, ErrStatus), ShouldBeTrue)
		})
	})
}

func TestUploader(t *testing.T) {
	Convey("Given a dashboard accepting uploads", t, func() {
		var got struct {
			tool, reference, filename, content string
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/issues" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			file, header, err := r.FormFile("file")
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":400,"message":"missing file"}`))
				return
			}
			content, _ := io.ReadAll(file)
			got.tool = r.FormValue("tool")
			got.reference = r.FormValue("reference")
			got.filename = header.Filename
			got.content = string(content)

			if got.tool != "pmd" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":400,"message":"unknown analysis tool"}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(UploadResult{Tool: got.tool, Reference: got.reference, Issues: 3, Details: "details?tool=pmd&reference=v2"})
		}))
		defer srv.Close()

		u, err := NewUploader(srv.URL, time.Second)
		So(err, ShouldBeNil)

		Convey("The report is sent as a multipart form", func() {
			res, err := u.Upload(context.Background(), "pmd", "v2", "/tmp/build/pmd.xml", strings.NewReader("<pmd/>"))
			So(err, ShouldBeNil)
			So(got.tool, ShouldEqual, "pmd")
			So(got.reference, ShouldEqual, "v2")
			So(got.filename, ShouldEqual, "pmd.xml")
			So(got.content, ShouldEqual, "<pmd/>")
			So(res.Issues, ShouldEqual, 3)
			So(res.Details, ShouldEqual, "details?tool=pmd&reference=v2")
		})

		Convey("Rejections carry the server message", func() {
			_, err := u.Upload(context.Background(), "lint", "", "x.xml", strings.NewReader("<x/>"))
			So(errors.Is(err, ErrStatus), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "unknown analysis tool")
		})
	})
}
