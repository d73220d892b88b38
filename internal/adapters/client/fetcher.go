// Package client talks to the analytics backend: page widget fetches and
// report uploads.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxBodyBytes = 8 << 20

// HTTPFetcher performs widget fetches against a remote backend.
type HTTPFetcher struct {
	client *http.Client
	base   *url.URL
}

// NewHTTPFetcher returns a fetcher resolving relative endpoints against baseURL.
func NewHTTPFetcher(baseURL string, timeout time.Duration) (*HTTPFetcher, error) {
	base, err := parseBase(baseURL)
	if err != nil {
		return nil, err
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		base:   base,
	}, nil
}

// Get fetches path and returns the body of a 2xx response.
func (f *HTTPFetcher) Get(ctx context.Context, path string) ([]byte, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	target := f.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrStatus, target, resp.StatusCode)
	}
	return body, nil
}

// LocalFetcher dispatches widget fetches to an in-process handler.
type LocalFetcher struct {
	handler http.Handler
}

func NewLocalFetcher(h http.Handler) *LocalFetcher {
	return &LocalFetcher{handler: h}
}

// Get serves path on the handler and returns the body of a 2xx response.
func (f *LocalFetcher) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/"+strings.TrimPrefix(path, "/"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	w := &bufferWriter{header: make(http.Header), status: http.StatusOK}
	f.handler.ServeHTTP(w, req)

	if w.status < 200 || w.status > 299 {
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrStatus, req.URL.Path, w.status)
	}
	return w.body.Bytes(), nil
}

// bufferWriter collects a handler response in memory.
type bufferWriter struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (w *bufferWriter) Header() http.Header { return w.header }

func (w *bufferWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
}

func (w *bufferWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.body.Write(b)
}

// parseBase parses an absolute base URL and makes sure its path ends with a
// slash so relative endpoints resolve below it.
func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}
