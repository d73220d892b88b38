package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"
)

// UploadResult is the backend's answer to an accepted upload.
type UploadResult struct {
	ID        string `json:"id"`
	Tool      string `json:"tool"`
	Reference string `json:"reference"`
	Issues    int    `json:"issues"`
	Details   string `json:"details"`
}

// Uploader posts analysis reports to the dashboard.
type Uploader struct {
	client *http.Client
	base   string
}

// NewUploader returns an uploader for the dashboard at baseURL.
func NewUploader(baseURL string, timeout time.Duration) (*Uploader, error) {
	base, err := parseBase(baseURL)
	if err != nil {
		return nil, err
	}
	return &Uploader{
		client: &http.Client{Timeout: timeout},
		base:   base.String(),
	}, nil
}

// Upload sends the report read from r as the multipart form fields file,
// tool and reference.
func (u *Uploader) Upload(ctx context.Context, tool, reference, filename string, r io.Reader) (UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("tool", tool); err != nil {
		return UploadResult{}, err
	}
	if err := mw.WriteField("reference", reference); err != nil {
		return UploadResult{}, err
	}
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadResult{}, fmt.Errorf("read report: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.base+"issues", &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return UploadResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return UploadResult{}, err
	}
	if resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &apiErr)
		return UploadResult{}, fmt.Errorf("%w: upload returned %d: %s", ErrStatus, resp.StatusCode, apiErr.Message)
	}

	var result UploadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return UploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}
	return result, nil
}
