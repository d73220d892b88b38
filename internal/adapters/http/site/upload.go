package site

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/analysis-dashboard/internal/adapters/client"
	"github.com/okian/analysis-dashboard/internal/domain/parser"
	"github.com/okian/analysis-dashboard/pkg/logger"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleUpload accepts a multipart report upload with the fields file, tool
// and reference. Browsers are redirected to the details page; clients that
// accept JSON get a client.UploadResult.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)
	if err := r.ParseMultipartForm(h.uploadMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		h.fail(w, r, http.StatusBadRequest, "bad_request", err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "bad_request", ErrMissingFile)
		return
	}
	defer func() { _ = file.Close() }()

	report, err := h.reports.Upload(r.Context(),
		r.FormValue("tool"),
		strings.TrimSpace(r.FormValue("reference")),
		header.Filename,
		file,
	)
	switch {
	case errors.Is(err, parser.ErrUnknownTool), errors.Is(err, parser.ErrParse):
		h.fail(w, r, http.StatusBadRequest, "invalid_report", err)
		return
	case err != nil:
		h.log().Error(r.Context(), "upload failed", logger.Error(err))
		h.fail(w, r, http.StatusInternalServerError, "internal_error", err)
		return
	}

	details := detailsLink(report.Tool, report.Reference)
	if !wantsJSON(r) {
		http.Redirect(w, r, details, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, client.UploadResult{
		ID:        report.ID,
		Tool:      report.Tool,
		Reference: report.Reference,
		Issues:    report.Size(),
		Details:   details,
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	if wantsJSON(r) {
		writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
		return
	}
	http.Error(w, err.Error(), status)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
