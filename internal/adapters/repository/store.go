// Package repository persists analysis reports.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okian/analysis-dashboard/internal/domain/analysis"
)

// Store provides read/write access to uploaded reports.
type Store interface {
	// Save stores r. A report with the same tool and reference is replaced
	// and keeps its ID. The stored report is returned.
	Save(ctx context.Context, r analysis.Report) (analysis.Report, error)

	// FindByKey returns the report for a tool and reference.
	// Returns ErrNotFound if no such report exists.
	FindByKey(ctx context.Context, key analysis.Key) (analysis.Report, error)

	// FindAll returns every report ordered by tool, then reference.
	FindAll(ctx context.Context) ([]analysis.Report, error)

	// Count returns the number of stored reports.
	Count(ctx context.Context) (int, error)

	Close() error
}

// prepare validates r and fills in the generated fields.
func prepare(r analysis.Report) (analysis.Report, error) {
	if r.Tool == "" || r.Reference == "" {
		return r, ErrInvalidReport
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.Issues = append([]analysis.Issue(nil), r.Issues...)
	return r, nil
}
