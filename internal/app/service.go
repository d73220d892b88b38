// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the pages.
package service

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/analysis-dashboard/internal/adapters/repository"
	"github.com/okian/analysis-dashboard/internal/domain/analysis"
	"github.com/okian/analysis-dashboard/internal/domain/dedupe"
	"github.com/okian/analysis-dashboard/internal/domain/parser"
	"github.com/okian/analysis-dashboard/pkg/logger"
	"github.com/okian/analysis-dashboard/pkg/metrics"
)

// UploadedFileReference is used when an upload has neither a reference nor a file name.
const UploadedFileReference = "<<uploaded file>>"

// SeedReference is the reference of the bundled sample report.
const SeedReference = "pmd.xml"

//go:embed seed/pmd.xml
var seedPMD []byte

// Service implements the API dependencies for the analysis dashboard.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	registry *parser.Registry

	// State
	started    bool
	startedAt  time.Time
	uploads    int
	rejected   int
	duplicates int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the report store. The service owns it and closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRegistry sets the parser registry.
func WithRegistry(r *parser.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service backed by an in-memory store unless configured otherwise.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.registry == nil {
		s.registry = parser.NewRegistry()
	}
	return s
}

// Start marks the service ready to serve requests.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "analysis service started", logger.Int("tools", len(s.registry.All())))
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing report store failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "analysis service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Tools returns the supported tools sorted by name.
func (s *Service) Tools() []parser.Tool {
	return s.registry.All()
}

// Upload parses a report of the given tool and stores it under reference.
// Issues reported more than once are stored once.
// An empty reference falls back to the file name, then to UploadedFileReference.
func (s *Service) Upload(ctx context.Context, toolID, reference, filename string, r io.Reader) (analysis.Report, error) {
	if err := s.ready(); err != nil {
		return analysis.Report{}, err
	}

	tool, err := s.registry.Find(toolID)
	if err != nil {
		s.reject(ctx, "unknown_tool", err)
		return analysis.Report{}, err
	}

	start := time.Now()
	issues, err := tool.Parse(r)
	if err != nil {
		s.reject(ctx, "parse", err)
		return analysis.Report{}, err
	}
	issues, duplicates := dedupe.Issues(ctx, dedupe.NewInMemoryDeduper(), issues)

	report, err := s.store.Save(ctx, analysis.Report{
		Tool:      tool.ID,
		ToolName:  tool.Name,
		Reference: uploadReference(reference, filename),
		Issues:    issues,
	})
	if err != nil {
		s.reject(ctx, "store", err)
		return analysis.Report{}, err
	}

	s.mu.Lock()
	s.uploads++
	s.duplicates += duplicates
	s.mu.Unlock()

	metrics.RecordReportUploaded(tool.ID)
	metrics.RecordIssuesParsed(tool.ID, report.Size())
	metrics.RecordDuplicateIssues(tool.ID, duplicates)
	s.logger.Info(ctx, "report stored",
		logger.String("tool", report.Tool),
		logger.String("reference", report.Reference),
		logger.Int("issues", report.Size()),
		logger.Int("duplicates", duplicates),
		logger.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

func (s *Service) reject(ctx context.Context, reason string, err error) {
	s.mu.Lock()
	s.rejected++
	s.mu.Unlock()
	metrics.RecordUploadError(reason)
	s.logger.Warn(ctx, "report rejected", logger.String("reason", reason), logger.Error(err))
}

func uploadReference(reference, filename string) string {
	switch {
	case reference != "":
		return reference
	case filename != "":
		return filename
	default:
		return UploadedFileReference
	}
}

// Report returns the stored report for a tool and reference.
func (s *Service) Report(ctx context.Context, tool, reference string) (analysis.Report, error) {
	if err := s.ready(); err != nil {
		return analysis.Report{}, err
	}
	return s.store.FindByKey(ctx, analysis.Key{Tool: tool, Reference: reference})
}

// DistributionByCategory returns the number of issues per category.
func (s *Service) DistributionByCategory(ctx context.Context, tool, reference string) (analysis.Distribution, error) {
	return s.distribution(ctx, tool, reference, analysis.ByCategory)
}

// DistributionByType returns the number of issues per type.
func (s *Service) DistributionByType(ctx context.Context, tool, reference string) (analysis.Distribution, error) {
	return s.distribution(ctx, tool, reference, analysis.ByType)
}

func (s *Service) distribution(ctx context.Context, tool, reference string, prop func(analysis.Issue) string) (analysis.Distribution, error) {
	report, err := s.Report(ctx, tool, reference)
	if err != nil {
		return analysis.Distribution{}, err
	}
	return analysis.NewDistribution(report.PropertyCount(prop)), nil
}

// IssuesTable returns one row per stored report.
func (s *Service) IssuesTable(ctx context.Context) (analysis.IssuesTable, error) {
	if err := s.ready(); err != nil {
		return analysis.IssuesTable{}, err
	}
	reports, err := s.store.FindAll(ctx)
	if err != nil {
		return analysis.IssuesTable{}, fmt.Errorf("list reports: %w", err)
	}
	table := analysis.NewIssuesTable()
	for _, r := range reports {
		table.AddRow(r)
	}
	return *table, nil
}

// SeedTestData stores the bundled PMD sample unless a report with the same
// key already exists.
func (s *Service) SeedTestData(ctx context.Context) (analysis.Report, error) {
	if err := s.ready(); err != nil {
		return analysis.Report{}, err
	}
	existing, err := s.store.FindByKey(ctx, analysis.Key{Tool: "pmd", Reference: SeedReference})
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return analysis.Report{}, err
	}
	return s.Upload(ctx, "pmd", SeedReference, SeedReference, bytes.NewReader(seedPMD))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"tools":      len(s.registry.All()),
		"uploads":    s.uploads,
		"rejected":   s.rejected,
		"duplicates": s.duplicates,
	}

	if s.started {
		stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())
		if n, err := s.store.Count(context.Background()); err == nil {
			stats["reports"] = n
		}
	}

	return stats
}
