package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/okian/analysis-dashboard/internal/domain/analysis"
	"github.com/okian/analysis-dashboard/pkg/metrics"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type reportEntity struct {
	ID        string        `gorm:"primaryKey;size:36"`
	Tool      string        `gorm:"size:64;not null;uniqueIndex:uk_tool_reference,priority:1"`
	ToolName  string        `gorm:"size:128;not null"`
	Reference string        `gorm:"size:255;not null;uniqueIndex:uk_tool_reference,priority:2"`
	CreatedAt time.Time     `gorm:"not null"`
	Issues    []issueEntity `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
}

func (reportEntity) TableName() string {
	return "analysis_report"
}

type issueEntity struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	ReportID    string `gorm:"size:36;not null;index:idx_report_position,priority:1"`
	Position    int    `gorm:"not null;index:idx_report_position,priority:2"`
	FileName    string `gorm:"size:1024"`
	LineStart   int
	LineEnd     int
	ColumnStart int
	ColumnEnd   int
	Category    string `gorm:"size:255"`
	Type        string `gorm:"size:255"`
	Severity    int    `gorm:"not null"`
	Message     string `gorm:"type:text"`
	PackageName string `gorm:"size:255"`
	ModuleName  string `gorm:"size:255"`
	Fingerprint string `gorm:"size:32"`
}

func (issueEntity) TableName() string {
	return "analysis_issue"
}

// GormStore keeps reports in a SQL database.
type GormStore struct {
	db *gorm.DB
}

// OpenGormStore connects to a sqlite or mysql database and migrates the schema.
func OpenGormStore(ctx context.Context, driver, dsn string, opts ...Option) (*GormStore, error) {
	o := defaultGormOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError:  true,
		CreateBatchSize: o.batchSize,
		Logger:          gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.maxOpenConns)
	sqlDB.SetMaxIdleConns(o.maxIdleConns)
	sqlDB.SetConnMaxLifetime(o.connMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&reportEntity{}, &issueEntity{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &GormStore{db: db}
	s.publish(ctx)
	return s, nil
}

func (s *GormStore) Save(ctx context.Context, r analysis.Report) (analysis.Report, error) {
	r, err := prepare(r)
	if err != nil {
		return analysis.Report{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing reportEntity
		err := tx.Where("tool = ? AND reference = ?", r.Tool, r.Reference).Take(&existing).Error
		switch {
		case err == nil:
			r.ID = existing.ID
			if err := tx.Where("report_id = ?", existing.ID).Delete(&issueEntity{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}
		e := toEntity(r)
		return tx.Create(&e).Error
	})
	if err != nil {
		metrics.RecordErrorByType("repository_save", "high")
		return analysis.Report{}, fmt.Errorf("save report %s/%s: %w", r.Tool, r.Reference, err)
	}

	s.publish(ctx)
	return r, nil
}

func (s *GormStore) FindByKey(ctx context.Context, key analysis.Key) (analysis.Report, error) {
	var e reportEntity
	err := s.withIssues(ctx).
		Where("tool = ? AND reference = ?", key.Tool, key.Reference).
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RecordErrorByType("repository_not_found", "low")
		return analysis.Report{}, ErrNotFound
	}
	if err != nil {
		return analysis.Report{}, err
	}
	return fromEntity(e), nil
}

func (s *GormStore) FindAll(ctx context.Context) ([]analysis.Report, error) {
	var entities []reportEntity
	if err := s.withIssues(ctx).Order("tool, reference").Find(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]analysis.Report, 0, len(entities))
	for _, e := range entities {
		out = append(out, fromEntity(e))
	}
	return out, nil
}

func (s *GormStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&reportEntity{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) withIssues(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Issues", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

func (s *GormStore) publish(ctx context.Context) {
	var reports, issues int64
	if err := s.db.WithContext(ctx).Model(&reportEntity{}).Count(&reports).Error; err != nil {
		return
	}
	if err := s.db.WithContext(ctx).Model(&issueEntity{}).Count(&issues).Error; err != nil {
		return
	}
	metrics.UpdateReportsStored(int(reports))
	metrics.UpdateIssuesStored(int(issues))
}

func toEntity(r analysis.Report) reportEntity {
	e := reportEntity{
		ID:        r.ID,
		Tool:      r.Tool,
		ToolName:  r.ToolName,
		Reference: r.Reference,
		CreatedAt: r.CreatedAt,
		Issues:    make([]issueEntity, 0, len(r.Issues)),
	}
	for i, issue := range r.Issues {
		e.Issues = append(e.Issues, issueEntity{
			ReportID:    r.ID,
			Position:    i,
			FileName:    issue.FileName,
			LineStart:   issue.LineStart,
			LineEnd:     issue.LineEnd,
			ColumnStart: issue.ColumnStart,
			ColumnEnd:   issue.ColumnEnd,
			Category:    issue.Category,
			Type:        issue.Type,
			Severity:    int(issue.Severity),
			Message:     issue.Message,
			PackageName: issue.PackageName,
			ModuleName:  issue.ModuleName,
			Fingerprint: issue.Fingerprint,
		})
	}
	return e
}

func fromEntity(e reportEntity) analysis.Report {
	r := analysis.Report{
		ID:        e.ID,
		Tool:      e.Tool,
		ToolName:  e.ToolName,
		Reference: e.Reference,
		CreatedAt: e.CreatedAt,
		Issues:    make([]analysis.Issue, 0, len(e.Issues)),
	}
	for _, ie := range e.Issues {
		r.Issues = append(r.Issues, analysis.Issue{
			FileName:    ie.FileName,
			LineStart:   ie.LineStart,
			LineEnd:     ie.LineEnd,
			ColumnStart: ie.ColumnStart,
			ColumnEnd:   ie.ColumnEnd,
			Category:    ie.Category,
			Type:        ie.Type,
			Severity:    analysis.Severity(ie.Severity),
			Message:     ie.Message,
			PackageName: ie.PackageName,
			ModuleName:  ie.ModuleName,
			Fingerprint: ie.Fingerprint,
		})
	}
	return r
}
