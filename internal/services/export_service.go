package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"fooddiary/internal/amqp"
	"fooddiary/internal/core"
	"fooddiary/internal/export"
	"fooddiary/internal/metrics"
	"fooddiary/internal/notestable"
	"fooddiary/internal/storage"
)

// ExportPublisher announces new export jobs to the worker.
type ExportPublisher interface {
	PublishExportRequested(ctx context.Context, msg *amqp.ExportRequestedMessage) error
}

type ExportConfig struct {
	// Title heads every generated document.
	Title string

	// MaxDays bounds the length of an exported range. Zero means unbounded.
	MaxDays int
}

// File is a generated export ready for download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExportService renders diary ranges into documents and queues Google
// Sheets exports.
type ExportService struct {
	repo      *storage.SQLiteRepository
	renderer  *notestable.Renderer
	publisher ExportPublisher
	metrics   *metrics.Metrics
	config    ExportConfig
	now       func() time.Time
}

// NewExportService returns an ExportService. publisher and m may be nil;
// without a publisher export jobs wait for the poller.
func NewExportService(repo *storage.SQLiteRepository, publisher ExportPublisher, m *metrics.Metrics, config ExportConfig) *ExportService {
	if config.Title == "" {
		config.Title = "Food diary"
	}
	return &ExportService{
		repo:      repo,
		renderer:  notestable.NewRenderer(nil, nil, nil),
		publisher: publisher,
		metrics:   m,
		config:    config,
		now:       time.Now,
	}
}

// Renderer returns the table renderer shared by every export.
func (s *ExportService) Renderer() *notestable.Renderer {
	return s.renderer
}

func (s *ExportService) validateRange(r core.DateRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if s.config.MaxDays > 0 && r.Days() > s.config.MaxDays {
		return core.NewValidationError("endDate", "Export range must not exceed %d days", s.config.MaxDays)
	}
	return nil
}

// Document loads every page in r and renders it.
func (s *ExportService) Document(ctx context.Context, r core.DateRange) (export.Document, error) {
	if err := s.validateRange(r); err != nil {
		return export.Document{}, err
	}
	pages, err := s.repo.PagesWithNotes(ctx, r)
	if err != nil {
		return export.Document{}, err
	}
	return export.BuildDocument(s.config.Title, r, pages, s.renderer), nil
}

// Export generates the file of r in format f.
func (s *ExportService) Export(ctx context.Context, r core.DateRange, f export.Format) (File, error) {
	start := s.now()
	data, err := s.generate(ctx, r, f)
	s.metrics.ObserveExport(string(f), len(data), s.now().Sub(start), err)
	if err != nil {
		return File{}, err
	}

	slog.InfoContext(ctx, "Export generated",
		"format", string(f),
		"start_date", r.Start.String(),
		"end_date", r.End.String(),
		"size", humanize.Bytes(uint64(len(data))))

	return File{
		Name:        export.FileName(r, f),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

func (s *ExportService) generate(ctx context.Context, r core.DateRange, f export.Format) ([]byte, error) {
	switch f {
	case export.FormatPDF, export.FormatXLSX:
		doc, err := s.Document(ctx, r)
		if err != nil {
			return nil, err
		}
		if f == export.FormatPDF {
			return export.GeneratePDF(doc)
		}
		return export.GenerateXLSX(doc)
	case export.FormatJSON:
		if err := s.validateRange(r); err != nil {
			return nil, err
		}
		pages, err := s.repo.PagesWithNotes(ctx, r)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := export.EncodeJSON(&buf, pages); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, core.NewValidationError("format", "Unknown export format '%s'", f)
}

// RequestSheetsExport records a Google Sheets export job for r and announces
// it. The job id is returned even when publishing fails; the poller retries
// pending jobs.
func (s *ExportService) RequestSheetsExport(ctx context.Context, r core.DateRange) (string, error) {
	if err := s.validateRange(r); err != nil {
		return "", err
	}
	job := core.ExportJob{
		ID:     uuid.NewString(),
		Kind:   core.ExportKindGoogleSheets,
		Range:  r,
		Status: core.JobPending,
	}
	if err := s.repo.CreateExportJob(ctx, job); err != nil {
		return "", fmt.Errorf("save export job: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, export job left for the poller", "job_id", job.ID)
		return job.ID, nil
	}
	if err := s.publisher.PublishExportRequested(ctx, amqp.NewExportRequestedMessage(job)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export request",
			"job_id", job.ID, "error", err)
	}
	return job.ID, nil
}

func (s *ExportService) JobStatus(ctx context.Context, id string) (core.ExportJob, error) {
	return s.repo.GetExportJob(ctx, id)
}
