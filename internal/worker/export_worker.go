package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fooddiary/internal/amqp"
	"fooddiary/internal/core"
	"fooddiary/internal/export"
	"fooddiary/internal/metrics"
	"fooddiary/internal/services"
	"fooddiary/internal/sheets"
	"fooddiary/internal/storage"
)

// DefaultMaxRetries is the number of attempts before a job is marked failed.
const DefaultMaxRetries = 3

// DocumentSource renders the document of a date range.
type DocumentSource interface {
	Document(ctx context.Context, r core.DateRange) (export.Document, error)
}

// ExportWorker writes requested diary ranges to a spreadsheet.
type ExportWorker struct {
	storage    *storage.SQLiteRepository
	documents  DocumentSource
	sheets     sheets.DocumentWriter
	metrics    *metrics.Metrics
	maxRetries int
}

var _ services.ExportJobHandler = (*ExportWorker)(nil)

func NewExportWorker(storage *storage.SQLiteRepository, documents DocumentSource, sheets sheets.DocumentWriter, m *metrics.Metrics, maxRetries int) *ExportWorker {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	return &ExportWorker{
		storage:    storage,
		documents:  documents,
		sheets:     sheets,
		metrics:    m,
		maxRetries: maxRetries,
	}
}

// HandleExportRequest processes a single export request message from AMQP
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestedMessage) error {
	slog.InfoContext(ctx, "Processing export request",
		"job_id", msg.JobID,
		"start_date", msg.StartDate.String(),
		"end_date", msg.EndDate.String())

	err := w.ProcessJob(ctx, msg.JobID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Dropping export request for unknown job", "job_id", msg.JobID)
		return nil
	}
	return err
}

// ProcessJob claims a pending job and writes its document. A failed write is
// recorded on the job, to be retried by the poller until the retry budget is
// spent; only storage errors are returned.
func (w *ExportWorker) ProcessJob(ctx context.Context, jobID string) error {
	job, err := w.storage.GetExportJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get export job: %w", err)
	}
	if job.Status.Finished() {
		slog.DebugContext(ctx, "Export job already finished, skipping",
			"job_id", job.ID, "status", string(job.Status))
		return nil
	}

	claimed, err := w.storage.ClaimExportJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if !claimed {
		slog.DebugContext(ctx, "Export job taken by another consumer", "job_id", job.ID)
		return nil
	}

	ref, err := w.write(ctx, job)
	if err != nil {
		return w.recordFailure(ctx, job, err)
	}

	if err := w.storage.CompleteExportJob(ctx, job.ID, ref); err != nil {
		return fmt.Errorf("complete export job: %w", err)
	}
	w.metrics.ExportJobFinished("done")

	slog.InfoContext(ctx, "Export job completed",
		"job_id", job.ID,
		"sheets_ref", ref)

	return nil
}

func (w *ExportWorker) write(ctx context.Context, job core.ExportJob) (string, error) {
	doc, err := w.documents.Document(ctx, job.Range)
	if err != nil {
		return "", fmt.Errorf("build document: %w", err)
	}
	ref, err := w.sheets.WriteDocument(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("write to sheets: %w", err)
	}
	return ref, nil
}

func (w *ExportWorker) recordFailure(ctx context.Context, job core.ExportJob, cause error) error {
	attempt := job.Attempts + 1
	slog.WarnContext(ctx, "Export job attempt failed",
		"job_id", job.ID,
		"attempt", attempt,
		"error", cause)

	if attempt >= w.maxRetries {
		if err := w.storage.FailExportJob(ctx, job.ID, cause.Error()); err != nil {
			return fmt.Errorf("mark export job failed: %w", err)
		}
		w.metrics.ExportJobFinished("failed")
		slog.ErrorContext(ctx, "Export job failed permanently after max retries",
			"job_id", job.ID,
			"attempts", attempt)
		return nil
	}

	if err := w.storage.RetryExportJob(ctx, job.ID, cause.Error()); err != nil {
		return fmt.Errorf("schedule export job retry: %w", err)
	}
	w.metrics.ExportJobFinished("retry")
	return nil
}

// StartupCheck returns jobs left processing for longer than staleAfter to
// pending and reports the job queue state.
func (w *ExportWorker) StartupCheck(ctx context.Context, staleAfter time.Duration) error {
	reset, err := w.storage.ResetStaleExportJobs(ctx, time.Now().Add(-staleAfter))
	if err != nil {
		return fmt.Errorf("reset stale export jobs: %w", err)
	}
	if reset > 0 {
		slog.InfoContext(ctx, "Reset stale export jobs on startup", "count", reset)
	}

	stats, err := w.storage.ExportJobStats(ctx)
	if err != nil {
		return fmt.Errorf("export job stats: %w", err)
	}

	if stats.Pending == 0 && stats.Processing == 0 {
		slog.InfoContext(ctx, "No pending export jobs found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found unfinished export jobs on startup",
		"pending", stats.Pending,
		"processing", stats.Processing,
		"failed", stats.Failed)

	return nil
}
