package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fooddiary/internal/storage"
)

// ExportJobHandler runs one export job to completion or records its failure.
type ExportJobHandler interface {
	ProcessJob(ctx context.Context, jobID string) error
}

// ExportJobProcessorConfig holds configuration for the export job poller
type ExportJobProcessorConfig struct {
	// PollInterval is how often to check for pending jobs (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of jobs to process per poll cycle (default: 5)
	BatchSize int

	// StaleAfter is how long a job may stay processing before it is
	// considered abandoned by a crashed worker (default: 10m)
	StaleAfter time.Duration

	// CleanupInterval is how often to delete finished jobs (default: 1h)
	CleanupInterval time.Duration

	// CleanupAge is how old finished jobs must be before cleanup (default: 7 days)
	CleanupAge time.Duration
}

// DefaultExportJobProcessorConfig returns sensible defaults
func DefaultExportJobProcessorConfig() ExportJobProcessorConfig {
	return ExportJobProcessorConfig{
		PollInterval:    30 * time.Second,
		BatchSize:       5,
		StaleAfter:      10 * time.Minute,
		CleanupInterval: time.Hour,
		CleanupAge:      7 * 24 * time.Hour,
	}
}

// ExportJobProcessor picks up export jobs whose AMQP message was lost or
// whose last attempt failed, and hands them to a handler.
type ExportJobProcessor struct {
	storage *storage.SQLiteRepository
	handler ExportJobHandler
	config  ExportJobProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportJobProcessor(storage *storage.SQLiteRepository, handler ExportJobHandler, config ExportJobProcessorConfig) *ExportJobProcessor {
	defaults := DefaultExportJobProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = defaults.StaleAfter
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.CleanupAge <= 0 {
		config.CleanupAge = defaults.CleanupAge
	}
	return &ExportJobProcessor{
		storage: storage,
		handler: handler,
		config:  config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *ExportJobProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export job processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	p.resetStale(ctx)

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Export job processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for the current batch.
func (p *ExportJobProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export job processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export job processor stop timed out")
		return ctx.Err()
	}
}

func (p *ExportJobProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportJobProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(p.config.CleanupInterval)
	defer cleanupTicker.Stop()

	p.ProcessBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.resetStale(ctx)
			p.ProcessBatch(ctx)
		case <-cleanupTicker.C:
			p.cleanup(ctx)
		}
	}
}

// ProcessBatch hands up to BatchSize pending jobs to the handler and returns
// how many were attempted.
func (p *ExportJobProcessor) ProcessBatch(ctx context.Context) int {
	jobs, err := p.storage.PendingExportJobs(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load pending export jobs", "error", err)
		return 0
	}
	if len(jobs) == 0 {
		return 0
	}

	slog.DebugContext(ctx, "Processing export jobs", "count", len(jobs))

	attempted := 0
	for _, job := range jobs {
		select {
		case <-p.stopCh:
			return attempted
		case <-ctx.Done():
			return attempted
		default:
		}

		attempted++
		if err := p.handler.ProcessJob(ctx, job.ID); err != nil {
			slog.ErrorContext(ctx, "Export job processing failed",
				"job_id", job.ID, "error", err)
		}
	}
	return attempted
}

func (p *ExportJobProcessor) resetStale(ctx context.Context) {
	n, err := p.storage.ResetStaleExportJobs(ctx, time.Now().Add(-p.config.StaleAfter))
	if err != nil {
		slog.WarnContext(ctx, "Failed to reset stale export jobs", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Reset stale export jobs", "count", n)
	}
}

func (p *ExportJobProcessor) cleanup(ctx context.Context) {
	n, err := p.storage.CleanupExportJobs(ctx, time.Now().Add(-p.config.CleanupAge))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to clean up export jobs", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Cleaned up finished export jobs", "count", n)
	}
}

// Stats returns current job counts per status.
func (p *ExportJobProcessor) Stats(ctx context.Context) (storage.JobStats, error) {
	return p.storage.ExportJobStats(ctx)
}
