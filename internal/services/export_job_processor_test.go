package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fooddiary/internal/core"
)

type recordingHandler struct {
	mu   sync.Mutex
	jobs []string
	done chan struct{}
}

func (h *recordingHandler) ProcessJob(_ context.Context, jobID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs = append(h.jobs, jobID)
	if len(h.jobs) == 1 && h.done != nil {
		close(h.done)
	}
	return errors.New("handler failure is only logged")
}

func TestDefaultExportJobProcessorConfig(t *testing.T) {
	config := DefaultExportJobProcessorConfig()

	if config.PollInterval != 30*time.Second {
		t.Errorf("expected PollInterval 30s, got %v", config.PollInterval)
	}
	if config.BatchSize != 5 {
		t.Errorf("expected BatchSize 5, got %d", config.BatchSize)
	}
	if config.StaleAfter != 10*time.Minute {
		t.Errorf("expected StaleAfter 10m, got %v", config.StaleAfter)
	}
	if config.CleanupAge != 7*24*time.Hour {
		t.Errorf("expected CleanupAge 7d, got %v", config.CleanupAge)
	}
}

func TestNewExportJobProcessor_FillsDefaults(t *testing.T) {
	p := NewExportJobProcessor(nil, nil, ExportJobProcessorConfig{BatchSize: 20})

	if p.config.BatchSize != 20 {
		t.Errorf("expected custom BatchSize 20, got %d", p.config.BatchSize)
	}
	if p.config.PollInterval != 30*time.Second {
		t.Errorf("expected default PollInterval, got %v", p.config.PollInterval)
	}
	if p.IsRunning() {
		t.Error("processor should not be running initially")
	}
}

func TestExportJobProcessor_StartTwice(t *testing.T) {
	p := NewExportJobProcessor(nil, nil, DefaultExportJobProcessorConfig())

	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	if err := p.Start(context.Background()); err == nil {
		t.Error("expected error when starting already running processor")
	}
}

func TestExportJobProcessor_StopNotRunning(t *testing.T) {
	p := NewExportJobProcessor(nil, nil, DefaultExportJobProcessorConfig())
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestExportJobProcessor_Lifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	err := repo.CreateExportJob(ctx, core.ExportJob{ID: "job-1", Kind: core.ExportKindGoogleSheets, Range: april})
	if err != nil {
		t.Fatal(err)
	}

	h := &recordingHandler{done: make(chan struct{})}
	p := NewExportJobProcessor(repo, h, ExportJobProcessorConfig{PollInterval: time.Hour})
	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if !p.IsRunning() {
		t.Error("processor should be running after Start")
	}

	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("pending job was not handed to the handler")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatal(err)
	}
	if p.IsRunning() {
		t.Error("processor should not be running after Stop")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.jobs) != 1 || h.jobs[0] != "job-1" {
		t.Errorf("handled jobs = %v", h.jobs)
	}
}
