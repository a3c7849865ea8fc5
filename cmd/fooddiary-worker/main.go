package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fooddiary/internal/amqp"
	"fooddiary/internal/backend"
	"fooddiary/internal/cli"
	applog "fooddiary/internal/log"
	"fooddiary/internal/metrics"
	"fooddiary/internal/services"
	"fooddiary/internal/storage"
	"fooddiary/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting fooddiary-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid sheets backend configuration", "error", err)
		os.Exit(1)
	}
	writer, err := backend.NewDocumentWriter(ctx, backendConfig, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize sheets backend", "error", err, "backend", cfg.SheetsBackend)
		os.Exit(1)
	}

	m := metrics.New()
	exports := services.NewExportService(repo, nil, m, services.ExportConfig{
		Title:   cfg.ExportPDFTitle,
		MaxDays: cfg.ExportMaxDays,
	})
	exportWorker := worker.NewExportWorker(repo, exports, writer, m, cfg.ExportMaxRetries)

	processorConfig := services.DefaultExportJobProcessorConfig()
	processorConfig.PollInterval = cfg.ExportPollInterval
	processorConfig.BatchSize = cfg.ExportBatchSize

	logger.Info("Performing startup export job check...")
	if err := exportWorker.StartupCheck(ctx, processorConfig.StaleAfter); err != nil {
		logger.Error("Failed startup export job check", "error", err)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled - relying on the export job poller")
	}

	processor := services.NewExportJobProcessor(repo, exportWorker, processorConfig)

	g, gctx := errgroup.WithContext(ctx)

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeExportRequests(gctx, exportWorker.HandleExportRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("consume export requests: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := processor.Start(gctx); err != nil {
			return fmt.Errorf("start export job processor: %w", err)
		}
		<-gctx.Done()
		stopCtx, stopCancel := cli.ShutdownContext()
		defer stopCancel()
		return processor.Stop(stopCtx)
	})

	if cfg.WorkerPort != "" {
		srv := &http.Server{
			Addr:              ":" + cfg.WorkerPort,
			Handler:           probeHandler(repo, amqpClient, processor, m),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Worker probe server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("worker probe server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := cli.ShutdownContext()
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func probeHandler(repo *storage.SQLiteRepository, amqpClient *amqp.Client, processor *services.ExportJobProcessor, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{"database": "ok", "amqp": "disabled", "processor": "running"}
		status := http.StatusOK
		if err := repo.Ping(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if amqpClient != nil {
			checks["amqp"] = "ok"
			if err := amqpClient.Ping(); err != nil {
				checks["amqp"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		if !processor.IsRunning() {
			checks["processor"] = "stopped"
			status = http.StatusServiceUnavailable
		}
		body := map[string]any{"checks": checks}
		if stats, err := processor.Stats(ctx); err == nil {
			body["jobs"] = stats
		}
		writeJSON(w, status, body)
	})
	mux.Handle("GET /metrics", m.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
