package main

import (
	"os"

	"github.com/dustin/go-humanize"

	"fooddiary/internal/amqp"
	"fooddiary/internal/cache"
	"fooddiary/internal/cli"
	apphttp "fooddiary/internal/http"
	applog "fooddiary/internal/log"
	"fooddiary/internal/metrics"
	"fooddiary/internal/services"
	"fooddiary/web"
)

const dropdownCacheSize = 256

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.ExportPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - export jobs wait for the worker poller")
	}

	m := metrics.New()

	cacheManager := cache.NewManager()
	dropdown := services.NewDropdownCache(dropdownCacheSize, cfg.CacheTTL)
	dropdown.Register(cacheManager)
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	exports := services.NewExportService(repo, publisher, m, services.ExportConfig{
		Title:   cfg.ExportPDFTitle,
		MaxDays: cfg.ExportMaxDays,
	})
	svc := services.New(repo, dropdown, exports)

	static, err := web.Dist()
	if err != nil {
		logger.Warn("SPA bundle unavailable", "error", err)
	}

	srv := apphttp.NewServer(svc, apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MaxBodyBytes:       cfg.MaxUploadBytes,
		Logger:             logger,
		Metrics:            m,
		Dropdown:           dropdown,
		Static:             static,
	})

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting fooddiary server",
			"port", cfg.Port,
			"db", cfg.SQLiteDBPath,
			"max_upload", humanize.IBytes(uint64(cfg.MaxUploadBytes)))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := cli.ShutdownContext()
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
