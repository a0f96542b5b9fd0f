package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "cv-status/docs" // Swagger docs
	"cv-status/internal/api"
	"cv-status/internal/app"
	"cv-status/internal/campaign"
	"cv-status/internal/config"
	"cv-status/internal/cv"
	"cv-status/internal/events"
	"cv-status/internal/ingest"
	"cv-status/internal/notify"
	"cv-status/internal/template"
)

// @title Candidate Status API
// @version 1.0
// @description CV ingestion from Drive, tracked outreach email and candidate status lifecycle

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /api

func main() {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDB(cfg, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	client := app.HTTPClient()

	source, err := app.NewSource(ctx, cfg, client, logger)
	if err != nil {
		logger.Error("failed to create document source", "error", err)
		os.Exit(1)
	}
	extractor, closeExtractor, err := app.NewExtractor(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create extractor", "error", err)
		os.Exit(1)
	}
	defer closeExtractor()

	// The server still records opens and replies without a transport; only sends fail.
	transport, err := app.NewTransport(ctx, cfg, client)
	if err != nil {
		logger.Warn("outbound email disabled", "error", err)
	}

	hub := notify.NewHub(logger)
	tracker := campaign.NewTracker(db, transport, hub, cfg.AppBaseURL, cfg.SendConcurrency, logger)
	orch := ingest.NewOrchestrator(db, source, cv.NewParser(cfg.UploadsDir), extractor, logger, cfg.SyncConcurrency)

	jobs := ingest.NewJobRunner(db, orch, 50, logger)
	jobs.Start(ctx)

	if cfg.TemplatesFile != "" {
		tmpls, err := template.LoadFile(cfg.TemplatesFile)
		if err != nil {
			logger.Error("failed to load templates", "error", err)
			os.Exit(1)
		}
		created, updated, err := tracker.ImportTemplates(ctx, tmpls)
		if err != nil {
			logger.Error("failed to seed templates", "error", err)
			os.Exit(1)
		}
		logger.Info("templates seeded", "file", cfg.TemplatesFile, "created", created, "updated", updated)
	}

	apiSrv := api.NewAPI(api.Options{
		DB:            db,
		Orchestrator:  orch,
		Jobs:          jobs,
		Tracker:       tracker,
		Gateway:       events.NewGateway(tracker, logger),
		Hub:           hub,
		DefaultFolder: cfg.DriveFolderID,
		AdminKey:      cfg.AdminAPIKey,
		BaseURL:       cfg.AppBaseURL,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(apiSrv),
		ReadTimeout:  30 * time.Second, // uploads
		WriteTimeout: 15 * time.Minute, // synchronous folder sync with LLM extraction
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", "error", err)
		}
	}()

	logger.Info("API server listening", "port", cfg.Port, "base_url", cfg.AppBaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	select {
	case <-jobs.Done():
	case <-time.After(10 * time.Second):
		logger.Warn("sync worker did not stop in time")
	}
	logger.Info("server stopped")
}
