package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pdfsmith/pdfsmith/internal/config"
	"github.com/pdfsmith/pdfsmith/internal/logger"
	"github.com/pdfsmith/pdfsmith/internal/observability"
	"github.com/pdfsmith/pdfsmith/internal/tracing"
	"github.com/pdfsmith/pdfsmith/pkg/document"
	"github.com/pdfsmith/pdfsmith/pkg/session"
)

func main() {
	cfg, err := config.NewLoader(os.Getenv("PDFSMITH_CONFIG")).Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}
	defer lg.Close()
	zl := lg.GetZerolog()

	if err := tracing.InitOpenTelemetry("pdfsmith"); err != nil {
		zl.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	store, err := session.NewStore(filepath.Join(cfg.DataDir, "sessions.db"))
	if err != nil {
		zl.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer store.Close()

	area, err := session.NewContentArea(cfg.DataDir)
	if err != nil {
		zl.Fatal().Err(err).Msg("Failed to prepare content area")
	}

	mgr, err := session.NewManager(session.Config{
		Store:    store,
		Content:  area,
		Provider: document.NewProvider(),
		Logger:   zl,
	})
	if err != nil {
		zl.Fatal().Err(err).Msg("Failed to build session manager")
	}

	reaper := session.NewReaper(
		mgr,
		time.Duration(cfg.SessionTTLHours)*time.Hour,
		time.Duration(cfg.ReapIntervalMinutes)*time.Minute,
		zl,
	)
	if err := reaper.Start(); err != nil {
		zl.Fatal().Err(err).Msg("Failed to start session reaper")
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			zl.Info().Str("addr", cfg.MetricsAddr).Msg("Metrics endpoint listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zl.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	zl.Info().Msg("Shutdown signal received, cleaning up...")

	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsSrv.Shutdown(ctx); err != nil {
			zl.Error().Err(err).Msg("Metrics server shutdown error")
		}
		cancel()
	}
	if err := reaper.Stop(); err != nil {
		zl.Error().Err(err).Msg("Reaper stop error")
	}
	if err := mgr.Close(); err != nil {
		zl.Error().Err(err).Msg("Failed to close warm sessions")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
		zl.Error().Err(err).Msg("Tracing shutdown error")
	}
	cancel()
}
