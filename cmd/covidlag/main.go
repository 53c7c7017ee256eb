package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/almadenlabs/covidlag/internal/adapter/cdph"
	"github.com/almadenlabs/covidlag/internal/adapter/httpapi"
	"github.com/almadenlabs/covidlag/internal/adapter/kafkafeed"
	"github.com/almadenlabs/covidlag/internal/adapter/snapshot"
	"github.com/almadenlabs/covidlag/internal/config"
	"github.com/almadenlabs/covidlag/internal/domain"
	"github.com/almadenlabs/covidlag/internal/observability"
	"github.com/almadenlabs/covidlag/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := cdph.NewClient(cfg.CasesURL, cfg.HospitalsURL, cfg.FetchTimeout, logger)

	// Snapshot persistence (disabled by setting COVIDLAG_SNAPSHOT_DIR to "").
	var archive pipeline.Archive
	var store *snapshot.Store
	if cfg.SnapshotEnabled() {
		store, err = snapshot.Open(cfg.SnapshotDir)
		if err != nil {
			logger.Error("failed to open snapshot store", "dir", cfg.SnapshotDir, "error", err)
			os.Exit(1)
		}
		archive = store
		logger.Info("snapshot store enabled", "dir", cfg.SnapshotDir)
	} else {
		logger.Info("snapshot store disabled")
	}

	// Projection feed (feature-flagged via COVIDLAG_KAFKA_BROKERS).
	var feed pipeline.Feed
	var publisher *kafkafeed.Publisher
	if cfg.FeedEnabled() {
		publisher = kafkafeed.NewPublisher(cfg, logger)
		feed = publisher
		metrics.FeedEnabled.Set(1)
		logger.Info("projection feed enabled", "topic", cfg.KafkaTopic, "county", cfg.FeedCounty)
	} else {
		logger.Info("projection feed disabled")
	}

	opts := domain.AnalysisOptions{
		Window: cfg.SmoothingWindow,
		Trim:   cfg.TrimDays,
		Start:  cfg.AnalysisStart,
	}

	refresher := pipeline.NewRefresher(client, archive, feed, pipeline.RefresherConfig{
		Interval:     cfg.RefreshInterval,
		CasesURL:     cfg.CasesURL,
		HospitalsURL: cfg.HospitalsURL,
		FeedCounty:   cfg.FeedCounty,
		Analysis:     opts,
	}, logger, metrics)

	analyzer := pipeline.NewAnalyzer(refresher, opts, cfg.ProjectionCacheSize, logger, metrics)

	api := httpapi.NewAPI(analyzer, cfg.DefaultCounty, opts, logger)
	srv := httpapi.NewServer(cfg.HTTPAddr, api, refresher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start dataset refresher.
	go func() {
		if err := refresher.Run(ctx); err != nil {
			logger.Error("refresher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("feed publisher close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("snapshot store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
