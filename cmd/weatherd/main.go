// Command weatherd consumes ingest requests from Kafka, normalizes the named
// weather files and publishes the hourly records.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/weather-normalizer/internal/adapter/export"
	"github.com/couchcryptid/weather-normalizer/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/weather-normalizer/internal/adapter/kafka"
	"github.com/couchcryptid/weather-normalizer/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-normalizer/internal/adapter/tablecache"
	"github.com/couchcryptid/weather-normalizer/internal/config"
	"github.com/couchcryptid/weather-normalizer/internal/observability"
	"github.com/couchcryptid/weather-normalizer/internal/pipeline"
	"github.com/couchcryptid/weather-normalizer/internal/reader"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("weatherd exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	opts := reader.Options{
		MissingTokens: cfg.Ingest.MissingTokens,
		FormatOrder:   cfg.Ingest.Formats(),
		ReferenceYear: cfg.Ingest.ReferenceYear,
		Logger:        logger,
		OnDewPoint:    metrics.ObserveDewPoint,
	}

	var source pipeline.TableSource = reader.NewDispatcher(opts, metrics)
	if cfg.Ingest.CacheSize > 0 {
		source = tablecache.New(source, cfg.Ingest.CacheSize, metrics)
		logger.Info("table cache enabled", "size", cfg.Ingest.CacheSize)
	}
	transformer := pipeline.NewTransformer(source, reader.NewAssembler(opts, cfg.Ingest.Ranges()), metrics, logger)

	extractor := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	defer closeAll(logger, extractor, writer)

	sinks := pipeline.MultiLoader{writer}
	var records httpadapter.RecordStore
	if cfg.Ingest.SQLitePath != "" {
		store, err := sqlite.Open(cfg.Ingest.SQLitePath, logger)
		if err != nil {
			return err
		}
		defer closeAll(logger, store)
		sinks = append(sinks, store)
		records = store
		logger.Info("sqlite store enabled", "path", cfg.Ingest.SQLitePath)
	}
	if cfg.Ingest.ExportDir != "" {
		sinks = append(sinks, export.NewSink(cfg.Ingest.ExportDir, cfg.Ingest.ExportExt(), logger))
		logger.Info("csv export enabled", "dir", cfg.Ingest.ExportDir)
	}

	p := pipeline.New(extractor, transformer, sinks, logger, metrics, cfg.BatchSize)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, records, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return p.Run(gCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type closer interface {
	Close() error
}

func closeAll(logger *slog.Logger, cs ...closer) {
	for _, c := range cs {
		if err := c.Close(); err != nil {
			logger.Error("close failed", "error", err)
		}
	}
}
