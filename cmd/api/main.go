package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/rainfall-trends/internal/adapter/fcc"
	httpadapter "github.com/couchcryptid/rainfall-trends/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/rainfall-trends/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-trends/internal/adapter/noaa"
	"github.com/couchcryptid/rainfall-trends/internal/adapter/openmeteo"
	"github.com/couchcryptid/rainfall-trends/internal/aggregate"
	"github.com/couchcryptid/rainfall-trends/internal/config"
	"github.com/couchcryptid/rainfall-trends/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	regions := fcc.NewCachedLookup(
		fcc.NewClient(cfg.FCCBaseURL, cfg.UpstreamTimeout, logger),
		cfg.FIPSCacheSize,
		metrics,
	)
	records := noaa.NewClient(cfg.NOAABaseURL, cfg.NOAAToken, cfg.UpstreamTimeout, logger)

	// Optional Kafka sink (feature-flagged via KAFKA_ENABLED).
	var sink aggregate.FrameSink
	var sinkWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		sinkWriter = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		sink = sinkWriter
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	agg := aggregate.New(regions, records, sink, logger, metrics, aggregate.Config{
		LookbackYears: cfg.LookbackYears,
		PageSize:      cfg.PageSize,
		WetThreshold:  cfg.WetDayThreshold,
		YearPacing:    cfg.YearPacing,
	})

	temps := openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.UpstreamTimeout, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, agg, temps, agg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if sinkWriter != nil {
		if err := sinkWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
