package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/reach-data-etl/internal/adapter/arcgis"
	"github.com/couchcryptid/reach-data-etl/internal/adapter/awfile"
	httpadapter "github.com/couchcryptid/reach-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/reach-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/reach-data-etl/internal/config"
	"github.com/couchcryptid/reach-data-etl/internal/observability"
	"github.com/couchcryptid/reach-data-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	source := awfile.NewSource(cfg.RawDataDir)
	uploader := arcgis.NewClient(arcgis.Config{
		PortalURL:   cfg.ArcGISURL,
		Username:    cfg.ArcGISUsername,
		Password:    cfg.ArcGISPassword,
		ServiceName: cfg.ArcGISServiceName,
		LayerName:   cfg.ArcGISLayerName,
		Timeout:     cfg.ArcGISTimeout,
	}, logger)

	// Record publishing is feature-flagged via KAFKA_BROKERS.
	var publisher pipeline.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = kafkaPublisher
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(source, uploader, publisher, logger, metrics, cfg.ChunkSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("pipeline error", "error", runErr)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	if runErr != nil {
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
