package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/meteor-impact-service/internal/adapter/gemini"
	httpadapter "github.com/couchcryptid/meteor-impact-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/meteor-impact-service/internal/adapter/kafka"
	"github.com/couchcryptid/meteor-impact-service/internal/adapter/mapbox"
	"github.com/couchcryptid/meteor-impact-service/internal/config"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/couchcryptid/meteor-impact-service/internal/simulator"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var opts []simulator.Option

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		opts = append(opts, simulator.WithGeocoder(mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)))
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Initialize narrator (feature-flagged via GEMINI_ENABLED / GEMINI_API_KEY).
	if cfg.GeminiEnabled {
		client := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout, metrics, logger)
		opts = append(opts, simulator.WithNarrator(gemini.NewCachedNarrator(client, cfg.NarrativeCacheSize, metrics)))
		logger.Info("gemini narratives enabled", "model", cfg.GeminiModel, "timeout", cfg.GeminiTimeout)
	} else {
		logger.Info("gemini narratives disabled")
	}

	var (
		writer    *kafkaadapter.Writer
		publisher *simulator.Publisher
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = simulator.NewPublisher(writer, cfg.PublishQueueSize, cfg.BatchSize, cfg.BatchFlushInterval, logger, metrics)
		opts = append(opts, simulator.WithSink(publisher))
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaImpactTopic)
	}

	store := simulator.NewConfigStore(cfg.Constants, clockwork.NewRealClock(), cfg.MeteorConfigFile)
	sim := simulator.New(domain.NewModel(cfg.Constants), store, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, sim, sim, logger, cfg.GeminiTimeout+cfg.MapboxTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start event publisher.
	publisherDone := make(chan struct{})
	go func() {
		defer close(publisherDone)
		if publisher == nil {
			return
		}
		if err := publisher.Run(ctx); err != nil {
			logger.Error("publisher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-publisherDone:
	case <-shutdownCtx.Done():
		logger.Warn("publisher did not drain before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
