package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/weather-skill-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/weather-skill-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-skill-service/internal/adapter/openweather"
	"github.com/couchcryptid/weather-skill-service/internal/audit"
	"github.com/couchcryptid/weather-skill-service/internal/config"
	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/couchcryptid/weather-skill-service/internal/observability"
	"github.com/couchcryptid/weather-skill-service/internal/skill"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var client domain.WeatherClient
	var composer skill.Composer
	if cfg.SkillMode == config.ModeLive {
		client = openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.WeatherTimeout, metrics, logger)
		if cfg.BreakerEnabled {
			client = openweather.NewBreakerClient(client, logger)
		}
		composer = skill.NewLiveComposer(logger, metrics)
		logger.Info("live weather enabled",
			"lat", cfg.Latitude, "lon", cfg.Longitude,
			"timeout", cfg.WeatherTimeout, "breaker", cfg.BreakerEnabled)
	} else {
		composer = skill.NewStubComposer()
		logger.Info("stub mode, weather lookups disabled")
	}

	sk := skill.New(client, composer, domain.Coordinates{Lat: cfg.Latitude, Lon: cfg.Longitude}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start dispatch audit (feature-flagged via AUDIT_ENABLED). The publisher
	// outlives the HTTP server so in-flight requests are still recorded.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()

	var recorder httpadapter.Recorder
	var writer *kafkaadapter.Writer
	publisherDone := make(chan struct{})
	if cfg.AuditEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher := audit.NewPublisher(writer, logger, metrics, cfg.BatchSize, cfg.BatchFlushInterval)
		recorder = publisher
		go func() {
			defer close(publisherDone)
			if err := publisher.Run(auditCtx); err != nil {
				logger.Error("audit publisher error", "error", err)
			}
		}()
		logger.Info("dispatch audit enabled", "topic", cfg.KafkaAuditTopic, "brokers", cfg.KafkaBrokers)
	} else {
		close(publisherDone)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, sk, sk, recorder, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	stopAudit()

	select {
	case <-publisherDone:
	case <-shutdownCtx.Done():
		logger.Warn("audit publisher did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
