package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/tacotown/internal/config"
	"github.com/joao-fontenele/tacotown/internal/logging"
	"github.com/joao-fontenele/tacotown/internal/messaging"
	"github.com/joao-fontenele/tacotown/internal/notifier"
	"github.com/joao-fontenele/tacotown/internal/telemetry"
)

const serviceName = "tacotown-notifier"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{
		Service: serviceName,
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	if !cfg.Kafka.Enabled() {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.InitPropagator()
	if cfg.Telemetry.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			logger.Error("failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	if cfg.Notifier.MailRelayURL == "" {
		logger.Warn("MAIL_RELAY_URL not set, notifications will only be logged")
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	handler := notifier.NewHandler(cfg.Notifier.MailRelayURL, cfg.Notifier.FromAddress, httpClient, logger)

	// A customer email that cannot be sent is logged and skipped so one bad
	// address does not stall the partition.
	consumer := messaging.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID,
		messaging.WithFailureHandler(func(_ context.Context, msg kafka.Message, err error) error {
			logger.Error("dropping order event", "error", err, "key", string(msg.Key), "offset", msg.Offset)
			return nil
		}),
	)
	defer func() { _ = consumer.Close() }()

	logger.Info("starting notifier", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
