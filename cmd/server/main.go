package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/joao-fontenele/tacotown/internal/admin"
	"github.com/joao-fontenele/tacotown/internal/config"
	"github.com/joao-fontenele/tacotown/internal/contact"
	"github.com/joao-fontenele/tacotown/internal/logging"
	"github.com/joao-fontenele/tacotown/internal/messaging"
	"github.com/joao-fontenele/tacotown/internal/orders"
	"github.com/joao-fontenele/tacotown/internal/telemetry"
)

const serviceName = "tacotown-server"

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("bye")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	telemetry.InitPropagator()
	if cfg.Telemetry.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	store, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	verifier, err := admin.NewStaticVerifier(cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.PasswordHash)
	if err != nil {
		return fmt.Errorf("admin credentials: %w", err)
	}

	hub := orders.NewHub(logger)
	defer hub.Close()

	publishers := orders.MultiPublisher{hub}
	if cfg.Kafka.Enabled() {
		producer := messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = producer.Close() }()
		publishers = append(publishers, orders.NewBrokerPublisher(producer))
		logger.Info("publishing order events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	orderHandler, err := orders.NewHandler(store, publishers, logger)
	if err != nil {
		return fmt.Errorf("create orders handler: %w", err)
	}
	adminHandler := admin.NewHandler(verifier, logger)
	contactHandler := contact.NewHandler(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", telemetry.WithHTTPRoute(orderHandler.HandleSubmit))
	mux.HandleFunc("GET /admin/orders", telemetry.WithHTTPRoute(orderHandler.HandleList))
	mux.HandleFunc("GET /admin/orders/export", telemetry.WithHTTPRoute(orderHandler.HandleExport))
	mux.Handle("GET /admin/orders/live", hub)
	mux.HandleFunc("PUT /admin/orders/{id}/deliver", telemetry.WithHTTPRoute(orderHandler.HandleMarkDelivered))
	mux.HandleFunc("DELETE /admin/orders/{id}", telemetry.WithHTTPRoute(orderHandler.HandleDelete))
	mux.HandleFunc("POST /admin/reset", telemetry.WithHTTPRoute(orderHandler.HandleReset))
	mux.HandleFunc("POST /admin/login", telemetry.WithHTTPRoute(adminHandler.HandleLogin))
	mux.HandleFunc("POST /contact", telemetry.WithHTTPRoute(contactHandler.HandleSubmit))
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", metricsHandler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: otelhttp.NewHandler(corsHandler.Handler(mux), serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Server.Port, "store", cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		hub.Close()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (orders.Store, func(), error) {
	switch cfg.Backend {
	case config.StorePostgres:
		db, err := telemetry.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres order store")
		return orders.NewPostgresStore(db), func() { _ = db.Close() }, nil

	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		closeFn := func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer dcancel()
			_ = client.Disconnect(dctx)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}

		store, err := orders.NewMongoStore(connectCtx, client.Database(cfg.MongoDB))
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.Info("using mongo order store", "database", cfg.MongoDB)
		return store, closeFn, nil

	default:
		logger.Warn("using in-memory order store, orders are lost on restart")
		return orders.NewMemoryStore(), func() {}, nil
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
