// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type Config struct {
	AppEnv   string
	LogLevel string

	Server    ServerConfig
	Store     StoreConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
	Admin     AdminConfig
	Notifier  NotifierConfig
	Checkout  CheckoutConfig
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Backend     string
	PostgresURL string
	MongoURI    string
	MongoDB     string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Enabled reports whether any brokers were configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type TelemetryConfig struct {
	TracingEnabled bool
	OTLPEndpoint   string
}

type AdminConfig struct {
	Email        string
	Password     string
	PasswordHash string
}

type NotifierConfig struct {
	MailRelayURL string
	FromAddress  string
	// RelayPort is where cmd/mailrelay listens.
	RelayPort int
}

type CheckoutConfig struct {
	APIBaseURL    string
	DraftsDir     string
	SubmitTimeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:            getEnvInt("PORT", 3000),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(getEnv("ORDER_STORE", StoreMemory)),
			PostgresURL: getEnv("POSTGRES_URL", ""),
			MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:     getEnv("MONGO_DB", "tacotown"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS"),
			Topic:   getEnv("ORDER_EVENTS_TOPIC", "order.events"),
			GroupID: getEnv("NOTIFIER_GROUP_ID", "order-notifier"),
		},
		Telemetry: TelemetryConfig{
			TracingEnabled: getEnvBool("TRACING_ENABLED", false),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
		Admin: AdminConfig{
			Email:        getEnv("ADMIN_EMAIL", ""),
			Password:     getEnv("ADMIN_PASSWORD", ""),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Notifier: NotifierConfig{
			MailRelayURL: getEnv("MAIL_RELAY_URL", ""),
			FromAddress:  getEnv("MAIL_FROM", "orders@tacotown.in"),
			RelayPort:    getEnvInt("MAIL_RELAY_PORT", 8084),
		},
		Checkout: CheckoutConfig{
			APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:3000"),
			DraftsDir:     getEnv("DRAFTS_DIR", ".tacotown"),
			SubmitTimeout: getEnvDuration("SUBMIT_TIMEOUT", 15*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Notifier.RelayPort <= 0 || c.Notifier.RelayPort > 65535 {
		return fmt.Errorf("MAIL_RELAY_PORT must be between 1 and 65535, got %d", c.Notifier.RelayPort)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required when ORDER_STORE=postgres")
		}
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when ORDER_STORE=mongo")
		}
		if c.Store.MongoDB == "" {
			return fmt.Errorf("MONGO_DB is required when ORDER_STORE=mongo")
		}
	default:
		return fmt.Errorf("ORDER_STORE must be one of memory, postgres, mongo; got %q", c.Store.Backend)
	}

	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("ORDER_EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.Checkout.SubmitTimeout <= 0 {
		return fmt.Errorf("SUBMIT_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
