package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/order-lifecycle-service/internal/jobs"
	workflowsorders "github.com/Apurer/order-lifecycle-service/internal/platform/temporal/workflows/orders"
)

// Config carries environment-driven settings shared by every binary.
type Config struct {
	Port                  string
	PostgresDSN           string
	TemporalAddress       string
	TemporalNamespace     string
	TemporalDisabled      bool
	TaskQueue             string
	DeliveryWindowDays    int
	DeliverySweepSchedule string
	EventsQueueURL        string
	AWSRegion             string
	LogLevel              string
	Environment           string
	OTLPEndpoint          string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment, applying defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:                  envDefault("PORT", "8080"),
		PostgresDSN:           strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:       envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:     envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:      isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		TaskQueue:             envDefault("ORDER_TASK_QUEUE", workflowsorders.OrderTaskQueue),
		DeliveryWindowDays:    7,
		DeliverySweepSchedule: envDefault("DELIVERY_SWEEP_SCHEDULE", jobs.DefaultSweepSchedule),
		EventsQueueURL:        strings.TrimSpace(os.Getenv("ORDER_EVENTS_QUEUE_URL")),
		AWSRegion:             envDefault("AWS_REGION", "us-east-1"),
		LogLevel:              envDefault("LOG_LEVEL", "info"),
		Environment:           envDefault("APP_ENV", "development"),
		OTLPEndpoint:          strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}
	if raw := strings.TrimSpace(os.Getenv("DELIVERY_WINDOW_DAYS")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 || days > 30 {
			return Config{}, fmt.Errorf("DELIVERY_WINDOW_DAYS must be an integer between 1 and 30, got %q", raw)
		}
		cfg.DeliveryWindowDays = days
	}
	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return Config{}, fmt.Errorf("PORT must be a TCP port number, got %q", cfg.Port)
	}
	return cfg, nil
}

// UsePostgres reports whether a database was configured.
func (c Config) UsePostgres() bool { return c.PostgresDSN != "" }

// PublishEvents reports whether status events go to SQS.
func (c Config) PublishEvents() bool { return c.EventsQueueURL != "" }

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
