package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Order store backends.
const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
	StoreMirrored = "mirrored"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port             string
	RunLocal         bool
	OrderStore       string
	OrdersTable      string
	IdempotencyTable string
	IdempotencyTTL   time.Duration
	QueueURL         string
	MetricsNamespace string
	AdminKey         string
	MirrorTimeout    time.Duration
	MaxQuantity      int
	RiderPool        []string
	CORSOrigins      []string
	LogLevel         string
}

// Load reads .env when present and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		RunLocal:         getEnv("RUN_LOCAL", "false") == "true",
		OrderStore:       strings.ToLower(getEnv("ORDER_STORE", StoreMemory)),
		OrdersTable:      os.Getenv("ORDERS_TABLE"),
		IdempotencyTable: os.Getenv("IDEMPOTENCY_TABLE"),
		QueueURL:         os.Getenv("ORDERS_QUEUE_URL"),
		MetricsNamespace: os.Getenv("METRICS_NAMESPACE"),
		AdminKey:         os.Getenv("ADMIN_KEY"),
		RiderPool:        splitList(os.Getenv("RIDER_POOL")),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.IdempotencyTTL, err = time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "48h")); err != nil {
		errs = append(errs, fmt.Errorf("IDEMPOTENCY_TTL: %w", err))
	}
	if cfg.MirrorTimeout, err = time.ParseDuration(getEnv("MIRROR_TIMEOUT", "2s")); err != nil {
		errs = append(errs, fmt.Errorf("MIRROR_TIMEOUT: %w", err))
	}
	if cfg.MaxQuantity, err = strconv.Atoi(getEnv("MAX_QUANTITY", "5")); err != nil || cfg.MaxQuantity < 1 {
		errs = append(errs, fmt.Errorf("MAX_QUANTITY must be a positive integer"))
	}

	switch cfg.OrderStore {
	case StoreMemory:
	case StoreDynamoDB, StoreMirrored:
		if cfg.OrdersTable == "" {
			errs = append(errs, fmt.Errorf("ORDERS_TABLE is required for ORDER_STORE=%s", cfg.OrderStore))
		}
	default:
		errs = append(errs, fmt.Errorf("ORDER_STORE %q is not one of memory, dynamodb, mirrored", cfg.OrderStore))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateWorker rejects configurations the SQS worker cannot run with: its orders
// must live in a store shared with the API.
func (c *Config) ValidateWorker() error {
	if c.OrderStore == StoreMemory {
		return fmt.Errorf("ORDER_STORE=%s is process-local; the worker needs %s or %s", StoreMemory, StoreDynamoDB, StoreMirrored)
	}
	return nil
}

// NeedsAWS reports whether any configured component talks to AWS.
func (c *Config) NeedsAWS() bool {
	return c.OrderStore != StoreMemory || c.IdempotencyTable != "" || c.QueueURL != "" || c.MetricsNamespace != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
