package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage drivers for the sync record tables
const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	Port     int    `validate:"min=1,max=65535"`
	LogLevel string `validate:"oneof=trace debug info warn error fatal panic disabled"`

	// StorageDriver selects the sync record backend. Connections and installations always live in MongoDB.
	StorageDriver     string        `validate:"oneof=mongo postgres"`
	MongoURI          string        `validate:"required,uri"`
	MongoDatabase     string        `validate:"required"`
	PostgresDSN       string        `validate:"required_if=StorageDriver postgres"`
	RedisURL          string        `validate:"omitempty,uri"`
	LedgerAPIURL      string        `validate:"required,url"`
	LedgerTokenURL    string        `validate:"required,url"`
	LedgerTimeout     time.Duration `validate:"gt=0"`
	ShopifyAPIKey     string
	ShopifyAPISecret  string
	ShopifyAPIVersion string        `validate:"omitempty,datetime=2006-01|eq=unstable"`
	ShopifyPageDelay  time.Duration `validate:"gte=0"`

	AutoSyncEnabled       bool
	AutoSyncSchedule      string `validate:"required_if=AutoSyncEnabled true"`
	AutoSyncSkipUnchanged bool
}

// Load reads the configuration from the environment, after loading a .env file when one exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := &Config{
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageMongo)),
		MongoURI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGODB_DATABASE", "shopify_ledger_sync"),
		PostgresDSN:       getEnv("POSTGRES_DSN", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		LedgerAPIURL:      getEnv("LEDGER_API_BASE_URL", ""),
		LedgerTokenURL:    getEnv("LEDGER_TOKEN_URL", ""),
		ShopifyAPIKey:     getEnv("SHOPIFY_API_KEY", ""),
		ShopifyAPISecret:  getEnv("SHOPIFY_API_SECRET", ""),
		ShopifyAPIVersion: getEnv("SHOPIFY_API_VERSION", "2024-10"),
		AutoSyncSchedule:  getEnv("AUTOSYNC_CRON", "0 0 * * *"),
	}
	cfg.Port = parse(&errs, "PORT", "8080", strconv.Atoi)
	cfg.LedgerTimeout = parse(&errs, "LEDGER_HTTP_TIMEOUT", "30s", time.ParseDuration)
	cfg.ShopifyPageDelay = parse(&errs, "SHOPIFY_PAGE_DELAY", "1s", time.ParseDuration)
	cfg.AutoSyncEnabled = parse(&errs, "AUTOSYNC_ENABLED", "true", strconv.ParseBool)
	cfg.AutoSyncSkipUnchanged = parse(&errs, "AUTOSYNC_SKIP_UNCHANGED", "false", strconv.ParseBool)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func parse[T any](errs *[]error, key, defaultValue string, fn func(string) (T, error)) T {
	value, err := fn(getEnv(key, defaultValue))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s value: %w", key, err))
	}
	return value
}
