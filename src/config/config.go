package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config store drivers
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port           int
	AllowedOrigins string
	LogLevel       string
	LogFormat      string

	// Config store
	StoreDriver string
	StorePath   string // YAML document for the file driver
	SQLitePath  string
	DatabaseURL string

	// Outbound deliveries
	DeliveryTimeout time.Duration
	SignDeliveries  bool

	// Event ingress
	EventSecret                      string
	EnableEventSignatureVerification bool
	EventsRateLimitPerMinute         int

	// Encryption at rest for the webhook secret
	EncryptionKey string // 64 hex chars = 32 bytes AES-256 key; empty = disabled
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnvInt("PORT", 8080),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreFile)),
		StorePath:   getEnv("STORE_PATH", "hook-expose.yaml"),
		SQLitePath:  getEnv("SQLITE_PATH", "hook-expose.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		DeliveryTimeout: time.Duration(getEnvInt("DELIVERY_TIMEOUT_SECONDS", 5)) * time.Second,
		SignDeliveries:  getEnvBool("SIGN_DELIVERIES", false),

		EventSecret:                      getEnv("EVENT_SECRET", ""),
		EnableEventSignatureVerification: getEnvBool("ENABLE_EVENT_SIGNATURE_VERIFICATION", false),
		EventsRateLimitPerMinute:         getEnvInt("EVENTS_RATE_LIMIT_PER_MINUTE", 600),

		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
	}
}

// Validate reports settings that would make the service start in a broken state
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreFile, StoreSQLite, StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want file, sqlite, postgres or memory)", c.StoreDriver)
	}

	if c.EnableEventSignatureVerification && c.EventSecret == "" {
		return fmt.Errorf("EVENT_SECRET is required when ENABLE_EVENT_SIGNATURE_VERIFICATION is on")
	}
	if c.DeliveryTimeout <= 0 {
		return fmt.Errorf("DELIVERY_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
