package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the duration of the test
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "STORE_PATH", "SIGN_DELIVERIES", "EVENTS_RATE_LIMIT_PER_MINUTE", "ENCRYPTION_KEY"} {
		unsetEnv(t, key)
	}
	t.Setenv("DELIVERY_TIMEOUT_SECONDS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoreFile, cfg.StoreDriver)
	assert.Equal(t, "hook-expose.yaml", cfg.StorePath)
	assert.Equal(t, 5*time.Second, cfg.DeliveryTimeout)
	assert.Equal(t, 600, cfg.EventsRateLimitPerMinute)
	assert.False(t, cfg.SignDeliveries)
	assert.Empty(t, cfg.EncryptionKey)
	require.NoError(t, cfg.Validate())
}

func TestLoad_DriverIsCaseInsensitive(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	assert.Equal(t, StorePostgres, Load().StoreDriver)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/hooks.db")
	t.Setenv("DELIVERY_TIMEOUT_SECONDS", "12")
	t.Setenv("SIGN_DELIVERIES", "yes")
	t.Setenv("EVENTS_RATE_LIMIT_PER_MINUTE", "30")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/hooks.db", cfg.SQLitePath)
	assert.Equal(t, 12*time.Second, cfg.DeliveryTimeout)
	assert.True(t, cfg.SignDeliveries)
	assert.Equal(t, 30, cfg.EventsRateLimitPerMinute)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{StoreDriver: StoreMemory, DeliveryTimeout: time.Second}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.StoreDriver = "redis"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.StoreDriver = StorePostgres
	assert.Error(t, cfg.Validate())
	cfg.DatabaseURL = "postgres://localhost/hooks"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.EnableEventSignatureVerification = true
	assert.Error(t, cfg.Validate())
	cfg.EventSecret = "s"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.DeliveryTimeout = 0
	assert.Error(t, cfg.Validate())
}
