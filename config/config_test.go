package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("CART_STORAGE_DRIVER", "")
	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "quoteItems", cfg.CartStorageKey)
	assert.Equal(t, 1000, cfg.MaxCartQuantity)
	assert.Equal(t, 10*time.Minute, cfg.CacheProductTTL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CART_STORAGE_DRIVER", "Postgres")
	t.Setenv("DB_DSN", "postgres://localhost/cart")
	t.Setenv("DB_MAX_CONNS", "7")
	t.Setenv("MAX_CART_QUANTITY", "25")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg := FromEnv()

	assert.Equal(t, StorageDriverPostgres, cfg.CartStorageDriver)
	assert.Equal(t, int32(7), cfg.DBMaxConns)
	assert.Equal(t, 25, cfg.MaxCartQuantity)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_CART_QUANTITY", "lots")
	t.Setenv("CART_IDLE_TTL", "forever")
	t.Setenv("DB_MIN_CONNS", "99999999999")

	cfg := FromEnv()

	assert.Equal(t, 1000, cfg.MaxCartQuantity)
	assert.Equal(t, 2*time.Hour, cfg.CartIdleTTL)
	assert.Equal(t, int32(2), cfg.DBMinConns)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "memory ok", mutate: func(c *Config) {}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.CartStorageDriver = StorageDriverPostgres }, wantErr: "DB_DSN"},
		{name: "r2 without bucket", mutate: func(c *Config) { c.CartStorageDriver = StorageDriverR2 }, wantErr: "R2_ACCOUNT_ID"},
		{name: "unknown driver", mutate: func(c *Config) { c.CartStorageDriver = "redis" }, wantErr: "unknown CART_STORAGE_DRIVER"},
		{name: "empty key", mutate: func(c *Config) { c.CartStorageKey = "" }, wantErr: "CART_STORAGE_KEY"},
		{name: "zero max", mutate: func(c *Config) { c.MaxCartQuantity = 0 }, wantErr: "MAX_CART_QUANTITY"},
		{name: "missing orders url", mutate: func(c *Config) { c.OrdersBaseURL = "" }, wantErr: "ORDERS_BASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				CartStorageDriver: StorageDriverMemory,
				CartStorageKey:    "quoteItems",
				MaxCartQuantity:   10,
				CatalogBaseURL:    "http://catalog",
				OrdersBaseURL:     "http://orders",
				PaymentBaseURL:    "http://payments",
				JWTSecret:         "s3cret",
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
