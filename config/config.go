package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers for persisted cart snapshots
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
	StorageDriverR2       = "r2"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	JWTSecret     string
	AllowedOrigin string
	Currency      string
	// Upstream REST API
	CatalogBaseURL  string
	OrdersBaseURL   string
	PaymentBaseURL  string
	UpstreamTimeout time.Duration
	// Cart Persistence
	CartStorageDriver string
	CartStorageKey    string
	CartIdleTTL       time.Duration
	SessionCookieName string
	// Snapshots untouched for longer are pruned (postgres driver); 0 keeps them
	CartSnapshotRetention time.Duration

	// DB Config (postgres driver)
	DBUrl             string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// R2 Storage (r2 driver)
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2UploadTimeout   time.Duration
	// Cache
	CacheProductTTL time.Duration
	// Rate Limit
	RateLimitRPS          float64
	RateLimitBurst        int
	SessionRateLimitRPS   float64
	SessionRateLimitBurst int
	// Business Rules
	MaxCartQuantity int
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env is optional, system env vars win in containers
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	return cfg
}

// FromEnv reads the configuration from the process environment without
// loading any dotenv file.
func FromEnv() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		Currency:      getEnv("CURRENCY", "SZL"),

		CatalogBaseURL:  getEnv("CATALOG_BASE_URL", "http://localhost:5000"),
		OrdersBaseURL:   getEnv("ORDERS_BASE_URL", "http://localhost:5000"),
		PaymentBaseURL:  getEnv("PAYMENT_BASE_URL", "http://localhost:5000"),
		UpstreamTimeout: getDurationEnv("UPSTREAM_TIMEOUT", 15*time.Second),

		CartStorageDriver: strings.ToLower(getEnv("CART_STORAGE_DRIVER", StorageDriverMemory)),
		CartStorageKey:    getEnv("CART_STORAGE_KEY", "quoteItems"),
		CartIdleTTL:       getDurationEnv("CART_IDLE_TTL", 2*time.Hour),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "sf_session"),

		// 30 days, same as the session cookie
		CartSnapshotRetention: getDurationEnv("CART_SNAPSHOT_RETENTION", 30*24*time.Hour),

		DBUrl:             getEnv("DB_DSN", ""),
		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 20),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 2),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2UploadTimeout:   getDurationEnv("R2_UPLOAD_TIMEOUT", 10*time.Second),

		// 10m product cache
		CacheProductTTL: getDurationEnv("CACHE_PRODUCT_TTL", 10*time.Minute),

		// Per IP is loose (shared carrier NAT), per session is tight
		RateLimitRPS:          getFloatEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst:        getIntEnv("RATE_LIMIT_BURST", 100),
		SessionRateLimitRPS:   getFloatEnv("SESSION_RATE_LIMIT_RPS", 10),
		SessionRateLimitBurst: getIntEnv("SESSION_RATE_LIMIT_BURST", 30),

		// Business rules: 1000 max quantity per line
		MaxCartQuantity: getIntEnv("MAX_CART_QUANTITY", 1000),
	}
}

func (c *Config) Validate() error {
	switch c.CartStorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.DBUrl == "" {
			return fmt.Errorf("DB_DSN is required for the %q cart storage driver", c.CartStorageDriver)
		}
	case StorageDriverR2:
		if c.R2AccountID == "" || c.R2BucketName == "" {
			return fmt.Errorf("R2_ACCOUNT_ID and R2_BUCKET_NAME are required for the %q cart storage driver", c.CartStorageDriver)
		}
	default:
		return fmt.Errorf("unknown CART_STORAGE_DRIVER %q", c.CartStorageDriver)
	}
	if c.CartStorageKey == "" {
		return fmt.Errorf("CART_STORAGE_KEY must not be empty")
	}
	if c.MaxCartQuantity < 1 {
		return fmt.Errorf("MAX_CART_QUANTITY must be at least 1, got %d", c.MaxCartQuantity)
	}
	for name, u := range map[string]string{
		"CATALOG_BASE_URL": c.CatalogBaseURL,
		"ORDERS_BASE_URL":  c.OrdersBaseURL,
		"PAYMENT_BASE_URL": c.PaymentBaseURL,
	} {
		if u == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s, using fallback", key)
	}
	return fallback
}
