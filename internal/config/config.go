package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"dinein-backend/pkg/logger"
)

// Config holds the whole application configuration,
// populated from environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	ZaloPay  ZaloPayConfig
	Ordering OrderingConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  int // minutes
	RefreshTokenExpiry int // hours
}

// =====================================================
// ZALOPAY CONFIGURATION
// =====================================================

type ZaloPayConfig struct {
	AppID       string // Merchant app id
	Key1        string // Secret key for outbound request mac (HMAC-SHA256)
	Key2        string // Secret key for callback mac verification
	Endpoint    string // ZaloPay create-order API URL
	CallbackURL string // Backend callback URL registered with the gateway
}

// OrderingConfig holds order-domain policy knobs
type OrderingConfig struct {
	// DeleteGracePeriod is how long a diner may remove their own
	// not-yet-served units after ordering. Staff are exempt.
	DeleteGracePeriod time.Duration

	// SoftCodeTTL bounds how long a session admission code stays valid
	SoftCodeTTL time.Duration
}

const defaultJWTSecret = "your-secret-key-change-in-production"

// Load reads config from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Dine-in API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "dinein"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry:  getEnvInt("JWT_ACCESS_EXPIRY", 15),  // 15 minutes
			RefreshTokenExpiry: getEnvInt("JWT_REFRESH_EXPIRY", 72), // 3 days
		},
		ZaloPay: ZaloPayConfig{
			AppID:       getEnv("ZALOPAY_APP_ID", ""),
			Key1:        getEnv("ZALOPAY_KEY1", ""),
			Key2:        getEnv("ZALOPAY_KEY2", ""),
			Endpoint:    getEnv("ZALOPAY_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/create"),
			CallbackURL: getEnv("ZALOPAY_CALLBACK_URL", "http://localhost:8080/api/v1/payments/zalopay/callback"),
		},
		Ordering: OrderingConfig{
			DeleteGracePeriod: time.Duration(getEnvInt("ORDER_DELETE_GRACE_SECONDS", 180)) * time.Second,
			SoftCodeTTL:       time.Duration(getEnvInt("TABLE_SOFT_CODE_TTL_MINUTES", 240)) * time.Minute,
		},
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks config sanity before startup
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		err := validation.Errors{
			"JWT_SECRET": validation.Validate(c.JWT.Secret,
				validation.Required,
				validation.NotIn(defaultJWTSecret).Error("must not be the default")),
			"DB_PASSWORD": validation.Validate(c.Database.Password, validation.Required),
		}.Filter()
		if err != nil {
			return err
		}

		// Gateway keys are only warnings; cash settlement works without them
		if c.ZaloPay.AppID == "" || c.ZaloPay.Key1 == "" || c.ZaloPay.Key2 == "" {
			logger.Warn("zalopay credentials not set, gateway payment will not work", nil)
		}
	}

	if c.Ordering.DeleteGracePeriod <= 0 {
		return fmt.Errorf("ORDER_DELETE_GRACE_SECONDS must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
