package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ZALOPAY_CALLBACK_URL", "")
	t.Setenv("ORDER_DELETE_GRACE_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	// The default callback URL must point at the route the router
	// actually registers
	assert.Equal(t, "http://localhost:8080/api/v1/payments/zalopay/callback", cfg.ZaloPay.CallbackURL)
	assert.Equal(t, 180*time.Second, cfg.Ordering.DeleteGracePeriod)
}

func TestValidateProductionCredentials(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:      AppConfig{Environment: "production"},
			Database: DatabaseConfig{Password: "secret"},
			JWT:      JWTConfig{Secret: "rotated-secret"},
			Ordering: OrderingConfig{DeleteGracePeriod: 180 * time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"default jwt secret", func(c *Config) { c.JWT.Secret = defaultJWTSecret }, true},
		{"empty jwt secret", func(c *Config) { c.JWT.Secret = "" }, true},
		{"missing db password", func(c *Config) { c.Database.Password = "" }, true},
		{"non-positive grace period", func(c *Config) { c.Ordering.DeleteGracePeriod = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
