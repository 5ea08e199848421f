package config

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load("bizledger")
	require.NoError(t, err)

	assert.Equal(t, "bizledger", cfg.ServiceName)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "bizledger", cfg.DB.DBName)
	assert.Equal(t, "bizledger.audit", cfg.NATS.SubjectPrefix)
	assert.Equal(t, 7, cfg.Subscription.WarningDays)
	assert.Equal(t, "https://wa.me/", cfg.Subscription.ContactBaseURL)
	assert.Equal(t, "en", cfg.Locale.Default)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "REDIS")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "15m")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("SUBSCRIPTION_WARNING_DAYS", "10")
	t.Setenv("SUBSCRIPTION_CONTACT_PHONE", "201000000000")

	cfg, err := Load("bizledger")
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 15*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
	assert.Equal(t, 10, cfg.Subscription.WarningDays)
	assert.Equal(t, "201000000000", cfg.Subscription.ContactPhone)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load("bizledger")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"negative warning days", func(c *Config) { c.Subscription.WarningDays = -1 }, true},
		{"zero token lifetime", func(c *Config) { c.JWT.ExpirationHours = 0 }, true},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Store:        StoreConfig{Driver: DriverMemory},
				JWT:          JWTConfig{ExpirationHours: 1},
				Subscription: SubscriptionConfig{WarningDays: 7},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				var traced interface{ StackTrace() errors.StackTrace }
				assert.True(t, errors.As(err, &traced), "error carries a stack trace")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.GetDSN())
}

func TestLogConfigHidesSecrets(t *testing.T) {
	cfg := &Config{
		ServiceName: "bizledger",
		Store:       StoreConfig{Driver: DriverPostgres},
		DB:          DBConfig{Password: "hunter2"},
		JWT:         JWTConfig{SigningKey: "signing"},
	}
	for _, f := range cfg.LogConfig() {
		assert.NotEqual(t, "hunter2", f.String)
		assert.NotEqual(t, "signing", f.String)
	}
}
