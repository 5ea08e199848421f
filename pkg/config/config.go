package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Store drivers understood by Load.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// StoreConfig selects the record backend
type StoreConfig struct {
	Driver string
}

// RedisConfig holds redis backend configuration
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

// MongoConfig holds mongo backend configuration
type MongoConfig struct {
	URI         string
	Database    string
	MaxPoolSize int
}

// NATSConfig holds audit fan-out configuration. An empty URL disables publishing.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// SubscriptionConfig holds subscription gate configuration
type SubscriptionConfig struct {
	WarningDays    int
	ContactPhone   string
	ContactBaseURL string
}

// LocaleConfig holds locale configuration
type LocaleConfig struct {
	Default string
}

// Config holds all configuration
type Config struct {
	ServiceName  string
	DB           DBConfig
	Server       ServerConfig
	Store        StoreConfig
	Redis        RedisConfig
	Mongo        MongoConfig
	NATS         NATSConfig
	JWT          JWTConfig
	Log          LogConfig
	Subscription SubscriptionConfig
	Locale       LocaleConfig
}

// Load loads configuration from an optional .env file and environment variables
func Load(serviceName string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", serviceName),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			PoolSize:  getEnvAsInt("REDIS_POOL_SIZE", 20),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", serviceName),
		},
		Mongo: MongoConfig{
			URI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:    getEnv("MONGO_DATABASE", serviceName),
			MaxPoolSize: getEnvAsInt("MONGO_MAX_POOL_SIZE", 20),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", serviceName+".audit"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Subscription: SubscriptionConfig{
			WarningDays:    getEnvAsInt("SUBSCRIPTION_WARNING_DAYS", 7),
			ContactPhone:   getEnv("SUBSCRIPTION_CONTACT_PHONE", ""),
			ContactBaseURL: getEnv("SUBSCRIPTION_CONTACT_BASE_URL", "https://wa.me/"),
		},
		Locale: LocaleConfig{
			Default: getEnv("LOCALE_DEFAULT", "en"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that have no sensible fallback
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverMemory, DriverRedis, DriverMongo:
	default:
		return errors.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Subscription.WarningDays < 0 {
		return errors.New("SUBSCRIPTION_WARNING_DAYS must not be negative")
	}
	if c.JWT.ExpirationHours <= 0 {
		return errors.New("JWT_EXPIRATION_HOURS must be positive")
	}
	return nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	fields := []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("server_port", c.Server.Port),
		zap.String("store_driver", c.Store.Driver),
		zap.Bool("audit_publishing", c.NATS.URL != ""),
		zap.String("default_locale", c.Locale.Default),
	}
	switch c.Store.Driver {
	case DriverPostgres:
		fields = append(fields,
			zap.String("db_host", c.DB.Host),
			zap.String("db_port", c.DB.Port),
			zap.String("db_user", c.DB.User),
			zap.String("db_name", c.DB.DBName))
	case DriverRedis:
		fields = append(fields, zap.String("redis_addr", c.Redis.Addr))
	case DriverMongo:
		fields = append(fields, zap.String("mongo_database", c.Mongo.Database))
	}
	return fields
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
