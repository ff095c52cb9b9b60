package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	Store     StoreConfig
	DB        DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Lockout   LockoutConfig
	Providers ProvidersConfig
	Logger    LoggerConfig
}

// AppConfig holds configuration for the application server
type AppConfig struct {
	HTTPPort               string `mapstructure:"HTTP_PORT"`
	BaseURL                string `mapstructure:"BASE_URL"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	// Backend is "redis", "postgres" or "sqlite".
	Backend string `mapstructure:"STORE_BACKEND"`

	// Collection is the logical collection users are stored under.
	Collection string `mapstructure:"STORE_COLLECTION"`

	// SQLitePath is the database file when Backend is "sqlite".
	SQLitePath string `mapstructure:"STORE_SQLITE_PATH"`
}

// DatabaseConfig holds configuration for the PostgreSQL backend
type DatabaseConfig struct {
	Host            string `mapstructure:"DB_HOST"`
	Port            string `mapstructure:"DB_PORT"`
	User            string `mapstructure:"DB_USER"`
	Password        string `mapstructure:"DB_PASSWORD"`
	Name            string `mapstructure:"DB_NAME"`
	SSLMode         string `mapstructure:"DB_SSLMODE"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `mapstructure:"DB_CONN_MAX_LIFETIME"`
}

// RedisConfig holds configuration for Redis (store backend, cache, lockout)
type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	CacheTTL int    `mapstructure:"REDIS_CACHE_TTL"`
}

// SessionConfig holds configuration for the session authority
type SessionConfig struct {
	Secret            string `mapstructure:"SESSION_SECRET"`
	TTLMinutes        int    `mapstructure:"SESSION_TTL_MINUTES"`
	PersistentTTLDays int    `mapstructure:"SESSION_PERSISTENT_TTL_DAYS"`
	Issuer            string `mapstructure:"SESSION_ISSUER"`
}

// TTL returns the regular session lifetime.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// PersistentTTL returns the long-lived session lifetime.
func (c SessionConfig) PersistentTTL() time.Duration {
	return time.Duration(c.PersistentTTLDays) * 24 * time.Hour
}

// LockoutConfig holds configuration for the failed-attempt policy
type LockoutConfig struct {
	Enabled       bool `mapstructure:"LOCKOUT_ENABLED"`
	MaxFailures   int  `mapstructure:"LOCKOUT_MAX_FAILURES"`
	WindowSeconds int  `mapstructure:"LOCKOUT_WINDOW_SECONDS"`
}

// ProviderConfig holds the OAuth client credentials for one provider
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
}

// ProvidersConfig holds the configured external identity providers
type ProvidersConfig struct {
	RedirectURL string `mapstructure:"OAUTH_REDIRECT_URL"`
	Amazon      ProviderConfig
	Google      ProviderConfig
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level          string `mapstructure:"LOG_LEVEL"`
	Format         string `mapstructure:"LOG_FORMAT"`
	OutputPath     string `mapstructure:"LOG_OUTPUT_PATH"`
	EnableSampling bool   `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName    string `mapstructure:"SERVICE_NAME"`
	ServiceVersion string `mapstructure:"SERVICE_VERSION"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	setDefaults()

	viper.AddConfigPath(path)
	viper.SetConfigName("app") // Look for app.env
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	config.App.HTTPPort = viper.GetString("HTTP_PORT")
	config.App.BaseURL = viper.GetString("BASE_URL")
	config.App.ShutdownTimeoutSeconds = viper.GetInt("SHUTDOWN_TIMEOUT_SECONDS")

	config.Store.Backend = viper.GetString("STORE_BACKEND")
	config.Store.Collection = viper.GetString("STORE_COLLECTION")
	config.Store.SQLitePath = viper.GetString("STORE_SQLITE_PATH")

	config.DB.Host = viper.GetString("DB_HOST")
	config.DB.Port = viper.GetString("DB_PORT")
	config.DB.User = viper.GetString("DB_USER")
	config.DB.Password = viper.GetString("DB_PASSWORD")
	config.DB.Name = viper.GetString("DB_NAME")
	config.DB.SSLMode = viper.GetString("DB_SSLMODE")
	config.DB.MaxOpenConns = viper.GetInt("DB_MAX_OPEN_CONNS")
	config.DB.MaxIdleConns = viper.GetInt("DB_MAX_IDLE_CONNS")
	config.DB.ConnMaxLifetime = viper.GetInt("DB_CONN_MAX_LIFETIME")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.CacheTTL = viper.GetInt("REDIS_CACHE_TTL")

	config.Session.Secret = viper.GetString("SESSION_SECRET")
	config.Session.TTLMinutes = viper.GetInt("SESSION_TTL_MINUTES")
	config.Session.PersistentTTLDays = viper.GetInt("SESSION_PERSISTENT_TTL_DAYS")
	config.Session.Issuer = viper.GetString("SESSION_ISSUER")

	config.Lockout.Enabled = viper.GetBool("LOCKOUT_ENABLED")
	config.Lockout.MaxFailures = viper.GetInt("LOCKOUT_MAX_FAILURES")
	config.Lockout.WindowSeconds = viper.GetInt("LOCKOUT_WINDOW_SECONDS")

	config.Providers.RedirectURL = viper.GetString("OAUTH_REDIRECT_URL")
	config.Providers.Amazon.ClientID = viper.GetString("AMAZON_CLIENT_ID")
	config.Providers.Amazon.ClientSecret = viper.GetString("AMAZON_CLIENT_SECRET")
	config.Providers.Google.ClientID = viper.GetString("GOOGLE_CLIENT_ID")
	config.Providers.Google.ClientSecret = viper.GetString("GOOGLE_CLIENT_SECRET")

	config.Logger.Level = viper.GetString("LOG_LEVEL")
	config.Logger.Format = viper.GetString("LOG_FORMAT")
	config.Logger.OutputPath = viper.GetString("LOG_OUTPUT_PATH")
	config.Logger.EnableSampling = viper.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = viper.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = viper.GetString("SERVICE_VERSION")

	return &config, nil
}

// Validate checks the loaded configuration before anything is wired.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "redis", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.Session.TTLMinutes <= 0 || c.Session.PersistentTTLDays <= 0 {
		return fmt.Errorf("session lifetimes must be positive")
	}
	if c.Lockout.Enabled && (c.Lockout.MaxFailures <= 0 || c.Lockout.WindowSeconds <= 0) {
		return fmt.Errorf("lockout threshold and window must be positive when enabled")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	viper.SetDefault("STORE_BACKEND", "redis")
	viper.SetDefault("STORE_COLLECTION", "users")
	viper.SetDefault("STORE_SQLITE_PATH", "travel-account.db")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "travel_account_service")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", 300)

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_CACHE_TTL", 300)

	viper.SetDefault("SESSION_TTL_MINUTES", 60)
	viper.SetDefault("SESSION_PERSISTENT_TTL_DAYS", 30)
	viper.SetDefault("SESSION_ISSUER", "travel-account-service")

	viper.SetDefault("LOCKOUT_ENABLED", true)
	viper.SetDefault("LOCKOUT_MAX_FAILURES", 5)
	viper.SetDefault("LOCKOUT_WINDOW_SECONDS", 300)

	viper.SetDefault("OAUTH_REDIRECT_URL", "http://localhost:8080/auth/callback")

	// Logger defaults
	env := viper.GetString("APP_ENV")
	if env == "production" {
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("LOG_FORMAT", "json")
		viper.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		viper.SetDefault("LOG_LEVEL", "debug")
		viper.SetDefault("LOG_FORMAT", "console")
		viper.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	viper.SetDefault("LOG_OUTPUT_PATH", "stdout")
	viper.SetDefault("SERVICE_NAME", "travel-account-service")
	viper.SetDefault("SERVICE_VERSION", "1.0.0")
}

// DSN returns the PostgreSQL Data Source Name
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}
