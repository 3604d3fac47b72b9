package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/kreedentials/store/pkg/config"
	"github.com/kreedentials/store/pkg/database"
)

// Backend names accepted by the store selectors.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// minJWTSecretLength is enforced outside development.
const minJWTSecretLength = 32

// Config holds all configuration for the store service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int           `env:"STORE_HTTP_PORT" envDefault:"8010"`
	RequestTimeout     time.Duration `env:"STORE_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout    time.Duration `env:"STORE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CatalogCacheTTL    time.Duration `env:"STORE_CATALOG_CACHE_TTL" envDefault:"5m"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Catalog
	CatalogFile      string `env:"STORE_CATALOG_FILE" envDefault:""`
	DefaultFavorites []int  `env:"STORE_SEED_FAVORITES" envDefault:"1" envSeparator:","`

	// Sessions
	SessionStore         string        `env:"STORE_SESSION_STORE" envDefault:"memory"`
	SessionTTL           time.Duration `env:"STORE_SESSION_TTL" envDefault:"168h"`
	SessionSweepInterval time.Duration `env:"STORE_SESSION_SWEEP_INTERVAL" envDefault:"1m"`

	// Accounts and tokens
	AccountStore  string        `env:"STORE_ACCOUNT_STORE" envDefault:"memory"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"dev-only-secret-change-me"`
	JWTExpiry     time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	AuthRateLimit float64       `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateBurst int           `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass     string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"store"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"store_secret"`
	PostgresDB   string `env:"STORE_DB_NAME" envDefault:"store_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load store config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SessionStore != BackendMemory && c.SessionStore != BackendRedis {
		return fmt.Errorf("STORE_SESSION_STORE must be %q or %q, got %q", BackendMemory, BackendRedis, c.SessionStore)
	}
	if c.AccountStore != BackendMemory && c.AccountStore != BackendPostgres {
		return fmt.Errorf("STORE_ACCOUNT_STORE must be %q or %q, got %q", BackendMemory, BackendPostgres, c.AccountStore)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("STORE_SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRY must be positive, got %s", c.JWTExpiry)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if !c.IsDevelopment() && len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters outside development", minJWTSecretLength)
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst < 1 {
		return fmt.Errorf("auth rate limit must be positive, got %g/s burst %d", c.AuthRateLimit, c.AuthRateBurst)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	for _, id := range c.DefaultFavorites {
		if id <= 0 {
			return fmt.Errorf("STORE_SEED_FAVORITES must hold positive product ids, got %d", id)
		}
	}
	return nil
}

// IsDevelopment reports whether the service runs in the development
// environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPass,
		DB:       c.RedisDB,
		PoolSize: c.RedisPoolSize,
	}
}

// Postgres returns the PostgreSQL pool settings.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// NeedsRedis reports whether any component is backed by Redis.
func (c *Config) NeedsRedis() bool {
	return c.SessionStore == BackendRedis
}

// NeedsPostgres reports whether any component is backed by PostgreSQL.
func (c *Config) NeedsPostgres() bool {
	return c.AccountStore == BackendPostgres
}
