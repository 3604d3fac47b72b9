package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, BackendMemory, cfg.SessionStore)
	assert.Equal(t, BackendMemory, cfg.AccountStore)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, []int{1}, cfg.DefaultFavorites)
	assert.Empty(t, cfg.CatalogFile)
	assert.False(t, cfg.KafkaEnabled)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.NeedsRedis())
	assert.False(t, cfg.NeedsPostgres())
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("STORE_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATE", "2.0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}

func TestLoad_Backends(t *testing.T) {
	t.Setenv("STORE_SESSION_STORE", "redis")
	t.Setenv("STORE_ACCOUNT_STORE", "postgres")
	t.Setenv("REDIS_HOST", "redis.prod")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("POSTGRES_HOST", "pg.prod")
	t.Setenv("DB_MAX_CONN_LIFETIME_MINUTES", "15")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.NeedsRedis())
	assert.True(t, cfg.NeedsPostgres())
	assert.Equal(t, "redis.prod:6380", cfg.Redis().Addr())

	pg := cfg.Postgres()
	assert.Equal(t, "pg.prod", pg.Host)
	assert.Equal(t, "store_db", pg.DBName)
	assert.Equal(t, 15*time.Minute, pg.MaxConnLifetime)
}

func TestLoad_UnknownBackend(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		msg  string
	}{
		{"session store", "STORE_SESSION_STORE", "postgres", "STORE_SESSION_STORE"},
		{"account store", "STORE_ACCOUNT_STORE", "redis", "STORE_ACCOUNT_STORE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoad_ShortJWTSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "short")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be at least")

	t.Setenv("JWT_SECRET", "a-production-secret-of-at-least-32-chars")
	cfg, err = Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_SeedFavorites(t *testing.T) {
	t.Setenv("STORE_SEED_FAVORITES", "2,4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, cfg.DefaultFavorites)

	t.Setenv("STORE_SEED_FAVORITES", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_NonPositiveDurations(t *testing.T) {
	t.Setenv("STORE_SESSION_TTL", "0s")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_SESSION_TTL")
}
