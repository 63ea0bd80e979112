package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "STORAGE_DRIVER", "DATABASE_URL", "JWT_SECRET", "JWT_ISSUER", "JWT_TTL_MINUTES",
		"CORS_ALLOWED_ORIGINS", "ADMIN_EMAILS", "SERVICE_NAME", "ENV", "LOG_LEVEL", "LOG_FILE", "SEED_DEMO_PRODUCTS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "storefront", cfg.JWTIssuer)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.AdminEmails)
	assert.False(t, cfg.SeedDemoProducts)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMemoryDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_EMAILS", " boss@example.com, ,ops@example.com")
	t.Setenv("JWT_TTL_MINUTES", "-5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.True(t, cfg.SeedDemoProducts)
	assert.Equal(t, []string{"boss@example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"DATABASE_URL is required": {"JWT_SECRET": "x"},
		"JWT_SECRET is required":   {"STORAGE_DRIVER": "memory"},
		`unknown STORAGE_DRIVER "sqlite"`: {"STORAGE_DRIVER": "sqlite", "JWT_SECRET": "x"},
	}
	for want, env := range cases {
		t.Run(want, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.EqualError(t, err, want)
		})
	}
}
