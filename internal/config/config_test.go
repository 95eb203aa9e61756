package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("durations convert seconds", func(t *testing.T) {
		cfg := &Config{RateLimitWindowSeconds: 60, ProviderTimeoutSeconds: 15, SessionTTLSeconds: 900}
		assert.Equal(t, time.Minute, cfg.RateLimitWindow())
		assert.Equal(t, 15*time.Second, cfg.ProviderTimeout())
		assert.Equal(t, 900*time.Second, cfg.SessionTTL())
	})

	t.Run("PublicBaseURL falls back to localhost", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, "http://localhost:3000", cfg.PublicBaseURL())

		cfg.PublicURL = "https://selfie.example.com/"
		assert.Equal(t, "https://selfie.example.com", cfg.PublicBaseURL())
	})

	t.Run("EffectiveSessionBackend follows storage backend", func(t *testing.T) {
		cfg := &Config{StorageBackend: BackendPostgres}
		assert.Equal(t, BackendPostgres, cfg.EffectiveSessionBackend())

		cfg.SessionBackend = BackendRedis
		assert.Equal(t, BackendRedis, cfg.EffectiveSessionBackend())
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads config with defaults", func(t *testing.T) {
		for _, key := range []string{"PORT", "LOG_LEVEL", "STORAGE_BACKEND", "DATA_DIR", "RATE_LIMIT_MAX",
			"PROVIDER_TIMEOUT_SECONDS", "PROVIDER_EMPTY_RESPONSE_POLICY", "LINK_PATH", "WEBHOOK_ALLOW_UNSIGNED", "TRUST_PROXY"} {
			unsetForTest(t, key)
		}

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, BackendFile, cfg.StorageBackend)
		assert.Equal(t, "./db", cfg.DataDir)
		assert.Equal(t, 60, cfg.RateLimitMax)
		assert.Equal(t, 15, cfg.ProviderTimeoutSeconds)
		assert.Equal(t, EmptyResponseReject, cfg.ProviderEmptyResponsePolicy)
		assert.Equal(t, "/selfie/start.html", cfg.LinkPath)
		assert.False(t, cfg.WebhookAllowUnsigned)
		assert.False(t, cfg.TrustProxy)
	})

	t.Run("loads custom values", func(t *testing.T) {
		t.Setenv("PORT", "3000")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
		t.Setenv("WEBHOOK_SECRET", "s3cr3t-value-0123456789")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
		assert.Equal(t, "s3cr3t-value-0123456789", cfg.WebhookSecret)
	})

	t.Run("honors legacy variable names", func(t *testing.T) {
		t.Setenv("OZ_SESSION_ENDPOINT", "https://oz.example.com/session")
		t.Setenv("OZ_WEBHOOK_SECRET", "legacy-secret")
		unsetForTest(t, "PROVIDER_SESSION_ENDPOINT")
		unsetForTest(t, "WEBHOOK_SECRET")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "https://oz.example.com/session", cfg.ProviderSessionEndpoint)
		assert.Equal(t, "legacy-secret", cfg.WebhookSecret)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StorageBackend:              BackendFile,
			ProviderEmptyResponsePolicy: EmptyResponseReject,
			ProviderTimeoutSeconds:      15,
			RateLimitMax:                60,
			RateLimitWindowSeconds:      60,
		}
	}

	t.Run("accepts defaults", func(t *testing.T) {
		assert.NoError(t, valid().Validate(false))
	})

	t.Run("rejects unknown storage backend", func(t *testing.T) {
		cfg := valid()
		cfg.StorageBackend = "mongo"
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects unknown session backend", func(t *testing.T) {
		cfg := valid()
		cfg.SessionBackend = "etcd"
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("postgres requires DATABASE_URL", func(t *testing.T) {
		cfg := valid()
		cfg.StorageBackend = BackendPostgres
		assert.Error(t, cfg.Validate(false))

		cfg.DatabaseURL = "postgres://localhost/selfie"
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("redis sessions require REDIS_URL", func(t *testing.T) {
		cfg := valid()
		cfg.SessionBackend = BackendRedis
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects unknown empty response policy", func(t *testing.T) {
		cfg := valid()
		cfg.ProviderEmptyResponsePolicy = "ignore"
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects weak webhook secret in production", func(t *testing.T) {
		cfg := valid()
		cfg.WebhookSecret = "secret"
		assert.Error(t, cfg.Validate(true))

		cfg.WebhookSecret = "0123456789abcdef0123456789abcdef"
		assert.NoError(t, cfg.Validate(true))
	})
}

func unsetForTest(t *testing.T, key string) {
	t.Helper()
	// t.Setenv registers the restore; clear the value so LookupEnv misses it.
	t.Setenv(key, os.Getenv(key))
	require.NoError(t, os.Unsetenv(key))
}
