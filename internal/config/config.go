package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"

	"github.com/selfie-proxy/server-go/internal/util"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

const (
	EmptyResponseReject     = "reject"
	EmptyResponseSynthesize = "synthesize"
)

var knownWeakSecrets = []string{
	"change-me", "secret", "webhook-secret", "password", "test",
}

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`

	AllowedOrigins         []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	RateLimitWindowSeconds int      `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	RateLimitMax           int      `env:"RATE_LIMIT_MAX" envDefault:"60"`
	MaxBodyBytes           int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	TrustProxy             bool     `env:"TRUST_PROXY" envDefault:"false"`

	StorageBackend    string `env:"STORAGE_BACKEND" envDefault:"file"`
	DataDir           string `env:"DATA_DIR" envDefault:"./db"`
	DatabaseURL       string `env:"DATABASE_URL"`
	SessionBackend    string `env:"SESSION_BACKEND"`
	SessionTTLSeconds int    `env:"SESSION_TTL_SECONDS" envDefault:"0"`
	RedisURL          string `env:"REDIS_URL"`

	ProviderSessionEndpoint     string `env:"PROVIDER_SESSION_ENDPOINT"`
	ProviderAPIToken            string `env:"PROVIDER_API_TOKEN"`
	ProviderAPIKey              string `env:"PROVIDER_API_KEY"`
	ProviderPartnerCode         string `env:"PROVIDER_PARTNER_CODE"`
	ProviderCallbackURL         string `env:"PROVIDER_CALLBACK_URL"`
	ProviderTimeoutSeconds      int    `env:"PROVIDER_TIMEOUT_SECONDS" envDefault:"15"`
	ProviderEmptyResponsePolicy string `env:"PROVIDER_EMPTY_RESPONSE_POLICY" envDefault:"reject"`

	WebhookSecret        string `env:"WEBHOOK_SECRET"`
	WebhookAllowUnsigned bool   `env:"WEBHOOK_ALLOW_UNSIGNED" envDefault:"false"`

	PublicURL string `env:"PUBLIC_URL"`
	LinkPath  string `env:"LINK_PATH" envDefault:"/selfie/start.html"`
}

// legacyEnv maps variable names used by earlier deployments onto the
// current ones. The first set name in each list wins.
var legacyEnv = map[string][]string{
	"PROVIDER_SESSION_ENDPOINT": {"OZ_SESSION_ENDPOINT", "BLS_PLUGIN_ENDPOINT"},
	"PROVIDER_API_TOKEN":        {"OZ_API_TOKEN"},
	"PROVIDER_API_KEY":          {"OZ_API_KEY", "BLS_API_KEY"},
	"PROVIDER_PARTNER_CODE":     {"BLS_PARTNER_CODE"},
	"PROVIDER_CALLBACK_URL":     {"OZ_CALLBACK_URL"},
	"WEBHOOK_SECRET":            {"OZ_WEBHOOK_SECRET", "SELFIE_WEBHOOK_SECRET"},
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// IsProduction reports whether error details must be hidden from callers.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production") || os.Getenv("FLY_APP_NAME") != ""
}

// PublicBaseURL is the origin generated links point at.
func (c *Config) PublicBaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

// EffectiveSessionBackend falls back to the storage backend when no
// dedicated session backend is configured.
func (c *Config) EffectiveSessionBackend() string {
	if c.SessionBackend == "" {
		return c.StorageBackend
	}
	return c.SessionBackend
}

func (c *Config) Validate(isProduction bool) error {
	if !util.IsValidEnum(c.StorageBackend, []string{BackendFile, BackendPostgres}) || c.StorageBackend == "" {
		return fmt.Errorf("STORAGE_BACKEND must be one of: file, postgres")
	}
	if !util.IsValidEnum(c.SessionBackend, []string{BackendFile, BackendPostgres, BackendMemory, BackendRedis}) {
		return fmt.Errorf("SESSION_BACKEND must be one of: file, postgres, memory, redis")
	}
	if !util.IsValidEnum(c.ProviderEmptyResponsePolicy, []string{EmptyResponseReject, EmptyResponseSynthesize}) || c.ProviderEmptyResponsePolicy == "" {
		return fmt.Errorf("PROVIDER_EMPTY_RESPONSE_POLICY must be one of: reject, synthesize")
	}

	if (c.StorageBackend == BackendPostgres || c.SessionBackend == BackendPostgres) && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for the postgres backend")
	}
	if c.SessionBackend == BackendRedis && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required for the redis session backend")
	}
	if c.ProviderTimeoutSeconds <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECONDS must be positive")
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindowSeconds <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW_SECONDS must be positive")
	}

	if isProduction {
		if c.WebhookSecret == "" {
			if c.WebhookAllowUnsigned {
				log.Warn().Msg("WEBHOOK_SECRET is empty and WEBHOOK_ALLOW_UNSIGNED=true in production: provider callbacks are accepted without verification")
			} else {
				log.Warn().Msg("WEBHOOK_SECRET is empty in production: all provider callbacks will be rejected")
			}
		} else if err := validateSecret("WEBHOOK_SECRET", c.WebhookSecret); err != nil {
			return err
		}
		if c.ProviderSessionEndpoint == "" {
			log.Warn().Msg("PROVIDER_SESSION_ENDPOINT is empty in production: sessions are issued in MOCK mode")
		}
		if c.PublicURL == "" {
			log.Warn().Msg("PUBLIC_URL is empty in production: generated links point at localhost")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 16 {
		return fmt.Errorf("%s must be at least 16 characters in production (generate with: openssl rand -hex 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	applyLegacyEnv()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func applyLegacyEnv() {
	for current, legacy := range legacyEnv {
		if _, ok := os.LookupEnv(current); ok {
			continue
		}
		for _, name := range legacy {
			if v, ok := os.LookupEnv(name); ok && v != "" {
				os.Setenv(current, v)
				log.Warn().Str("legacy", name).Str("current", current).Msg("using legacy environment variable")
				break
			}
		}
	}
}
