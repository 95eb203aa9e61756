package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/selfie-proxy/server-go/internal/config"
	"github.com/selfie-proxy/server-go/internal/database"
	"github.com/selfie-proxy/server-go/internal/handler"
	"github.com/selfie-proxy/server-go/internal/jobs"
	"github.com/selfie-proxy/server-go/internal/metrics"
	"github.com/selfie-proxy/server-go/internal/middleware"
	"github.com/selfie-proxy/server-go/internal/redis"
	"github.com/selfie-proxy/server-go/internal/repository"
	"github.com/selfie-proxy/server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(cfg.IsProduction()); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	m := metrics.New()
	healthChecks := map[string]handler.HealthCheck{}

	var db *database.DB
	if cfg.StorageBackend == config.BackendPostgres || cfg.EffectiveSessionBackend() == config.BackendPostgres {
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to apply database schema")
		}
		cancel()
		healthChecks["database"] = db.Ping
		log.Info().Msg("database connected")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		healthChecks["redis"] = redisClient.Health
		log.Info().Msg("redis connected")
	}

	var fileStore *repository.FileStore
	if cfg.StorageBackend == config.BackendFile || cfg.EffectiveSessionBackend() == config.BackendFile {
		fileStore = repository.NewFileStore(cfg.DataDir)
		if err := fileStore.EnsureFiles(); err != nil {
			log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to prepare data files")
		}
		log.Info().Str("dir", cfg.DataDir).Msg("file store ready")
	}

	d := deps{
		broker: service.NewBrokerService(service.BrokerConfig{
			Endpoint:            cfg.ProviderSessionEndpoint,
			APIToken:            cfg.ProviderAPIToken,
			APIKey:              cfg.ProviderAPIKey,
			PartnerCode:         cfg.ProviderPartnerCode,
			CallbackURL:         cfg.ProviderCallbackURL,
			Timeout:             cfg.ProviderTimeout(),
			EmptyResponsePolicy: cfg.ProviderEmptyResponsePolicy,
		}, m),
		metrics:      m,
		healthChecks: healthChecks,
	}

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		d.consents = repository.NewConsentRepository(db.DB)
		d.callbacks = repository.NewCallbackRepository(db.DB)
	default:
		d.consents = fileStore.Consents()
		d.callbacks = fileStore.Callbacks()
	}

	var cleanupStores map[string]jobs.ExpiringStore
	switch cfg.EffectiveSessionBackend() {
	case config.BackendPostgres:
		d.sessions = repository.NewSessionRepository(db.DB)
	case config.BackendMemory:
		memorySessions := repository.NewMemorySessionRepository(cfg.SessionTTL())
		d.sessions = memorySessions
		if cfg.SessionTTL() > 0 {
			cleanupStores = map[string]jobs.ExpiringStore{"sessions": memorySessions}
		}
	case config.BackendRedis:
		d.sessions = repository.NewRedisSessionRepository(redisClient.Client, cfg.SessionTTL())
	default:
		d.sessions = fileStore.Sessions()
	}

	if redisClient != nil {
		d.limiter = middleware.NewRedisRateLimiter(redisClient.Client, cfg.RateLimitWindow())
	} else {
		d.limiter = middleware.NewRateLimiter(cfg.RateLimitWindow())
	}

	log.Info().
		Str("storage", cfg.StorageBackend).
		Str("sessions", cfg.EffectiveSessionBackend()).
		Bool("mock_provider", cfg.ProviderSessionEndpoint == "").
		Bool("production", cfg.IsProduction()).
		Msg("backends selected")

	if len(cleanupStores) > 0 {
		cleanupJob := jobs.NewCleanupJob(cleanupStores, config.SessionCleanupInterval)
		cleanupJob.Start()
		defer cleanupJob.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      newRouter(cfg, d),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
