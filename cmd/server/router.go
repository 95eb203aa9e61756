package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/selfie-proxy/server-go/internal/config"
	apperrors "github.com/selfie-proxy/server-go/internal/errors"
	"github.com/selfie-proxy/server-go/internal/handler"
	"github.com/selfie-proxy/server-go/internal/httputil"
	"github.com/selfie-proxy/server-go/internal/metrics"
	"github.com/selfie-proxy/server-go/internal/middleware"
	"github.com/selfie-proxy/server-go/internal/repository"
	"github.com/selfie-proxy/server-go/internal/service"
)

// deps is everything the router needs that main chooses by configuration.
type deps struct {
	consents     repository.ConsentRepository
	sessions     repository.SessionRepository
	callbacks    repository.CallbackRepository
	broker       service.BrokerClient
	limiter      middleware.Limiter
	metrics      *metrics.Metrics
	healthChecks map[string]handler.HealthCheck
}

func newRouter(cfg *config.Config, d deps) chi.Router {
	isProduction := cfg.IsProduction()
	exposeDetails := !isProduction

	consentService := service.NewConsentService(d.consents, d.metrics)
	sessionService := service.NewSessionService(d.sessions, d.broker, d.metrics, cfg.PublicBaseURL(), cfg.LinkPath)
	callbackService := service.NewCallbackService(d.callbacks, d.metrics)

	healthHandler := handler.NewHealthHandler(d.healthChecks)
	consentHandler := handler.NewConsentHandler(consentService, exposeDetails)
	sessionHandler := handler.NewSessionHandler(sessionService, exposeDetails)
	webhookHandler := handler.NewWebhookHandler(callbackService, exposeDetails)

	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(cfg.MaxBodyBytes)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(d.limiter, cfg.RateLimitMax, cfg.RateLimitWindow(), cfg.TrustProxy)
	webhookSignatureMiddleware := middleware.NewWebhookSignatureMiddleware(cfg.WebhookSecret, cfg.WebhookAllowUnsigned, d.metrics)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(middleware.NewCORS(cfg.AllowedOrigins))

	notFound := func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, apperrors.NotFound("Route"), exposeDetails)
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/health", healthHandler.ServeHTTP)
	r.Get("/healthz", healthHandler.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", d.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)
		r.Use(bodyLimitMiddleware.Handler)

		r.Mount("/api/consent", consentHandler.Routes())
		r.Mount("/api/session", sessionHandler.Routes())

		r.Route("/api/selfie", func(r chi.Router) {
			r.Post("/request-link", sessionHandler.Create)
			r.Get("/session", sessionHandler.Issue)
			r.Post("/result", sessionHandler.Result)
			r.With(webhookSignatureMiddleware.Handler).Post("/webhook", webhookHandler.Receive)
		})

		r.With(webhookSignatureMiddleware.Handler).Post("/api/callback/oz", webhookHandler.Receive)
		r.With(webhookSignatureMiddleware.Handler).Post("/webhook", webhookHandler.Receive)
	})

	return r
}
