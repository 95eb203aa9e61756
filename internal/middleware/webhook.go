package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/selfie-proxy/server-go/internal/audit"
	apperrors "github.com/selfie-proxy/server-go/internal/errors"
	"github.com/selfie-proxy/server-go/internal/metrics"
	"github.com/selfie-proxy/server-go/internal/util"
)

// SignatureHeaders are checked in order; the first non-empty one is used.
var SignatureHeaders = []string{"X-Oz-Signature", "X-Hub-Signature", "X-Webhook-Signature"}

// GetWebhookBody returns the raw request bytes the signature was checked
// against.
func GetWebhookBody(ctx context.Context) []byte {
	body, _ := ctx.Value(WebhookBodyContextKey).([]byte)
	return body
}

type WebhookSignatureMiddleware struct {
	secret        string
	allowUnsigned bool
	metrics       *metrics.Metrics
}

func NewWebhookSignatureMiddleware(secret string, allowUnsigned bool, m *metrics.Metrics) *WebhookSignatureMiddleware {
	return &WebhookSignatureMiddleware{
		secret:        secret,
		allowUnsigned: allowUnsigned,
		metrics:       m,
	}
}

func (m *WebhookSignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, apperrors.PayloadTooLarge())
				return
			}
			log.Error().Err(err).Msg("webhook signature middleware: failed to read body")
			writeError(w, apperrors.Internal("Failed to read request body").WithCause(err))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if m.secret == "" {
			if !m.allowUnsigned {
				m.reject(w, r, "webhook secret not configured")
				return
			}
			log.Warn().Msg("webhook signature verification bypassed: WEBHOOK_SECRET is not configured")
		} else {
			signature := signatureFromRequest(r)
			if signature == "" {
				m.reject(w, r, "missing signature header")
				return
			}
			if !util.VerifyHmacSHA256(m.secret, body, signature) {
				m.reject(w, r, "signature mismatch")
				return
			}
		}

		ctx := context.WithValue(r.Context(), WebhookBodyContextKey, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *WebhookSignatureMiddleware) reject(w http.ResponseWriter, r *http.Request, reason string) {
	log.Warn().Str("reason", reason).Msg("webhook signature middleware: rejected")
	m.metrics.IncWebhook("rejected")
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventWebhookReject,
		Details: map[string]any{"reason": reason},
	})
	writeError(w, apperrors.InvalidSignature())
}

func signatureFromRequest(r *http.Request) string {
	for _, name := range SignatureHeaders {
		if v := strings.TrimSpace(r.Header.Get(name)); v != "" {
			return strings.TrimPrefix(v, "sha256=")
		}
	}
	return ""
}
