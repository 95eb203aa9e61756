package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/selfie-proxy/server-go/internal/util"
)

func TestWebhookSignatureMiddleware(t *testing.T) {
	secret := "test-secret-0123456789"
	body := `{"event":"liveness.finished","sid":"s-1"}`
	validSignature := util.HmacSHA256(secret, []byte(body))

	okHandler := func(t *testing.T, got *[]byte) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*got = GetWebhookBody(r.Context())
			w.WriteHeader(http.StatusOK)
		})
	}
	mustNotRun := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	t.Run("accepts valid signature and exposes raw body", func(t *testing.T) {
		var got []byte
		handler := NewWebhookSignatureMiddleware(secret, false, nil).Handler(okHandler(t, &got))

		req := httptest.NewRequest("POST", "/api/callback/oz", bytes.NewBufferString(body))
		req.Header.Set("X-Oz-Signature", validSignature)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, body, string(got))
	})

	t.Run("accepts each signature header and sha256 prefix", func(t *testing.T) {
		for _, header := range SignatureHeaders {
			for _, value := range []string{validSignature, "sha256=" + validSignature, strings.ToUpper(validSignature)} {
				var got []byte
				handler := NewWebhookSignatureMiddleware(secret, false, nil).Handler(okHandler(t, &got))

				req := httptest.NewRequest("POST", "/webhook", bytes.NewBufferString(body))
				req.Header.Set(header, value)
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)

				assert.Equal(t, http.StatusOK, rec.Code, "%s: %s", header, value)
			}
		}
	})

	t.Run("first non-empty header wins", func(t *testing.T) {
		handler := NewWebhookSignatureMiddleware(secret, false, nil).Handler(mustNotRun)

		req := httptest.NewRequest("POST", "/webhook", bytes.NewBufferString(body))
		req.Header.Set("X-Oz-Signature", "deadbeef")
		req.Header.Set("X-Webhook-Signature", validSignature)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects missing signature", func(t *testing.T) {
		handler := NewWebhookSignatureMiddleware(secret, false, nil).Handler(mustNotRun)

		req := httptest.NewRequest("POST", "/webhook", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid signature")
	})

	t.Run("rejects signature over different bytes", func(t *testing.T) {
		handler := NewWebhookSignatureMiddleware(secret, false, nil).Handler(mustNotRun)

		req := httptest.NewRequest("POST", "/webhook", bytes.NewBufferString(body+" "))
		req.Header.Set("X-Oz-Signature", validSignature)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("fails closed without secret", func(t *testing.T) {
		handler := NewWebhookSignatureMiddleware("", false, nil).Handler(mustNotRun)

		req := httptest.NewRequest("POST", "/webhook", bytes.NewBufferString(body))
		req.Header.Set("X-Oz-Signature", validSignature)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts unsigned when explicitly allowed", func(t *testing.T) {
		var got []byte
		handler := NewWebhookSignatureMiddleware("", true, nil).Handler(okHandler(t, &got))

		req := httptest.NewRequest("POST", "/webhook", bytes.NewBufferString("not json"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "not json", string(got))
	})

	t.Run("oversize body is rejected", func(t *testing.T) {
		handler := NewBodyLimitMiddleware(8).Handler(
			NewWebhookSignatureMiddleware(secret, false, nil).Handler(mustNotRun))

		req := httptest.NewRequest("POST", "/webhook", bytes.NewBufferString(body))
		req.ContentLength = -1
		req.Header.Set("X-Oz-Signature", validSignature)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}
