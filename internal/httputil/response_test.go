package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/selfie-proxy/server-go/internal/errors"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWriteError(t *testing.T) {
	t.Run("maps validation errors to 400 with message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, apperrors.MissingRequired("userId"), false)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "userId is required", resp.Error)
		assert.Equal(t, apperrors.ErrCodeMissingRequired, resp.Code)
	})

	t.Run("maps not found to 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, apperrors.SessionNotFound(), false)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("maps signature failure to 401 without details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, apperrors.InvalidSignature(), true)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, decodeError(t, rec).Details)
	})

	t.Run("hides upstream details when not exposed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := apperrors.External("liveness provider", errors.New("dial tcp: connection refused")).
			WithDetails("connection refused")
		WriteError(rec, err, false)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		resp := decodeError(t, rec)
		assert.Nil(t, resp.Details)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("exposes upstream details outside production", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := apperrors.External("liveness provider", errors.New("dial tcp: connection refused"))
		WriteError(rec, err, true)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "dial tcp: connection refused", decodeError(t, rec).Details)
	})

	t.Run("wraps unknown errors as internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("boom"), false)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, apperrors.ErrCodeInternal, resp.Code)
		assert.NotContains(t, rec.Body.String(), "boom")
	})
}

func TestStatusFromCode(t *testing.T) {
	tests := map[apperrors.ErrorCode]int{
		apperrors.ErrCodeValidation:        http.StatusBadRequest,
		apperrors.ErrCodeInvalidInput:      http.StatusBadRequest,
		apperrors.ErrCodeMissingRequired:   http.StatusBadRequest,
		apperrors.ErrCodeInvalidSignature:  http.StatusUnauthorized,
		apperrors.ErrCodeNotFound:          http.StatusNotFound,
		apperrors.ErrCodePayloadTooLarge:   http.StatusRequestEntityTooLarge,
		apperrors.ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
		apperrors.ErrCodeExternal:          http.StatusBadGateway,
		apperrors.ErrCodeDatabase:          http.StatusInternalServerError,
		apperrors.ErrCodeInternal:          http.StatusInternalServerError,
	}

	for code, status := range tests {
		t.Run(string(code), func(t *testing.T) {
			assert.Equal(t, status, StatusFromCode(code))
		})
	}
}
