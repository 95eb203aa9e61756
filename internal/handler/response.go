package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/selfie-proxy/server-go/internal/errors"
	"github.com/selfie-proxy/server-go/internal/httputil"
)

type okResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// writeError logs failures that are ours, then renders the error body.
// Details of server-side failures only leave the process when exposeDetails
// is set.
func writeError(w http.ResponseWriter, r *http.Request, err error, exposeDetails bool) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.IsServerError() {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	httputil.WriteError(w, err, exposeDetails)
}

// decodeJSON reads a JSON object into dst. An empty body decodes as {} so
// field validation reports what is missing.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.PayloadTooLarge()
	}
	return apperrors.ValidationError("Invalid request body").WithDetails(err.Error())
}
