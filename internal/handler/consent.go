package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/selfie-proxy/server-go/internal/audit"
	"github.com/selfie-proxy/server-go/internal/httputil"
	"github.com/selfie-proxy/server-go/internal/model"
	"github.com/selfie-proxy/server-go/internal/service"
)

type ConsentHandler struct {
	consentService *service.ConsentService
	exposeDetails  bool
}

func NewConsentHandler(consentService *service.ConsentService, exposeDetails bool) *ConsentHandler {
	return &ConsentHandler{
		consentService: consentService,
		exposeDetails:  exposeDetails,
	}
}

func (h *ConsentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)

	return r
}

type createConsentRequest struct {
	UserID         string `json:"userId"`
	AppointmentRef string `json:"appointmentRef"`
	ConsentText    string `json:"consentText"`
	ConsentVersion string `json:"consentVersion"`
	UserAgent      string `json:"userAgent"`
}

// POST /api/consent
func (h *ConsentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConsentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.exposeDetails)
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	record, err := h.consentService.Record(r.Context(), model.CreateConsentParams{
		UserID:         req.UserID,
		AppointmentRef: req.AppointmentRef,
		ConsentText:    req.ConsentText,
		ConsentVersion: req.ConsentVersion,
		UserAgent:      userAgent,
		ClientIP:       httputil.ClientIP(r),
	})
	if err != nil {
		writeError(w, r, err, h.exposeDetails)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventConsentRecord,
		UserID: record.UserID,
		Details: map[string]any{
			"consent_id":      record.ID,
			"consent_version": record.ConsentVersion,
		},
	})

	writeJSON(w, http.StatusOK, okResponse{OK: true, ID: record.ID})
}
