package handler

import (
	"net/http"

	"github.com/selfie-proxy/server-go/internal/audit"
	"github.com/selfie-proxy/server-go/internal/middleware"
	"github.com/selfie-proxy/server-go/internal/service"
)

// WebhookHandler records provider callbacks. It expects
// WebhookSignatureMiddleware in front of it.
type WebhookHandler struct {
	callbackService *service.CallbackService
	exposeDetails   bool
}

func NewWebhookHandler(callbackService *service.CallbackService, exposeDetails bool) *WebhookHandler {
	return &WebhookHandler{
		callbackService: callbackService,
		exposeDetails:   exposeDetails,
	}
}

// POST /api/callback/oz, /api/selfie/webhook, /webhook
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body := middleware.GetWebhookBody(r.Context())

	record, err := h.callbackService.Accept(r.Context(), body, r.Header)
	if err != nil {
		writeError(w, r, err, h.exposeDetails)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventWebhookAccept,
		Details: map[string]any{"callback_id": record.ID, "bytes": len(body)},
	})

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
