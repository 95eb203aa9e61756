package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/selfie-proxy/server-go/internal/audit"
	"github.com/selfie-proxy/server-go/internal/model"
	"github.com/selfie-proxy/server-go/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
	exposeDetails  bool
}

func NewSessionHandler(sessionService *service.SessionService, exposeDetails bool) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		exposeDetails:  exposeDetails,
	}
}

// Routes serves the /api/session prefix.
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Post("/request-link", h.Create)
	r.Get("/", h.Issue)
	r.Post("/result", h.Result)

	return r
}

type createSessionRequest struct {
	UserID         string `json:"userId"`
	CustomerName   string `json:"customerName"`
	CustomerEmail  string `json:"customerEmail"`
	AppointmentRef string `json:"appointmentRef"`
	Locale         string `json:"locale"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	SID       string `json:"sid"`
	Link      string `json:"link"`
}

type issueSessionResponse struct {
	SessionID            string          `json:"sessionId"`
	ProviderSessionToken string          `json:"providerSessionToken"`
	ProviderGUID         string          `json:"providerGuid"`
	GUID                 string          `json:"guid"`
	ExpiresAt            *string         `json:"expiresAt,omitempty"`
	Mode                 model.IssueMode `json:"mode"`
}

type sessionResultRequest struct {
	SessionID string          `json:"sessionId"`
	SID       string          `json:"sid"`
	Status    string          `json:"status"`
	Payload   json.RawMessage `json:"payload"`
}

// POST /api/session, /api/session/request-link, /api/selfie/request-link
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.exposeDetails)
		return
	}

	session, err := h.sessionService.Create(r.Context(), model.CreateSessionParams{
		UserID:         req.UserID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		AppointmentRef: req.AppointmentRef,
		Locale:         req.Locale,
	})
	if err != nil {
		writeError(w, r, err, h.exposeDetails)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventSessionCreate,
		UserID:    session.Subject(),
		SessionID: session.ID,
		Details:   map[string]any{"locale": session.Locale},
	})

	writeJSON(w, http.StatusOK, createSessionResponse{
		SessionID: session.ID,
		SID:       session.ID,
		Link:      h.sessionService.BuildLink(session.ID),
	})
}

// GET /api/session?sessionId=, /api/selfie/session?sid=
func (h *SessionHandler) Issue(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sessionID := query.Get("sessionId")
	if sessionID == "" {
		sessionID = query.Get("sid")
	}

	session, issued, err := h.sessionService.Issue(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err, h.exposeDetails)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventSessionIssue,
		UserID:    session.Subject(),
		SessionID: session.ID,
		Details:   map[string]any{"mode": string(issued.Mode)},
	})

	writeJSON(w, http.StatusOK, issueSessionResponse{
		SessionID:            session.ID,
		ProviderSessionToken: issued.SessionToken,
		ProviderGUID:         issued.GUID,
		GUID:                 issued.GUID,
		ExpiresAt:            issued.ExpiresAt,
		Mode:                 issued.Mode,
	})
}

// POST /api/session/result, /api/selfie/result
func (h *SessionHandler) Result(w http.ResponseWriter, r *http.Request) {
	var req sessionResultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.exposeDetails)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = req.SID
	}

	session, err := h.sessionService.ReportResult(r.Context(), sessionID, req.Status, req.Payload)
	if err != nil {
		writeError(w, r, err, h.exposeDetails)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventSessionFinish,
		UserID:    session.Subject(),
		SessionID: session.ID,
		Details:   map[string]any{"status": string(session.Status)},
	})

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
