package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/selfie-proxy/server-go/internal/errors"
	"github.com/selfie-proxy/server-go/internal/metrics"
	"github.com/selfie-proxy/server-go/internal/model"
	"github.com/selfie-proxy/server-go/internal/repository"
)

const (
	defaultLocale    = "en"
	brokerName       = "liveness provider"
	sessionLinkParam = "sid"
)

type SessionService struct {
	repo     repository.SessionRepository
	broker   BrokerClient
	metrics  *metrics.Metrics
	linkBase string
	now      func() time.Time
}

// NewSessionService builds links as linkBase + "?sid=<id>", where linkBase
// is the public origin joined with the client page path.
func NewSessionService(
	repo repository.SessionRepository,
	broker BrokerClient,
	m *metrics.Metrics,
	publicBaseURL string,
	linkPath string,
) *SessionService {
	if linkPath != "" && !strings.HasPrefix(linkPath, "/") {
		linkPath = "/" + linkPath
	}
	return &SessionService{
		repo:     repo,
		broker:   broker,
		metrics:  m,
		linkBase: strings.TrimRight(publicBaseURL, "/") + linkPath,
		now:      time.Now,
	}
}

func (s *SessionService) BuildLink(sessionID string) string {
	return s.linkBase + "?" + sessionLinkParam + "=" + url.QueryEscape(sessionID)
}

// Create stores a new session in status created. Either an email or a
// user id must identify the subject.
func (s *SessionService) Create(ctx context.Context, params model.CreateSessionParams) (*model.VerificationSession, error) {
	if strings.TrimSpace(params.CustomerEmail) == "" && strings.TrimSpace(params.UserID) == "" {
		return nil, apperrors.MissingRequired("customerEmail")
	}

	locale := strings.TrimSpace(params.Locale)
	if locale == "" {
		locale = defaultLocale
	}

	session := &model.VerificationSession{
		ID:             uuid.NewString(),
		UserID:         params.UserID,
		CustomerName:   params.CustomerName,
		CustomerEmail:  params.CustomerEmail,
		AppointmentRef: params.AppointmentRef,
		Locale:         locale,
		Status:         model.SessionStatusCreated,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, apperrors.Database(err)
	}

	s.metrics.IncSessionEvent("created", "")
	return session, nil
}

// Issue resolves provider credentials for an existing session. On broker
// failure the stored session is left as it was.
func (s *SessionService) Issue(ctx context.Context, sessionID string) (*model.VerificationSession, *IssuedSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil, apperrors.MissingRequired("sessionId")
	}

	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	issued, err := s.broker.IssueSession(ctx, IssueRequest{
		SessionID:      session.ID,
		UserID:         session.Subject(),
		AppointmentRef: session.AppointmentRef,
		Locale:         session.Locale,
	})
	if err != nil {
		return nil, nil, apperrors.External(brokerName, err)
	}

	now := s.now().UTC()
	session.ProviderSessionToken = issued.SessionToken
	session.ProviderGUID = issued.GUID
	session.ProviderExpiresAt = issued.ExpiresAt
	session.IsMock = issued.Mode == model.IssueModeMock
	session.Status = model.SessionStatusIssued
	session.IssuedAt = &now

	if err := s.update(ctx, session); err != nil {
		return nil, nil, err
	}

	s.metrics.IncSessionEvent("issued", string(issued.Mode))
	log.Info().
		Str("session_id", session.ID).
		Str("mode", string(issued.Mode)).
		Msg("session issued")

	return session, issued, nil
}

// ReportResult stores the client-reported outcome verbatim.
func (s *SessionService) ReportResult(ctx context.Context, sessionID, status string, payload json.RawMessage) (*model.VerificationSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperrors.MissingRequired("sessionId")
	}
	if strings.TrimSpace(status) == "" {
		return nil, apperrors.MissingRequired("status")
	}

	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session.Status = model.SessionStatus(status)
	session.FinishedAt = &now
	session.Result = nil
	if len(payload) > 0 && string(payload) != "null" {
		raw := append(json.RawMessage(nil), payload...)
		session.Result = &raw
	}

	if err := s.update(ctx, session); err != nil {
		return nil, err
	}

	s.metrics.IncSessionEvent("finished", modeOf(session))
	return session, nil
}

func (s *SessionService) find(ctx context.Context, sessionID string) (*model.VerificationSession, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.SessionNotFound()
	}
	return session, nil
}

func (s *SessionService) update(ctx context.Context, session *model.VerificationSession) error {
	err := s.repo.Update(ctx, session)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.SessionNotFound()
	}
	if err != nil {
		return apperrors.Database(err)
	}
	return nil
}

func modeOf(session *model.VerificationSession) string {
	switch {
	case session.IssuedAt == nil && session.ProviderSessionToken == "":
		return ""
	case session.IsMock:
		return string(model.IssueModeMock)
	default:
		return string(model.IssueModeLive)
	}
}
