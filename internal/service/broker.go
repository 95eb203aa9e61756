package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/selfie-proxy/server-go/internal/config"
	"github.com/selfie-proxy/server-go/internal/metrics"
	"github.com/selfie-proxy/server-go/internal/model"
	"github.com/selfie-proxy/server-go/internal/util"
)

const (
	brokerAction       = "get_session"
	maxUpstreamBodyLog = 2048

	// maxProviderResponseBytes bounds what is read from the provider; only
	// three small fields are used.
	maxProviderResponseBytes = 256 << 10
)

// ErrEmptyProviderResponse is returned when the provider answered 2xx but
// carried neither a token nor a session identifier.
var ErrEmptyProviderResponse = errors.New("provider response has no session token or guid")

var (
	tokenFields   = []string{"sessionToken", "token", "session"}
	guidFields    = []string{"guid", "GUID", "id"}
	expiresFields = []string{"expiresAt", "expires_at"}
)

type IssueRequest struct {
	SessionID      string
	UserID         string
	AppointmentRef string
	Locale         string
}

type IssuedSession struct {
	SessionToken string
	GUID         string
	ExpiresAt    *string
	Mode         model.IssueMode
}

// BrokerClient obtains provider session credentials for a local session.
type BrokerClient interface {
	IssueSession(ctx context.Context, req IssueRequest) (*IssuedSession, error)
}

type BrokerConfig struct {
	Endpoint            string
	APIToken            string
	APIKey              string
	PartnerCode         string
	CallbackURL         string
	Timeout             time.Duration
	EmptyResponsePolicy string
}

// BrokerService talks to the liveness provider's session endpoint. With no
// endpoint configured it hands out synthetic MOCK credentials instead.
type BrokerService struct {
	cfg     BrokerConfig
	client  *http.Client
	metrics *metrics.Metrics
	newID   func() string
}

func NewBrokerService(cfg BrokerConfig, m *metrics.Metrics) *BrokerService {
	if cfg.EmptyResponsePolicy == "" {
		cfg.EmptyResponsePolicy = config.EmptyResponseReject
	}
	return &BrokerService{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: m,
		newID:   uuid.NewString,
	}
}

func (s *BrokerService) IsMock() bool {
	return s.cfg.Endpoint == ""
}

type brokerPayload struct {
	Action         string `json:"action"`
	SID            string `json:"sid"`
	SessionID      string `json:"sessionId"`
	UserID         string `json:"userId,omitempty"`
	AppointmentRef string `json:"appointmentRef,omitempty"`
	Lang           string `json:"lang"`
	Locale         string `json:"locale"`
	CallbackURL    string `json:"callbackUrl,omitempty"`
	Partner        string `json:"partner,omitempty"`
}

func (s *BrokerService) IssueSession(ctx context.Context, req IssueRequest) (*IssuedSession, error) {
	if s.IsMock() {
		return &IssuedSession{
			SessionToken: config.MockTokenPrefix + s.newID(),
			GUID:         config.MockGUIDPrefix + s.newID(),
			Mode:         model.IssueModeMock,
		}, nil
	}

	body, err := json.Marshal(brokerPayload{
		Action:         brokerAction,
		SID:            req.SessionID,
		SessionID:      req.SessionID,
		UserID:         req.UserID,
		AppointmentRef: req.AppointmentRef,
		Lang:           req.Locale,
		Locale:         req.Locale,
		CallbackURL:    s.cfg.CallbackURL,
		Partner:        s.cfg.PartnerCode,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if s.cfg.APIToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIToken)
	}
	if s.cfg.APIKey != "" {
		httpReq.Header.Set("X-API-Key", s.cfg.APIKey)
	}

	log.Info().
		Str("session_id", req.SessionID).
		Str("endpoint", s.cfg.Endpoint).
		Msg("requesting provider session")

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.ObserveBroker("error", elapsed)
		log.Error().
			Err(err).
			Str("session_id", req.SessionID).
			Dur("elapsed", elapsed).
			Msg("provider session request error")
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponseBytes+1))
	if err != nil {
		s.metrics.ObserveBroker("error", elapsed)
		return nil, fmt.Errorf("read provider response: %w", err)
	}
	if len(respBody) > maxProviderResponseBytes {
		s.metrics.ObserveBroker("invalid", elapsed)
		log.Error().
			Str("session_id", req.SessionID).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("provider session response too large")
		return nil, fmt.Errorf("provider response exceeds %d bytes", maxProviderResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.metrics.ObserveBroker("rejected", elapsed)
		log.Error().
			Str("session_id", req.SessionID).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("provider session request failed")
		return nil, fmt.Errorf("provider responded with status %d: %s", resp.StatusCode, truncate(string(respBody), maxUpstreamBodyLog))
	}

	issued, err := parseIssueResponse(respBody, s.cfg.EmptyResponsePolicy, s.newID)
	if err != nil {
		s.metrics.ObserveBroker("invalid", elapsed)
		log.Error().
			Err(err).
			Str("session_id", req.SessionID).
			Dur("elapsed", elapsed).
			Msg("provider session response unusable")
		return nil, err
	}

	s.metrics.ObserveBroker("ok", elapsed)
	log.Info().
		Str("session_id", req.SessionID).
		Str("token", util.MaskToken(issued.SessionToken)).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("provider session issued")

	return issued, nil
}

// parseIssueResponse maps the provider's varying field names onto
// IssuedSession. The first non-empty field in each priority list wins. When
// only one of token and guid is present the other is filled with a fresh
// id; when both are absent the policy decides. Under the synthesize policy
// a body that is not JSON counts as carrying no fields.
func parseIssueResponse(body []byte, policy string, newID func() string) (*IssuedSession, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(body)) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(body))
		decoder.UseNumber()
		var decoded any
		if err := decoder.Decode(&decoded); err != nil {
			if policy != config.EmptyResponseSynthesize {
				return nil, fmt.Errorf("decode provider response: %w", err)
			}
			log.Warn().Err(err).Msg("provider response is not json, reading it as empty")
		} else if obj, ok := decoded.(map[string]any); ok {
			fields = obj
		}
	}

	token := firstString(fields, tokenFields)
	guid := firstString(fields, guidFields)

	if token == "" && guid == "" {
		if policy != config.EmptyResponseSynthesize {
			return nil, ErrEmptyProviderResponse
		}
		log.Warn().Msg("provider response carried no credentials, synthesizing")
	}
	if token == "" {
		token = newID()
	}
	if guid == "" {
		guid = newID()
	}

	issued := &IssuedSession{
		SessionToken: token,
		GUID:         guid,
		Mode:         model.IssueModeLive,
	}
	if expires := firstString(fields, expiresFields); expires != "" {
		issued.ExpiresAt = &expires
	}
	return issued, nil
}

// firstString accepts strings and numbers. Numbers keep their JSON text.
func firstString(fields map[string]any, keys []string) string {
	for _, key := range keys {
		switch v := fields[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
