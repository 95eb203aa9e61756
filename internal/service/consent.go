package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"github.com/rs/zerolog/log"

	apperrors "github.com/selfie-proxy/server-go/internal/errors"
	"github.com/selfie-proxy/server-go/internal/metrics"
	"github.com/selfie-proxy/server-go/internal/model"
	"github.com/selfie-proxy/server-go/internal/repository"
)

const minConsentTextLength = 10

type ConsentService struct {
	repo    repository.ConsentRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewConsentService(repo repository.ConsentRepository, m *metrics.Metrics) *ConsentService {
	return &ConsentService{
		repo:    repo,
		metrics: m,
		now:     time.Now,
	}
}

// Record validates and appends one consent. The first failing field is
// reported and nothing is written.
func (s *ConsentService) Record(ctx context.Context, params model.CreateConsentParams) (*model.ConsentRecord, error) {
	if err := validateConsent(params); err != nil {
		return nil, err
	}

	record := &model.ConsentRecord{
		ID:             uuid.NewString(),
		UserID:         params.UserID,
		AppointmentRef: params.AppointmentRef,
		ConsentText:    params.ConsentText,
		ConsentVersion: params.ConsentVersion,
		UserAgent:      params.UserAgent,
		ClientIP:       params.ClientIP,
		Device:         ParseDevice(params.UserAgent),
		RecordedAt:     s.now().UTC(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, apperrors.Database(err)
	}

	s.metrics.IncConsent()
	log.Debug().Str("consent_id", record.ID).Str("user_id", record.UserID).Msg("consent recorded")
	return record, nil
}

func validateConsent(p model.CreateConsentParams) error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return apperrors.MissingRequired("userId")
	case strings.TrimSpace(p.AppointmentRef) == "":
		return apperrors.MissingRequired("appointmentRef")
	case strings.TrimSpace(p.ConsentText) == "":
		return apperrors.MissingRequired("consentText")
	case utf8.RuneCountInString(p.ConsentText) < minConsentTextLength:
		return apperrors.InvalidInput("consentText", "must be at least 10 characters")
	case strings.TrimSpace(p.ConsentVersion) == "":
		return apperrors.MissingRequired("consentVersion")
	}
	return nil
}

// ParseDevice summarizes a User-Agent string. An empty input yields the
// zero value.
func ParseDevice(userAgent string) model.DeviceInfo {
	if userAgent == "" {
		return model.DeviceInfo{}
	}
	ua := useragent.New(userAgent)
	browser, version := ua.Browser()
	if version != "" {
		browser += " " + version
	}
	return model.DeviceInfo{
		Browser: browser,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}
