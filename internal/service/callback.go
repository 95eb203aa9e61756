package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/selfie-proxy/server-go/internal/errors"
	"github.com/selfie-proxy/server-go/internal/metrics"
	"github.com/selfie-proxy/server-go/internal/model"
	"github.com/selfie-proxy/server-go/internal/repository"
)

type CallbackService struct {
	repo    repository.CallbackRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewCallbackService(repo repository.CallbackRepository, m *metrics.Metrics) *CallbackService {
	return &CallbackService{
		repo:    repo,
		metrics: m,
		now:     time.Now,
	}
}

// Accept persists an already verified webhook delivery. A body that is not
// valid JSON is stored as an empty object.
func (s *CallbackService) Accept(ctx context.Context, raw []byte, headers http.Header) (*model.CallbackRecord, error) {
	body := json.RawMessage("{}")
	if len(raw) > 0 && json.Valid(raw) {
		body = append(json.RawMessage(nil), raw...)
	} else if len(raw) > 0 {
		log.Warn().Int("bytes", len(raw)).Msg("webhook body is not JSON, storing empty object")
	}

	record := &model.CallbackRecord{
		ID:         uuid.NewString(),
		Body:       body,
		Headers:    model.HeadersFromHTTP(headers),
		ReceivedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, apperrors.Database(err)
	}

	s.metrics.IncWebhook("accepted")
	return record, nil
}
