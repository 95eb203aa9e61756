package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/selfie-proxy/server-go/internal/database"
	"github.com/selfie-proxy/server-go/internal/model"
)

type sessionRepo struct {
	db database.DBTX
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *model.VerificationSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_sessions (
			id, user_id, customer_name, customer_email, appointment_ref, locale, status,
			provider_session_token, provider_guid, provider_expires_at, is_mock, result,
			created_at, issued_at, finished_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, s.ID, s.UserID, s.CustomerName, s.CustomerEmail, s.AppointmentRef, s.Locale, s.Status,
		s.ProviderSessionToken, s.ProviderGUID, s.ProviderExpiresAt, s.IsMock, nullableJSON(s.Result),
		s.CreatedAt, s.IssuedAt, s.FinishedAt)
	return err
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.VerificationSession, error) {
	var session model.VerificationSession
	err := r.db.GetContext(ctx, &session, `SELECT * FROM verification_sessions WHERE id = $1`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Update(ctx context.Context, s *model.VerificationSession) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE verification_sessions SET
			status = $2,
			provider_session_token = $3,
			provider_guid = $4,
			provider_expires_at = $5,
			is_mock = $6,
			result = $7,
			issued_at = $8,
			finished_at = $9
		WHERE id = $1
	`, s.ID, s.Status, s.ProviderSessionToken, s.ProviderGUID, s.ProviderExpiresAt, s.IsMock,
		nullableJSON(s.Result), s.IssuedAt, s.FinishedAt)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
