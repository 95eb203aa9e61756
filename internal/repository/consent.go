package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/selfie-proxy/server-go/internal/database"
	"github.com/selfie-proxy/server-go/internal/model"
)

type consentRepo struct {
	db database.DBTX
}

func NewConsentRepository(db *sqlx.DB) ConsentRepository {
	return &consentRepo{db: db}
}

func (r *consentRepo) Create(ctx context.Context, record *model.ConsentRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO consents (id, user_id, appointment_ref, consent_text, consent_version, user_agent, client_ip, device, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, record.ID, record.UserID, record.AppointmentRef, record.ConsentText, record.ConsentVersion,
		record.UserAgent, record.ClientIP, record.Device, record.RecordedAt)
	return err
}

func (r *consentRepo) FindByID(ctx context.Context, id string) (*model.ConsentRecord, error) {
	var record model.ConsentRecord
	err := r.db.GetContext(ctx, &record, `SELECT * FROM consents WHERE id = $1`, id)
	return HandleNotFound(&record, err)
}

func (r *consentRepo) List(ctx context.Context) ([]model.ConsentRecord, error) {
	records := []model.ConsentRecord{}
	err := r.db.SelectContext(ctx, &records, `SELECT * FROM consents ORDER BY recorded_at`)
	if err != nil {
		return nil, err
	}
	return records, nil
}
