package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/selfie-proxy/server-go/internal/database"
	"github.com/selfie-proxy/server-go/internal/model"
)

type callbackRepo struct {
	db database.DBTX
}

func NewCallbackRepository(db *sqlx.DB) CallbackRepository {
	return &callbackRepo{db: db}
}

func (r *callbackRepo) Create(ctx context.Context, record *model.CallbackRecord) error {
	body := []byte(record.Body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO callbacks (id, body, headers, received_at)
		VALUES ($1, $2, $3, $4)
	`, record.ID, body, record.Headers, record.ReceivedAt)
	return err
}

func (r *callbackRepo) List(ctx context.Context) ([]model.CallbackRecord, error) {
	records := []model.CallbackRecord{}
	err := r.db.SelectContext(ctx, &records, `SELECT * FROM callbacks ORDER BY received_at`)
	if err != nil {
		return nil, err
	}
	return records, nil
}
