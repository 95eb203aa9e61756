package repository

import (
	"context"
	"errors"

	"github.com/selfie-proxy/server-go/internal/model"
)

// ErrNotFound is returned by Update when the record disappeared between
// lookup and write.
var ErrNotFound = errors.New("record not found")

type ConsentRepository interface {
	Create(ctx context.Context, record *model.ConsentRecord) error
	FindByID(ctx context.Context, id string) (*model.ConsentRecord, error)
	List(ctx context.Context) ([]model.ConsentRecord, error)
}

// SessionRepository returns (nil, nil) from FindByID for unknown ids.
type SessionRepository interface {
	Create(ctx context.Context, session *model.VerificationSession) error
	FindByID(ctx context.Context, id string) (*model.VerificationSession, error)
	Update(ctx context.Context, session *model.VerificationSession) error
}

type CallbackRepository interface {
	Create(ctx context.Context, record *model.CallbackRecord) error
	List(ctx context.Context) ([]model.CallbackRecord, error)
}
