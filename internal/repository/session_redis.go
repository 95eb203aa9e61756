package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/selfie-proxy/server-go/internal/model"
	"github.com/selfie-proxy/server-go/internal/redis"
)

type redisSessionRepo struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewRedisSessionRepository stores each session as a JSON string. A ttl of
// zero keeps sessions until they are deleted by hand.
func NewRedisSessionRepository(client goredis.Cmdable, ttl time.Duration) SessionRepository {
	return &redisSessionRepo{client: client, ttl: ttl}
}

func (r *redisSessionRepo) Create(ctx context.Context, session *model.VerificationSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redis.SessionKey(session.ID), data, r.ttl).Err()
}

func (r *redisSessionRepo) FindByID(ctx context.Context, id string) (*model.VerificationSession, error) {
	data, err := r.client.Get(ctx, redis.SessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session model.VerificationSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Update overwrites an existing key and keeps its remaining TTL.
func (r *redisSessionRepo) Update(ctx context.Context, session *model.VerificationSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	err = r.client.SetArgs(ctx, redis.SessionKey(session.ID), data, goredis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Err()
	if errors.Is(err, goredis.Nil) {
		return ErrNotFound
	}
	return err
}
