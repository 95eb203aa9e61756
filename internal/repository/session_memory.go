package repository

import (
	"context"
	"sync"
	"time"

	"github.com/selfie-proxy/server-go/internal/model"
)

// MemorySessionRepository holds sessions in process memory. With a positive
// ttl, sessions older than ttl are invisible to lookups and are dropped by
// DeleteExpired.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]model.VerificationSession
	ttl      time.Duration
	now      func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]model.VerificationSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *MemorySessionRepository) expired(s *model.VerificationSession) bool {
	return r.ttl > 0 && r.now().Sub(s.CreatedAt) > r.ttl
}

func (r *MemorySessionRepository) Create(_ context.Context, session *model.VerificationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *MemorySessionRepository) FindByID(_ context.Context, id string) (*model.VerificationSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok || r.expired(&session) {
		return nil, nil
	}
	return &session, nil
}

func (r *MemorySessionRepository) Update(_ context.Context, session *model.VerificationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.sessions[session.ID]
	if !ok || r.expired(&existing) {
		return ErrNotFound
	}
	r.sessions[session.ID] = *session
	return nil
}

// DeleteExpired removes sessions past the ttl and reports how many went.
func (r *MemorySessionRepository) DeleteExpired(_ context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, session := range r.sessions {
		if r.expired(&session) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}
