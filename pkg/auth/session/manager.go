// Package session tracks server-side login sessions in redis. A JWT is only
// honored while its session key is still present, which makes logout and
// forced revocation immediate instead of waiting for token expiry.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/handcrafted-haven/marketplace-backend/pkg/enums"
	"github.com/handcrafted-haven/marketplace-backend/pkg/redis"
)

// Record is the payload stored per session key.
type Record struct {
	UserID    uuid.UUID      `json:"user_id"`
	Role      enums.UserRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store is the redis surface the manager needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Manager creates, validates and revokes sessions.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager builds a session manager with the given TTL.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

func sessionKey(sessionID uuid.UUID) string {
	return redis.Key(redis.PrefixSession, sessionID.String())
}

// Create registers a new session and returns its ID.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID, role enums.UserRole) (uuid.UUID, error) {
	sessionID := uuid.New()

	record := Record{
		UserID:    userID,
		Role:      role,
		CreatedAt: m.now().UTC(),
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding session record: %w", err)
	}

	if err := m.store.Set(ctx, sessionKey(sessionID), string(payload), m.ttl); err != nil {
		return uuid.Nil, fmt.Errorf("storing session: %w", err)
	}

	return sessionID, nil
}

// Validate returns the session record when the session is still live. The
// stored user must match the token's subject.
func (m *Manager) Validate(ctx context.Context, sessionID, userID uuid.UUID) (*Record, error) {
	raw, found, err := m.store.Get(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if !found {
		return nil, nil
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("decoding session record: %w", err)
	}
	if record.UserID != userID {
		return nil, nil
	}

	return &record, nil
}

// Revoke deletes a session, ending it immediately.
func (m *Manager) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	return m.store.Del(ctx, sessionKey(sessionID))
}
