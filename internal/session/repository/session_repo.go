package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/expert-buddy/expertbuddy-backend/internal/session/domain"
)

const (
	sessionKeyPrefix = "session:client:" // Durable session record: session:client:{client_id}
	sessionTTL       = 30 * 24 * time.Hour
)

// SessionRepository persists the current session record as a JSON blob
// in Redis. One record per client handle; it is read once at manager
// init, rewritten on every mutation, and deleted on sign-out.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Save writes the session record, refreshing its TTL.
func (r *SessionRepository) Save(ctx context.Context, clientID string, s *domain.Session) error {
	if clientID == "" {
		return fmt.Errorf("client id is required")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.sessionKey(clientID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Load reads the session record for a client handle. A missing record
// is not an error condition distinct from "signed out": callers get
// domain.ErrNoSession.
func (r *SessionRepository) Load(ctx context.Context, clientID string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(clientID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &s, nil
}

// Delete removes the session record. Idempotent: deleting an absent
// record is a no-op.
func (r *SessionRepository) Delete(ctx context.Context, clientID string) error {
	if err := r.client.Del(ctx, r.sessionKey(clientID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (r *SessionRepository) sessionKey(clientID string) string {
	return sessionKeyPrefix + clientID
}
