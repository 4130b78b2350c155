package profile

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a map-backed Store for development and tests.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Record)}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rows[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec
	return &out, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.rows {
		if strings.EqualFold(rec.Email, email) {
			out := rec
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Upsert(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.rows[rec.UserID]; ok {
		rec.CreatedAt = existing.CreatedAt
		// Role is insert-only, mirroring the Postgres upsert.
		rec.Role = existing.Role
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	s.rows[rec.UserID] = *rec
	return nil
}

func (s *MemoryStore) GetRole(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rows[userID]
	if !ok {
		return "", ErrNotFound
	}
	return rec.Role, nil
}

// SetRole overrides the stored role directly; stands in for the
// out-of-band intervention path in tests.
func (s *MemoryStore) SetRole(userID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.rows[userID]; ok {
		rec.Role = role
		s.rows[userID] = rec
	}
}
