package service

import (
	"context"
	"sync"

	"github.com/expert-buddy/expertbuddy-backend/internal/identity"
	"github.com/expert-buddy/expertbuddy-backend/internal/profile"
	"github.com/expert-buddy/expertbuddy-backend/internal/session/repository"
	"github.com/expert-buddy/expertbuddy-backend/internal/storage"
)

// Registry hands out one Manager per client handle, creating and
// initializing it on first use. Each manager rehydrates its own durable
// record, so a returning client resumes its session.
type Registry struct {
	provider identity.Provider
	profiles profile.Store
	sessions *repository.SessionRepository
	avatars  storage.BinaryStore

	mu       sync.Mutex
	managers map[string]*Manager
}

func NewRegistry(provider identity.Provider, profiles profile.Store, sessions *repository.SessionRepository, avatars storage.BinaryStore) *Registry {
	return &Registry{
		provider: provider,
		profiles: profiles,
		sessions: sessions,
		avatars:  avatars,
		managers: make(map[string]*Manager),
	}
}

// Get returns the manager for a client handle, initializing it if this
// is the first request from that client since startup.
func (r *Registry) Get(ctx context.Context, clientID string) (*Manager, error) {
	r.mu.Lock()
	if m, ok := r.managers[clientID]; ok {
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()

	m := NewManager(Deps{
		ClientID: clientID,
		Provider: r.provider,
		Profiles: r.profiles,
		Sessions: r.sessions,
		Avatars:  r.avatars,
	})
	if err := m.Init(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have initialized the same client concurrently.
	if existing, ok := r.managers[clientID]; ok {
		m.Dispose()
		return existing, nil
	}
	r.managers[clientID] = m
	return m, nil
}

// Dispose tears down every manager.
func (r *Registry) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, m := range r.managers {
		m.Dispose()
		delete(r.managers, id)
	}
}

// Each runs fn for every live manager; used by the reconciliation
// scheduler.
func (r *Registry) Each(fn func(*Manager)) {
	r.mu.Lock()
	managers := make([]*Manager, 0, len(r.managers))
	for _, m := range r.managers {
		managers = append(managers, m)
	}
	r.mu.Unlock()

	for _, m := range managers {
		fn(m)
	}
}
