package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider is an in-memory email/password provider for development
// and tests. Passwords are bcrypt-hashed; ids are uuids minted at
// registration.
type LocalProvider struct {
	mu        sync.Mutex
	byEmail   map[string]*localRecord
	listeners []func(userID string)
}

type localRecord struct {
	id   string
	hash []byte
}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{byEmail: make(map[string]*localRecord)}
}

func (p *LocalProvider) VerifyCredentials(ctx context.Context, email, password string) (*Identity, error) {
	p.mu.Lock()
	rec, ok := p.byEmail[normalize(email)]
	p.mu.Unlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &Identity{UserID: rec.id, Email: normalize(email)}, nil
}

func (p *LocalProvider) CreateIdentity(ctx context.Context, email, password string) (*Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	key := normalize(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byEmail[key]; exists {
		return nil, ErrEmailTaken
	}

	rec := &localRecord{id: uuid.New().String(), hash: hash}
	p.byEmail[key] = rec
	return &Identity{UserID: rec.id, Email: key}, nil
}

func (p *LocalProvider) EmailInUse(ctx context.Context, email string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byEmail[normalize(email)]
	return ok, nil
}

func (p *LocalProvider) DestroySession(ctx context.Context, userID string) error {
	return nil
}

func (p *LocalProvider) OnIdentityChange(fn func(userID string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// NotifyIdentityChange simulates an external invalidation; used by
// tests exercising the push path.
func (p *LocalProvider) NotifyIdentityChange(userID string) {
	p.mu.Lock()
	listeners := make([]func(string), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(userID)
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
