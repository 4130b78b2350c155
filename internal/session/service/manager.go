package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/expert-buddy/expertbuddy-backend/internal/identity"
	"github.com/expert-buddy/expertbuddy-backend/internal/profile"
	"github.com/expert-buddy/expertbuddy-backend/internal/session/domain"
	"github.com/expert-buddy/expertbuddy-backend/internal/session/repository"
	"github.com/expert-buddy/expertbuddy-backend/internal/storage"
)

// State is the session lifecycle state. Authenticating is the only
// transient state; it lasts for the duration of the provider call.
type State string

const (
	StateAnonymous         State = "anonymous"
	StateAuthenticating    State = "authenticating"
	StateProfileIncomplete State = "profile_incomplete"
	StateProfileComplete   State = "profile_complete"
)

// Manager is the single source of truth for who the current user is
// and what they may do. It is explicitly constructed and injected;
// there is no package-level session.
type Manager struct {
	clientID string
	provider identity.Provider
	profiles profile.Store
	sessions *repository.SessionRepository
	avatars  storage.BinaryStore

	mu             sync.Mutex
	current        *domain.Session
	authenticating bool
	disposed       bool
	reconcileFns   []func(domain.Session)
}

// Deps are the manager's collaborators. Avatars may be nil when no
// binary store is configured; UploadAvatar then fails with ErrUpload.
type Deps struct {
	ClientID string
	Provider identity.Provider
	Profiles profile.Store
	Sessions *repository.SessionRepository
	Avatars  storage.BinaryStore
}

func NewManager(d Deps) *Manager {
	return &Manager{
		clientID: d.ClientID,
		provider: d.Provider,
		profiles: d.Profiles,
		sessions: d.Sessions,
		avatars:  d.Avatars,
	}
}

// Init rehydrates the session from the durable store and trusts it
// immediately, then kicks an asynchronous role reconciliation. The
// durable copy is stale-tolerant: callers may observe the pre-reconcile
// role briefly.
func (m *Manager) Init(ctx context.Context) error {
	s, err := m.sessions.Load(ctx, m.clientID)
	if err != nil && !errors.Is(err, domain.ErrNoSession) {
		return fmt.Errorf("rehydrate session: %w", err)
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.provider.OnIdentityChange(func(userID string) {
		m.handleIdentityChange(userID)
	})

	if s != nil {
		go func() {
			rctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := m.ResolveRole(rctx); err != nil {
				log.Printf("session: startup reconciliation: %v", err)
			}
		}()
	}

	return nil
}

// Dispose detaches the manager. Identity-change notifications arriving
// afterward are ignored.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
}

// Current returns a copy of the active session, or nil.
func (m *Manager) Current() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	out := *m.current
	return &out
}

// Authenticated reports whether a session exists.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// State reports the lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.authenticating:
		return StateAuthenticating
	case m.current == nil:
		return StateAnonymous
	case m.current.ProfileComplete:
		return StateProfileComplete
	default:
		return StateProfileIncomplete
	}
}

// OnReconcile registers an observer fired after a background
// reconciliation changes the session, so consumers can react instead of
// having state mutate silently underneath them.
func (m *Manager) OnReconcile(fn func(domain.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcileFns = append(m.reconcileFns, fn)
}

// SignIn verifies credentials with the identity provider, merges the
// profile store's fields, and makes the result the current session.
// Prior state is untouched on failure.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	m.setAuthenticating(true)
	defer m.setAuthenticating(false)

	ident, err := m.provider.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, domain.ErrAuthentication
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	rec, err := m.profiles.Get(ctx, ident.UserID)
	if errors.Is(err, profile.ErrNotFound) {
		// Secondary key path: identities created before the profile
		// store held user ids.
		rec, err = m.profiles.GetByEmail(ctx, ident.Email)
	}
	if errors.Is(err, profile.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	s := sessionFromRecord(rec)
	s.ProfileComplete = s.Complete()

	if err := m.sessions.Save(ctx, m.clientID, s); err != nil {
		return nil, err
	}

	m.setCurrent(s)
	out := *s
	return &out, nil
}

// SignInWithProfile installs an already-resolved profile as the current
// session without a provider round trip.
func (m *Manager) SignInWithProfile(ctx context.Context, rec *profile.Record) (*domain.Session, error) {
	s := sessionFromRecord(rec)
	s.ProfileComplete = s.Complete()

	if err := m.sessions.Save(ctx, m.clientID, s); err != nil {
		return nil, err
	}

	m.setCurrent(s)
	out := *s
	return &out, nil
}

// SignUp registers a new identity, writes the initial profile record
// with the chosen role, and signs the user in. The new session starts
// with an incomplete profile.
func (m *Manager) SignUp(ctx context.Context, reg domain.Registration) (*domain.Session, error) {
	if reg.Email == "" || reg.Password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	if !reg.Role.Valid() {
		reg.Role = domain.RoleClient
	}

	m.setAuthenticating(true)
	defer m.setAuthenticating(false)

	taken, err := m.provider.EmailInUse(ctx, reg.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, domain.ErrConflict
	}

	ident, err := m.provider.CreateIdentity(ctx, reg.Email, reg.Password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	rec := &profile.Record{
		UserID:    ident.UserID,
		Email:     ident.Email,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Role:      string(reg.Role),
	}
	if err := m.profiles.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("write initial profile: %w", err)
	}

	s := sessionFromRecord(rec)
	s.ProfileComplete = false

	if err := m.sessions.Save(ctx, m.clientID, s); err != nil {
		return nil, err
	}

	m.setCurrent(s)
	out := *s
	return &out, nil
}

// SignOut clears the in-memory session and the durable record.
// Idempotent: with no active session it is a no-op.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()

	if s == nil {
		return nil
	}

	if err := m.provider.DestroySession(ctx, s.UserID); err != nil {
		log.Printf("session: destroy provider session: %v", err)
	}

	if err := m.sessions.Delete(ctx, m.clientID); err != nil {
		return err
	}

	m.setCurrent(nil)
	return nil
}

// UpdateProfile merges the partial update into the current session,
// writes the profile store and the durable record, and marks the
// profile complete. Completeness is sticky from here on.
func (m *Manager) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.Session, error) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return nil, domain.ErrNoSession
	}
	next := *m.current
	m.mu.Unlock()

	upd.Apply(&next)
	next.ProfileComplete = true
	next.UpdatedAt = time.Now().UTC()

	if err := m.profiles.Upsert(ctx, recordFromSession(&next)); err != nil {
		return nil, fmt.Errorf("persist profile: %w", err)
	}
	if err := m.sessions.Save(ctx, m.clientID, &next); err != nil {
		// Authoritative store already holds the new fields; the stale
		// durable record stands until the next successful write or
		// sign-in.
		log.Printf("session: durable record lags profile store for user %s: %v", next.UserID, err)
		return nil, err
	}

	m.setCurrent(&next)
	out := next
	return &out, nil
}

// UploadAvatar sends the image to the binary store and records the
// returned URL. On failure the prior avatar URL is left untouched.
func (m *Manager) UploadAvatar(ctx context.Context, body io.Reader, size int64, contentType string) (string, error) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return "", domain.ErrNoSession
	}
	next := *m.current
	m.mu.Unlock()

	if m.avatars == nil {
		return "", fmt.Errorf("%w: no binary store configured", domain.ErrUpload)
	}

	path := fmt.Sprintf("avatars/%s/%s%s", next.UserID, uuid.New().String(), extensionFor(contentType))
	url, err := m.avatars.Upload(ctx, path, body, size, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}

	next.Profile.AvatarURL = url
	next.UpdatedAt = time.Now().UTC()

	if err := m.profiles.Upsert(ctx, recordFromSession(&next)); err != nil {
		return "", fmt.Errorf("persist avatar url: %w", err)
	}
	if err := m.sessions.Save(ctx, m.clientID, &next); err != nil {
		log.Printf("session: durable record lags profile store for user %s: %v", next.UserID, err)
		return "", err
	}

	m.setCurrent(&next)
	return url, nil
}

// ResolveRole re-reads the authoritative role from the profile store
// and overwrites the cached copy if it differs. This is a
// reconciliation pass, not a primary write path: failures leave the
// stale role in effect.
func (m *Manager) ResolveRole(ctx context.Context) error {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return nil
	}
	next := *m.current
	m.mu.Unlock()

	role, err := m.profiles.GetRole(ctx, next.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrReconcile, err)
	}

	if role == string(next.Role) {
		return nil
	}

	next.Role = domain.Role(role)
	next.UpdatedAt = time.Now().UTC()

	if err := m.sessions.Save(ctx, m.clientID, &next); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrReconcile, err)
	}

	m.setCurrent(&next)

	m.mu.Lock()
	fns := make([]func(domain.Session), len(m.reconcileFns))
	copy(fns, m.reconcileFns)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}

	return nil
}

func (m *Manager) handleIdentityChange(userID string) {
	m.mu.Lock()
	if m.disposed || m.current == nil || m.current.UserID != userID {
		m.mu.Unlock()
		return
	}
	m.current = nil
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.sessions.Delete(ctx, m.clientID); err != nil {
		log.Printf("session: clear after identity change: %v", err)
	}
}

func (m *Manager) setCurrent(s *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
}

func (m *Manager) setAuthenticating(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authenticating = v
}

func sessionFromRecord(rec *profile.Record) *domain.Session {
	now := time.Now().UTC()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	return &domain.Session{
		UserID:    rec.UserID,
		Email:     rec.Email,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Role:      domain.Role(rec.Role),
		Profile: domain.Profile{
			Phone:     rec.Phone,
			Location:  rec.Location,
			Bio:       rec.Bio,
			AvatarURL: rec.AvatarURL,
			Expertise: rec.Expertise,
		},
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
}

func recordFromSession(s *domain.Session) *profile.Record {
	return &profile.Record{
		UserID:    s.UserID,
		Email:     s.Email,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Role:      string(s.Role),
		Phone:     s.Profile.Phone,
		Location:  s.Profile.Location,
		Bio:       s.Profile.Bio,
		AvatarURL: s.Profile.AvatarURL,
		Expertise: s.Profile.Expertise,
	}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
