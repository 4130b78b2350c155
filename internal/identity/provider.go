package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already in use")
	ErrIdentityNotFound   = errors.New("identity not found")
)

// Identity is the provider's view of a user: a stable opaque id plus
// the email it was registered with.
type Identity struct {
	UserID string
	Email  string
}

// Provider is the remote identity service contract. Any provider
// satisfying it is substitutable; the session manager never sees raw
// tokens or provider-specific types.
type Provider interface {
	// VerifyCredentials checks an email/password pair and returns the
	// matching identity, or ErrInvalidCredentials.
	VerifyCredentials(ctx context.Context, email, password string) (*Identity, error)

	// CreateIdentity registers a new email/password identity and
	// returns it, or ErrEmailTaken.
	CreateIdentity(ctx context.Context, email, password string) (*Identity, error)

	// EmailInUse reports whether an identity already exists for email.
	EmailInUse(ctx context.Context, email string) (bool, error)

	// DestroySession invalidates the provider-side session state for a
	// user (refresh token revocation and the like).
	DestroySession(ctx context.Context, userID string) error

	// OnIdentityChange registers a callback fired when a user's
	// identity is invalidated out of band (external sign-out, token
	// expiry). The callback receives the affected user id.
	OnIdentityChange(fn func(userID string))
}
