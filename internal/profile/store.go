package profile

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("profile not found")

// Record is the authoritative profile row, keyed by the identity
// provider's user id. Email is a secondary lookup key only.
type Record struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Email     string    `json:"email" db:"email"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Role      string    `json:"role" db:"role"`
	Phone     string    `json:"phone" db:"phone"`
	Location  string    `json:"location" db:"location"`
	Bio       string    `json:"bio" db:"bio"`
	AvatarURL string    `json:"avatar_url" db:"avatar_url"`
	Expertise string    `json:"expertise" db:"expertise"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Store is the remote profile store contract: a document keyed by
// user id with an idempotent upsert.
type Store interface {
	Get(ctx context.Context, userID string) (*Record, error)
	GetByEmail(ctx context.Context, email string) (*Record, error)
	Upsert(ctx context.Context, rec *Record) error
	// GetRole fetches only the authoritative role; used by the
	// reconciliation pass.
	GetRole(ctx context.Context, userID string) (string, error)
}
