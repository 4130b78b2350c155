package profile

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore backs the profile store with a single authoritative
// Postgres table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	SELECT user_id, email, first_name, last_name, role,
	       phone, location, bio, avatar_url, expertise,
	       created_at, updated_at
	FROM profiles
`

// Get retrieves a profile by the identity provider's user id.
func (s *PostgresStore) Get(ctx context.Context, userID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE user_id = $1`, userID)
	return scanRecord(row)
}

// GetByEmail retrieves a profile by email; used only where a user-id
// lookup is unavailable.
func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE email = $1`, email)
	return scanRecord(row)
}

// Upsert creates or replaces the profile row. Role is written on
// insert only; post-signup role changes go through out-of-band
// intervention, never this path.
func (s *PostgresStore) Upsert(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO profiles (user_id, email, first_name, last_name, role,
		                      phone, location, bio, avatar_url, expertise)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    phone = EXCLUDED.phone,
		    location = EXCLUDED.location,
		    bio = EXCLUDED.bio,
		    avatar_url = EXCLUDED.avatar_url,
		    expertise = EXCLUDED.expertise,
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		rec.UserID,
		rec.Email,
		rec.FirstName,
		rec.LastName,
		rec.Role,
		rec.Phone,
		rec.Location,
		rec.Bio,
		rec.AvatarURL,
		rec.Expertise,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}

// GetRole fetches only the authoritative role column.
func (s *PostgresStore) GetRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM profiles WHERE user_id = $1`, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var firstName, lastName, phone, location, bio, avatarURL, expertise sql.NullString

	err := row.Scan(
		&rec.UserID,
		&rec.Email,
		&firstName,
		&lastName,
		&rec.Role,
		&phone,
		&location,
		&bio,
		&avatarURL,
		&expertise,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.FirstName = firstName.String
	rec.LastName = lastName.String
	rec.Phone = phone.String
	rec.Location = location.String
	rec.Bio = bio.String
	rec.AvatarURL = avatarURL.String
	rec.Expertise = expertise.String

	return &rec, nil
}
