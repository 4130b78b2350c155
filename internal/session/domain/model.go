package domain

import "time"

// Role is the client/expert distinction governing which views a user
// may access. It is chosen at registration and never user-changeable
// afterward; the only writer past signup is the reconciliation pass,
// which copies the authoritative store's value over the cached one.
type Role string

const (
	RoleClient Role = "client"
	RoleExpert Role = "expert"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleExpert
}

// Profile holds the optional, independently empty-able profile fields.
type Profile struct {
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Expertise string `json:"expertise,omitempty"`
}

// Session is the record of the currently signed-in user and derived
// access flags. UserID is assigned by the identity provider at signup
// and is immutable; it is the sole join key against the profile store.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Role      Role      `json:"role"`
	Profile   Profile   `json:"profile"`
	// ProfileComplete is sticky: once an explicit profile update
	// succeeds it stays true until sign-out, regardless of field
	// content.
	ProfileComplete bool      `json:"profile_complete"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Complete recomputes profile completeness from field content: true iff
// at least one of phone, location, bio is non-empty.
func (s *Session) Complete() bool {
	return s.Profile.Phone != "" || s.Profile.Location != "" || s.Profile.Bio != ""
}

// ProfileUpdate carries a partial profile mutation. Nil fields are left
// untouched by the merge.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Location  *string `json:"location,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Expertise *string `json:"expertise,omitempty"`
}

// Apply merges the update into the session in place.
func (u *ProfileUpdate) Apply(s *Session) {
	if u.FirstName != nil {
		s.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		s.LastName = *u.LastName
	}
	if u.Phone != nil {
		s.Profile.Phone = *u.Phone
	}
	if u.Location != nil {
		s.Profile.Location = *u.Location
	}
	if u.Bio != nil {
		s.Profile.Bio = *u.Bio
	}
	if u.Expertise != nil {
		s.Profile.Expertise = *u.Expertise
	}
}

// Registration is the signup input.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      Role
}
