package experts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("expert not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Expert is the public directory card backed by the expert's profile.
type Expert struct {
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Headline   string    `json:"headline"`
	Category   string    `json:"category"`
	Location   string    `json:"location"`
	HourlyRate int       `json:"hourly_rate_cents"`
	Rating     float64   `json:"rating"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Offering is one line of an expert's rate card.
type Offering struct {
	ID          string    `json:"id"`
	ExpertID    string    `json:"expert_id"`
	Name        string    `json:"name"`
	DurationMin int       `json:"duration_minutes"`
	PriceCents  int       `json:"price_cents"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// AvailabilityRule is one weekday's bookable slots, stored as labels
// ("9:00 AM") the way the product presents them.
type AvailabilityRule struct {
	Weekday int      `json:"weekday"`
	Slots   []string `json:"slots"`
}

// Template is a reusable message the expert sends to clients.
type Template struct {
	ID        string    `json:"id"`
	ExpertID  string    `json:"expert_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Directory lists expert cards, optionally filtered by category and
// location.
func (r *Repo) Directory(ctx context.Context, category, location string) ([]Expert, error) {
	const q = `
select user_id, name, headline, category, location, hourly_rate_cents, rating, avatar_url, created_at, updated_at
from experts
where ($1 = '' or category = $1)
  and ($2 = '' or location = $2)
order by rating desc, created_at desc;
`
	rows, err := r.db.Query(ctx, q, category, location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Expert, 0, 16)
	for rows.Next() {
		var e Expert
		if err := rows.Scan(&e.UserID, &e.Name, &e.Headline, &e.Category, &e.Location,
			&e.HourlyRate, &e.Rating, &e.AvatarURL, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns one expert card.
func (r *Repo) Get(ctx context.Context, userID string) (*Expert, error) {
	const q = `
select user_id, name, headline, category, location, hourly_rate_cents, rating, avatar_url, created_at, updated_at
from experts
where user_id = $1;
`
	var e Expert
	err := r.db.QueryRow(ctx, q, userID).Scan(&e.UserID, &e.Name, &e.Headline, &e.Category,
		&e.Location, &e.HourlyRate, &e.Rating, &e.AvatarURL, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertCard creates or updates the caller's own directory card.
func (r *Repo) UpsertCard(ctx context.Context, e *Expert) error {
	const q = `
insert into experts (user_id, name, headline, category, location, hourly_rate_cents, avatar_url)
values ($1, $2, $3, $4, $5, $6, $7)
on conflict (user_id) do update
set name = excluded.name,
    headline = excluded.headline,
    category = excluded.category,
    location = excluded.location,
    hourly_rate_cents = excluded.hourly_rate_cents,
    avatar_url = excluded.avatar_url,
    updated_at = now()
returning rating, created_at, updated_at;
`
	return r.db.QueryRow(ctx, q, e.UserID, e.Name, e.Headline, e.Category, e.Location,
		e.HourlyRate, e.AvatarURL).Scan(&e.Rating, &e.CreatedAt, &e.UpdatedAt)
}

// ListOfferings returns an expert's rate card.
func (r *Repo) ListOfferings(ctx context.Context, expertID string) ([]Offering, error) {
	const q = `
select id::text, expert_id, name, duration_minutes, price_cents, description, created_at
from offerings
where expert_id = $1
order by price_cents asc;
`
	rows, err := r.db.Query(ctx, q, expertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Offering, 0, 8)
	for rows.Next() {
		var o Offering
		if err := rows.Scan(&o.ID, &o.ExpertID, &o.Name, &o.DurationMin, &o.PriceCents,
			&o.Description, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateOffering adds one rate-card line.
func (r *Repo) CreateOffering(ctx context.Context, o *Offering) error {
	if o.Name == "" {
		return fmt.Errorf("offering name required")
	}
	const q = `
insert into offerings (expert_id, name, duration_minutes, price_cents, description)
values ($1, $2, $3, $4, $5)
returning id::text, created_at;
`
	return r.db.QueryRow(ctx, q, o.ExpertID, o.Name, o.DurationMin, o.PriceCents,
		o.Description).Scan(&o.ID, &o.CreatedAt)
}

// DeleteOffering removes a rate-card line; only the owning expert may.
func (r *Repo) DeleteOffering(ctx context.Context, expertID, offeringID string) (bool, error) {
	const q = `delete from offerings where id = $1::uuid and expert_id = $2;`
	tag, err := r.db.Exec(ctx, q, offeringID, expertID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetAvailability replaces the expert's weekly availability rules.
func (r *Repo) SetAvailability(ctx context.Context, expertID string, rules []AvailabilityRule) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `delete from availability where expert_id = $1;`, expertID); err != nil {
		return err
	}

	const ins = `insert into availability (expert_id, weekday, slots) values ($1, $2, $3);`
	for _, rule := range rules {
		if rule.Weekday < 0 || rule.Weekday > 6 {
			return fmt.Errorf("weekday out of range: %d", rule.Weekday)
		}
		if _, err := tx.Exec(ctx, ins, expertID, rule.Weekday, rule.Slots); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetAvailability returns the expert's weekly rules ordered by weekday.
func (r *Repo) GetAvailability(ctx context.Context, expertID string) ([]AvailabilityRule, error) {
	const q = `
select weekday, slots from availability
where expert_id = $1
order by weekday;
`
	rows, err := r.db.Query(ctx, q, expertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AvailabilityRule, 0, 7)
	for rows.Next() {
		var rule AvailabilityRule
		if err := rows.Scan(&rule.Weekday, &rule.Slots); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// ListTemplates returns the expert's saved message templates.
func (r *Repo) ListTemplates(ctx context.Context, expertID string) ([]Template, error) {
	const q = `
select id::text, expert_id, title, body, created_at
from message_templates
where expert_id = $1
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q, expertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Template, 0, 8)
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.ExpertID, &t.Title, &t.Body, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTemplate saves a message template.
func (r *Repo) CreateTemplate(ctx context.Context, t *Template) error {
	if t.Title == "" {
		return fmt.Errorf("template title required")
	}
	const q = `
insert into message_templates (expert_id, title, body)
values ($1, $2, $3)
returning id::text, created_at;
`
	return r.db.QueryRow(ctx, q, t.ExpertID, t.Title, t.Body).Scan(&t.ID, &t.CreatedAt)
}

// DeleteTemplate removes a template; only the owning expert may.
func (r *Repo) DeleteTemplate(ctx context.Context, expertID, templateID string) (bool, error) {
	const q = `delete from message_templates where id = $1::uuid and expert_id = $2;`
	tag, err := r.db.Exec(ctx, q, templateID, expertID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
