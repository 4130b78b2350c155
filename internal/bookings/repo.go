package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("booking not found")

const (
	StatusRequested = "requested"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Booking is a stored consultation request. There is no overlap
// detection and no payment state; a booking is a record, nothing more.
type Booking struct {
	ID           string    `json:"id"`
	ClientUserID string    `json:"client_user_id"`
	ExpertID     string    `json:"expert_id"`
	OfferingID   string    `json:"offering_id"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Slot         string    `json:"slot"` // display label, e.g. "9:00 AM"
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Create stores a new booking in requested state.
func (r *Repo) Create(ctx context.Context, b *Booking) error {
	if b.ExpertID == "" || b.OfferingID == "" || b.Date == "" || b.Slot == "" {
		return fmt.Errorf("expert, offering, date and slot are required")
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.Status = StatusRequested

	const q = `
insert into bookings (id, client_user_id, expert_id, offering_id, booking_date, slot,
                      contact_name, contact_email, contact_phone, notes, status)
values ($1::uuid, $2, $3, $4::uuid, $5::date, $6, $7, $8, $9, $10, $11)
returning created_at, updated_at;
`
	return r.db.QueryRow(ctx, q, b.ID, b.ClientUserID, b.ExpertID, b.OfferingID, b.Date,
		b.Slot, b.ContactName, b.ContactEmail, b.ContactPhone, b.Notes, b.Status).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

// ListByClient returns the caller's bookings, newest first.
func (r *Repo) ListByClient(ctx context.Context, clientUserID string) ([]Booking, error) {
	return r.list(ctx, `client_user_id`, clientUserID)
}

// ListByExpert returns bookings made against an expert, newest first.
func (r *Repo) ListByExpert(ctx context.Context, expertID string) ([]Booking, error) {
	return r.list(ctx, `expert_id`, expertID)
}

func (r *Repo) list(ctx context.Context, column, id string) ([]Booking, error) {
	q := fmt.Sprintf(`
select id::text, client_user_id, expert_id, offering_id::text, to_char(booking_date, 'YYYY-MM-DD'),
       slot, contact_name, contact_email, contact_phone, notes, status, created_at, updated_at
from bookings
where %s = $1
order by created_at desc;
`, column)

	rows, err := r.db.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Booking, 0, 16)
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.ClientUserID, &b.ExpertID, &b.OfferingID, &b.Date,
			&b.Slot, &b.ContactName, &b.ContactEmail, &b.ContactPhone, &b.Notes,
			&b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Confirm moves a requested booking to confirmed; only the booked
// expert may.
func (r *Repo) Confirm(ctx context.Context, expertID, bookingID string) (*Booking, error) {
	const q = `
update bookings
set status = $3, updated_at = now()
where id = $1::uuid and expert_id = $2 and status = $4
returning id::text, client_user_id, expert_id, offering_id::text, to_char(booking_date, 'YYYY-MM-DD'),
          slot, contact_name, contact_email, contact_phone, notes, status, created_at, updated_at;
`
	return r.scanOne(r.db.QueryRow(ctx, q, bookingID, expertID, StatusConfirmed, StatusRequested))
}

// Cancel marks a booking cancelled; either party may, each through
// their own id column.
func (r *Repo) Cancel(ctx context.Context, userID, bookingID string) (*Booking, error) {
	const q = `
update bookings
set status = $3, updated_at = now()
where id = $1::uuid and (client_user_id = $2 or expert_id = $2) and status != $3
returning id::text, client_user_id, expert_id, offering_id::text, to_char(booking_date, 'YYYY-MM-DD'),
          slot, contact_name, contact_email, contact_phone, notes, status, created_at, updated_at;
`
	return r.scanOne(r.db.QueryRow(ctx, q, bookingID, userID, StatusCancelled))
}

func (r *Repo) scanOne(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.ClientUserID, &b.ExpertID, &b.OfferingID, &b.Date,
		&b.Slot, &b.ContactName, &b.ContactEmail, &b.ContactPhone, &b.Notes,
		&b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
