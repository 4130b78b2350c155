package experts

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expertsSchema = `
create table if not exists experts (
	user_id text primary key,
	name text not null,
	headline text not null default '',
	category text not null default '',
	location text not null default '',
	hourly_rate_cents int not null default 0,
	rating double precision not null default 0,
	avatar_url text not null default '',
	created_at timestamptz not null default now(),
	updated_at timestamptz not null default now()
);
create table if not exists offerings (
	id uuid primary key default gen_random_uuid(),
	expert_id text not null,
	name text not null,
	duration_minutes int not null,
	price_cents int not null,
	description text not null default '',
	created_at timestamptz not null default now()
);
create table if not exists availability (
	expert_id text not null,
	weekday int not null,
	slots text[] not null default '{}'
);
create table if not exists message_templates (
	id uuid primary key default gen_random_uuid(),
	expert_id text not null,
	title text not null,
	body text not null default '',
	created_at timestamptz not null default now()
);
`

// openTestRepo connects to TEST_DATABASE_URL or skips. Each call starts
// from empty tables.
func openTestRepo(t *testing.T) *Repo {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, expertsSchema)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `truncate experts, offerings, availability, message_templates;`)
	require.NoError(t, err)

	return NewRepo(pool)
}

func TestUpsertCard_InsertThenUpdate(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	e := &Expert{UserID: "ex-1", Name: "Ada", Category: "finance", HourlyRate: 15000}
	require.NoError(t, repo.UpsertCard(ctx, e))
	firstUpdated := e.UpdatedAt

	e.Headline = "Tax specialist"
	require.NoError(t, repo.UpsertCard(ctx, e))

	got, err := repo.Get(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, "Tax specialist", got.Headline)
	assert.Equal(t, 15000, got.HourlyRate)
	assert.True(t, got.UpdatedAt.After(firstUpdated) || got.UpdatedAt.Equal(firstUpdated))
}

func TestDirectory_Filters(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertCard(ctx, &Expert{UserID: "ex-1", Name: "Ada", Category: "finance", Location: "Boston"}))
	require.NoError(t, repo.UpsertCard(ctx, &Expert{UserID: "ex-2", Name: "Bob", Category: "legal", Location: "Boston"}))

	all, err := repo.Directory(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	finance, err := repo.Directory(ctx, "finance", "")
	require.NoError(t, err)
	require.Len(t, finance, 1)
	assert.Equal(t, "ex-1", finance[0].UserID)

	none, err := repo.Directory(ctx, "finance", "Paris")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGet_Missing(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOfferings_OwnerOnlyDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	o := &Offering{ExpertID: "ex-1", Name: "Intro call", DurationMin: 30, PriceCents: 5000}
	require.NoError(t, repo.CreateOffering(ctx, o))
	require.NotEmpty(t, o.ID)

	// A different expert cannot delete it.
	deleted, err := repo.DeleteOffering(ctx, "ex-2", o.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteOffering(ctx, "ex-1", o.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	list, err := repo.ListOfferings(ctx, "ex-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRepoSetAvailability_RoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	rules := []AvailabilityRule{
		{Weekday: 1, Slots: []string{"9:00 AM", "10:00 AM"}},
		{Weekday: 3, Slots: []string{"2:00 PM"}},
	}
	require.NoError(t, repo.SetAvailability(ctx, "ex-1", rules))

	got, err := repo.GetAvailability(ctx, "ex-1")

	require.NoError(t, err)
	assert.Equal(t, rules, got)

	// Replacement semantics: a new set fully supersedes the old one.
	require.NoError(t, repo.SetAvailability(ctx, "ex-1", rules[1:]))
	got, err = repo.GetAvailability(ctx, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, rules[1:], got)
}

func TestSetAvailability_BadWeekdayRollsBack(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	prior := []AvailabilityRule{{Weekday: 1, Slots: []string{"9:00 AM"}}}
	require.NoError(t, repo.SetAvailability(ctx, "ex-1", prior))

	err := repo.SetAvailability(ctx, "ex-1", []AvailabilityRule{
		{Weekday: 2, Slots: []string{"9:00 AM"}},
		{Weekday: 7, Slots: []string{"9:00 AM"}},
	})
	require.Error(t, err)

	// The failed replacement left the prior rules intact.
	got, getErr := repo.GetAvailability(ctx, "ex-1")
	require.NoError(t, getErr)
	assert.Equal(t, prior, got)
}

func TestTemplates_Lifecycle(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	tpl := &Template{ExpertID: "ex-1", Title: "Intro", Body: "Hi, thanks for booking."}
	require.NoError(t, repo.CreateTemplate(ctx, tpl))
	require.NotEmpty(t, tpl.ID)

	list, err := repo.ListTemplates(ctx, "ex-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Intro", list[0].Title)

	deleted, err := repo.DeleteTemplate(ctx, "ex-2", tpl.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteTemplate(ctx, "ex-1", tpl.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}
