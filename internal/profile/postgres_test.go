package profile

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profilesSchema = `
create table if not exists profiles (
	user_id text primary key,
	email text not null,
	first_name text,
	last_name text,
	role text not null,
	phone text,
	location text,
	bio text,
	avatar_url text,
	expertise text,
	created_at timestamptz not null default now(),
	updated_at timestamptz not null default now()
);
`

func openTestStore(t *testing.T) (*PostgresStore, *sql.DB) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(profilesSchema)
	require.NoError(t, err)
	_, err = db.Exec(`truncate profiles;`)
	require.NoError(t, err)

	return NewPostgresStore(db), db
}

func TestUpsert_InsertThenUpdate(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	rec := &Record{UserID: "u-1", Email: "a@b.com", Role: "expert", FirstName: "Ada"}
	require.NoError(t, store.Upsert(ctx, rec))
	assert.False(t, rec.CreatedAt.IsZero())

	rec.Bio = "Tax expert"
	require.NoError(t, store.Upsert(ctx, rec))

	got, err := store.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Tax expert", got.Bio)
	assert.Equal(t, "Ada", got.FirstName)
}

func TestUpsert_RoleIsInsertOnly(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &Record{UserID: "u-1", Email: "a@b.com", Role: "expert"}))

	// A later upsert carrying a different role does not change it.
	require.NoError(t, store.Upsert(ctx, &Record{UserID: "u-1", Email: "a@b.com", Role: "client", Bio: "x"}))

	role, err := store.GetRole(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "expert", role)
}

func TestGetByEmail(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &Record{UserID: "u-1", Email: "a@b.com", Role: "client"}))

	got, err := store.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)

	_, err = store.GetByEmail(ctx, "nobody@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_NullColumnsReadAsEmpty(t *testing.T) {
	store, db := openTestStore(t)
	ctx := context.Background()

	// Rows written outside Upsert may carry nulls in optional columns.
	_, err := db.Exec(`insert into profiles (user_id, email, role) values ('u-1', 'a@b.com', 'client');`)
	require.NoError(t, err)

	got, err := store.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, got.Phone)
	assert.Empty(t, got.Bio)
	assert.Empty(t, got.AvatarURL)
}

func TestGetRole_Missing(t *testing.T) {
	store, _ := openTestStore(t)

	_, err := store.GetRole(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
