package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expert-buddy/expertbuddy-backend/internal/session/domain"
)

func newTestRepo(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewSessionRepository(client), mr
}

func sampleSession() *domain.Session {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return &domain.Session{
		UserID:    "u-1",
		Email:     "a@b.com",
		FirstName: "Ada",
		LastName:  "Benson",
		Role:      domain.RoleExpert,
		Profile: domain.Profile{
			Phone:     "+1 555 0100",
			Location:  "Boston",
			Bio:       "Tax expert",
			AvatarURL: "https://cdn.test/avatars/u-1/x.png",
			Expertise: "Finance",
		},
		ProfileComplete: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	want := sampleSession()
	require.NoError(t, repo.Save(ctx, "client-1", want))

	got, err := repo.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_MissingRecord(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestSave_RequiresClientID(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.Save(context.Background(), "", sampleSession())
	assert.Error(t, err)
}

func TestSave_RefreshesTTL(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "client-1", sampleSession()))
	mr.FastForward(29 * 24 * time.Hour)

	require.NoError(t, repo.Save(ctx, "client-1", sampleSession()))
	mr.FastForward(29 * 24 * time.Hour)

	_, err := repo.Load(ctx, "client-1")
	assert.NoError(t, err)
}

func TestDelete_RemovesRecord(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "client-1", sampleSession()))
	require.NoError(t, repo.Delete(ctx, "client-1"))

	_, err := repo.Load(ctx, "client-1")
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestDelete_Idempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	assert.NoError(t, repo.Delete(ctx, "client-1"))
	assert.NoError(t, repo.Delete(ctx, "client-1"))
}
