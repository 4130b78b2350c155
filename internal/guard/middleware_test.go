package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expert-buddy/expertbuddy-backend/internal/identity"
	"github.com/expert-buddy/expertbuddy-backend/internal/profile"
	"github.com/expert-buddy/expertbuddy-backend/internal/session/domain"
	"github.com/expert-buddy/expertbuddy-backend/internal/session/repository"
	"github.com/expert-buddy/expertbuddy-backend/internal/session/service"
)

func newGuardedRouter(t *testing.T) (*gin.Engine, *service.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	registry := service.NewRegistry(
		identity.NewLocalProvider(),
		profile.NewMemoryStore(),
		repository.NewSessionRepository(client),
		nil,
	)
	t.Cleanup(registry.Dispose)

	r := gin.New()
	r.Use(WithClient(registry))
	r.GET("/dashboard", RequireRole(registry, ExpertOnly), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	return r, registry
}

func signUp(t *testing.T, registry *service.Registry, clientID string, role domain.Role) *domain.Session {
	t.Helper()

	mgr, err := registry.Get(context.Background(), clientID)
	require.NoError(t, err)
	s, err := mgr.SignUp(context.Background(), domain.Registration{
		Email:    string(role) + "@b.com",
		Password: "correct-horse",
		Role:     role,
	})
	require.NoError(t, err)
	return s
}

func get(r *gin.Engine, path, clientID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if clientID != "" {
		req.Header.Set(ClientIDHeader, clientID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWithClient_MissingHeader(t *testing.T) {
	r, _ := newGuardedRouter(t)

	w := get(r, "/dashboard", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireRole_AnonymousGets401(t *testing.T) {
	r, _ := newGuardedRouter(t)

	w := get(r, "/dashboard", "client-1")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, SignInPath, body["redirect"])
}

func TestRequireRole_WrongRoleGets403(t *testing.T) {
	r, registry := newGuardedRouter(t)
	signUp(t, registry, "client-1", domain.RoleClient)

	w := get(r, "/dashboard", "client-1")
	assert.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ClientLandingPath, body["redirect"])
}

func TestRequireRole_ExpertPassesWithPrompt(t *testing.T) {
	r, registry := newGuardedRouter(t)
	s := signUp(t, registry, "client-1", domain.RoleExpert)

	w := get(r, "/dashboard", "client-1")
	assert.Equal(t, http.StatusOK, w.Code)
	// Fresh signup has an incomplete profile, surfaced as a header.
	assert.Equal(t, "incomplete", w.Header().Get(PromptHeader))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, s.UserID, body["user_id"])
}

func TestRequireRole_SessionsAreScopedPerClient(t *testing.T) {
	r, registry := newGuardedRouter(t)
	signUp(t, registry, "client-1", domain.RoleExpert)

	// A different client handle shares nothing with client-1.
	w := get(r, "/dashboard", "client-2")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
