package bootstrap

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	httpapi "github.com/expert-buddy/expertbuddy-backend/internal/api/http"
	"github.com/expert-buddy/expertbuddy-backend/internal/bookings"
	"github.com/expert-buddy/expertbuddy-backend/internal/experts"
	"github.com/expert-buddy/expertbuddy-backend/internal/guard"
	"github.com/expert-buddy/expertbuddy-backend/internal/httpmw"
	"github.com/expert-buddy/expertbuddy-backend/internal/identity"
	"github.com/expert-buddy/expertbuddy-backend/internal/profile"
	sessionhttp "github.com/expert-buddy/expertbuddy-backend/internal/session/http"
	"github.com/expert-buddy/expertbuddy-backend/internal/session/repository"
	"github.com/expert-buddy/expertbuddy-backend/internal/session/service"
	"github.com/expert-buddy/expertbuddy-backend/internal/storage"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Provider    identity.Provider
	ProfileDB   *sql.DB
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	Avatars     storage.BinaryStore
	CORSOrigins []string
}

// BuildRouter wires the HTTP surface and returns the engine together
// with the session registry (the reconciliation scheduler needs it).
func BuildRouter(dep RouterDeps) (*gin.Engine, *service.Registry) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(dep.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = dep.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, guard.ClientIDHeader)
	corsCfg.ExposeHeaders = append(corsCfg.ExposeHeaders, guard.PromptHeader)
	r.Use(cors.New(corsCfg))
	r.Use(httpmw.RequestID())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Pool, dep.Redis)
	healthHandler.RegisterRoutes(r)

	profiles := profile.NewPostgresStore(dep.ProfileDB)
	sessions := repository.NewSessionRepository(dep.Redis)
	registry := service.NewRegistry(dep.Provider, profiles, sessions, dep.Avatars)

	expertRepo := experts.NewRepo(dep.Pool)
	bookingRepo := bookings.NewRepo(dep.Pool)

	api := r.Group("/api/v1")
	api.Use(guard.WithClient(registry))

	// Credential endpoints get their own throttle.
	authLimiter := httpmw.NewRateLimiter(rate.Every(time.Second), 5)
	authGroup := api.Group("/auth")
	authGroup.Use(authLimiter.Middleware())

	sessionHandler := sessionhttp.New(registry)
	sessionHandler.RegisterAuth(authGroup)
	sessionHandler.RegisterMe(api)

	expertsGroup := api.Group("/experts")
	experts.RegisterPublic(expertsGroup, expertRepo)

	dashboard := api.Group("/dashboard")
	dashboard.Use(guard.RequireRole(registry, guard.ExpertOnly))
	experts.RegisterDashboard(dashboard, expertRepo)
	bookings.RegisterExpert(dashboard, bookingRepo)

	bookingsGroup := api.Group("/bookings")
	bookingsGroup.Use(guard.RequireRole(registry, guard.Any))
	bookings.RegisterClient(bookingsGroup, bookingRepo)

	return r, registry
}
