package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vidgate/server/internal/auth"
	"github.com/vidgate/server/internal/http/handlers"
	"github.com/vidgate/server/internal/logging"
	"github.com/vidgate/server/internal/metrics"
	"github.com/vidgate/server/internal/middleware"
)

// RouterDeps bundles everything the router wires together.
type RouterDeps struct {
	Admin   *handlers.AdminHandler
	Tokens  *handlers.TokenHandler
	Videos  *handlers.VideoHandler
	Stream  *handlers.StreamHandler
	Health  *handlers.HealthHandler
	JWT     *auth.JWTService
	Metrics *metrics.Collector

	Cooldown         middleware.CooldownStore
	PlaybackCooldown time.Duration
	RateLimitWindow  time.Duration
	RateLimitMax     int

	Logger logging.Logger
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(deps.Metrics.Middleware)

	r.Get("/health", deps.Health.ServeHTTP)
	r.Method("GET", "/metrics", deps.Metrics.Handler())

	apiLimiter := middleware.NewRateLimiter(deps.RateLimitWindow, deps.RateLimitMax)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(apiLimiter, middleware.GetIPKey))

		r.Post("/admin/login", deps.Admin.HandleLogin)

		// Public, read-only token check (no side effects)
		r.Get("/tokens/{token}", deps.Tokens.HandleValidate)

		// Management routes (require valid admin JWT)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(deps.JWT))

			r.Post("/tokens", deps.Tokens.HandleCreate)
			r.Post("/tokens/bulk", deps.Tokens.HandleCreateBulk)
			r.Get("/tokens", deps.Tokens.HandleList)
			r.Get("/tokens/stats", deps.Tokens.HandleStats)
			r.Get("/tokens/{token}/stats", deps.Tokens.HandleStatsFor)
			r.Delete("/tokens/{token}", deps.Tokens.HandleRevoke)
			r.Delete("/tokens/{token}/purge", deps.Tokens.HandlePurge)

			r.Get("/videos", deps.Videos.HandleList)
			r.Post("/videos", deps.Videos.HandleCreate)
			r.Get("/videos/stats", deps.Videos.HandleStats)
			r.Patch("/videos/{videoId}/active", deps.Videos.HandleSetActive)
			r.Patch("/videos/{videoId}/notes", deps.Videos.HandleUpdateNotes)
			r.Delete("/videos/{videoId}", deps.Videos.HandleRemove)
			r.Delete("/videos/{videoId}/purge", deps.Videos.HandlePurge)
		})
	})

	// Streaming: cooldown applies to playback starts only; range
	// follow-ups pass straight through.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PlaybackCooldown(deps.Cooldown, deps.PlaybackCooldown, deps.Logger))
		r.Get("/videos/{token}", deps.Stream.HandleStream)
	})

	return r
}
