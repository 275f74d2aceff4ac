package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authsvc/pkg/clientip"
	"github.com/dmitrymomot/authsvc/pkg/httpserver"
	"github.com/dmitrymomot/authsvc/pkg/ratelimiter"
)

// Deps groups everything the router mounts.
type Deps struct {
	Handler  *Handler
	Debug    *DebugHandler
	Guard    *Guard
	Limiter *ratelimiter.Bucket
	Metrics http.Handler
	Health  []func(context.Context) error
	Log     *slog.Logger
}

// Router builds the HTTP route tree.
//
//	POST   /auth/{provider}        sign in with a provider ID token
//	POST   /auth/sign-out           revoke the presented session
//	GET    /profile                current user
//	PATCH  /profile                update display fields
//	GET    /sessions               list the user's sessions
//	DELETE /sessions/others        log out other devices
//	GET    /health                 readiness probe
//	GET    /metrics                Prometheus exposition
//	GET    /debug/session-stats    session counts
//	POST   /debug/cleanup-sessions immediate expired-session sweep
func Router(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/auth", func(r chi.Router) {
		r.With(signInLimiter(deps.Limiter)).Post("/{provider}", deps.Handler.signIn)
		r.Post("/sign-out", deps.Handler.signOut)
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.Guard.RequireAuth)

		r.Get("/profile", deps.Handler.getProfile)
		r.Patch("/profile", deps.Handler.updateProfile)

		r.Get("/sessions", deps.Handler.listSessions)
		r.Delete("/sessions/others", deps.Handler.revokeOtherSessions)
	})

	r.Get("/health", httpserver.HealthCheckHandler(deps.Log, deps.Health...))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	if deps.Debug != nil {
		r.Route("/debug", func(r chi.Router) {
			r.Get("/session-stats", deps.Debug.sessionStats)
			r.Post("/cleanup-sessions", deps.Debug.cleanupSessions)
		})
	}

	return r
}

// signInLimiter throttles sign-in attempts per client IP. A nil bucket
// disables limiting, which keeps tests and local setups free of Redis.
func signInLimiter(bucket *ratelimiter.Bucket) func(http.Handler) http.Handler {
	if bucket == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimiter.Middleware(bucket, func(r *http.Request) string {
		return clientip.GetIP(r)
	})
}
