package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authsvc/internal/metrics"
	"github.com/dmitrymomot/authsvc/pkg/identity"
	"github.com/dmitrymomot/authsvc/pkg/session"
)

const bearerPrefix = "Bearer "

// ErrMissingCredential indicates the Authorization header is absent or does
// not carry a bearer credential. No storage lookup happens in that case.
var ErrMissingCredential = errors.New("handler: missing bearer credential")

// UserLoader is the single identity lookup the guard needs.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// Guard enforces authentication on protected routes. It extracts the bearer
// token, validates it against the session manager and loads the owning user.
// Handlers behind RequireAuth can assume both are present in the context.
type Guard struct {
	sessions *session.Manager
	users    UserLoader
	metrics  *metrics.Collector
}

// NewGuard creates an authentication guard.
func NewGuard(sessions *session.Manager, users UserLoader, collector *metrics.Collector) *Guard {
	return &Guard{sessions: sessions, users: users, metrics: collector}
}

func (g *Guard) recordValidation(outcome string) {
	if g.metrics != nil {
		g.metrics.RecordValidation(outcome)
	}
}

// bearerToken extracts the credential from an Authorization header value.
// The header must literally start with the "Bearer " scheme prefix.
func bearerToken(authorization string) (string, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return "", ErrMissingCredential
	}
	token := authorization[len(bearerPrefix):]
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

// Authenticate resolves an Authorization header value to the user and
// session it belongs to. Unknown and expired tokens both come back as
// session errors the caller must collapse into one unauthorized outcome.
func (g *Guard) Authenticate(ctx context.Context, authorization string) (*identity.User, *session.Session, error) {
	token, err := bearerToken(authorization)
	if err != nil {
		return nil, nil, err
	}

	sess, err := g.sessions.Validate(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	user, err := g.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		// The session row references a user via foreign key; failing here
		// means storage trouble, not a bad credential.
		return nil, nil, err
	}

	return user, sess, nil
}

// RequireAuth gates a route on a valid session. The not-found/expired
// distinction stays server-side: both produce the same 401 body so token
// existence cannot be probed.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, sess, err := g.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, ErrMissingCredential):
				g.recordValidation("missing_credential")
				respondError(w, http.StatusUnauthorized, codeMissingCredential)
			case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionExpired):
				g.recordValidation("unauthorized")
				respondError(w, http.StatusUnauthorized, codeUnauthorized)
			default:
				g.recordValidation("error")
				respondError(w, http.StatusInternalServerError, codeInternalError)
			}
			return
		}

		g.recordValidation("ok")
		next.ServeHTTP(w, r.WithContext(withAuth(r.Context(), user, sess)))
	})
}
