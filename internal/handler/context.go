package handler

import (
	"context"

	"github.com/dmitrymomot/authsvc/pkg/identity"
	"github.com/dmitrymomot/authsvc/pkg/session"
)

type userContextKey struct{}
type sessionContextKey struct{}

// withAuth annotates the context with the authenticated user and session.
// The annotation lives only for the request; nothing is cached beyond it.
func withAuth(ctx context.Context, user *identity.User, sess *session.Session) context.Context {
	ctx = context.WithValue(ctx, userContextKey{}, user)
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// UserFromContext retrieves the authenticated user from the context.
func UserFromContext(ctx context.Context) (*identity.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*identity.User)
	return user, ok
}

// SessionFromContext retrieves the authenticated session from the context.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok
}
