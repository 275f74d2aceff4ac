package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authsvc/pkg/idtoken"
	"github.com/dmitrymomot/authsvc/pkg/logger"
)

// Resolver maps verified provider profiles to local users, creating or
// refreshing them and maintaining the provider account link.
type Resolver struct {
	storage Storage
	log     *slog.Logger
}

// ResolverOption configures a Resolver during construction.
type ResolverOption func(*Resolver)

// WithLogger sets a custom logger for the resolver.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = l
	}
}

// NewResolver creates a resolver backed by the given storage.
func NewResolver(storage Storage, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		storage: storage,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the local user for a verified profile.
//
// Fast path: an existing (provider, providerAccountID) link returns its user
// with display fields refreshed from the fresh profile; the email is never
// touched on sign-in.
//
// First sign-in: profiles with a provider-verified email are merged into an
// existing user with the same address (cross-provider merge is an explicit
// policy, gated on the provider asserting email ownership). Unverified
// emails only ever create users, and collide with ErrEmailConflict instead
// of silently attaching to someone else's account. Both paths are
// constraint-driven upserts, safe under concurrent first sign-ins.
func (r *Resolver) Resolve(ctx context.Context, profile idtoken.Profile) (*User, error) {
	if profile.Provider == "" || profile.ProviderUserID == "" || profile.Email == "" {
		return nil, ErrInvalidProfile
	}
	email := normalizeEmail(profile.Email)

	user, err := r.storage.GetUserByAccount(ctx, profile.Provider, profile.ProviderUserID)
	if err == nil {
		return r.refreshProfile(ctx, user, profile)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up provider account: %w", err)
	}

	candidate := &User{
		ID:            uuid.New(),
		Email:         email,
		Name:          profile.Name,
		ImageURL:      profile.Picture,
		EmailVerified: profile.EmailVerified,
	}

	var created bool
	if profile.EmailVerified {
		user, created, err = r.storage.UpsertUserByEmail(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert user: %w", err)
		}
	} else {
		user, err = r.storage.CreateUser(ctx, candidate)
		if err != nil {
			if errors.Is(err, ErrEmailTaken) {
				return nil, ErrEmailConflict
			}
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		created = true
	}

	if err := r.storage.LinkAccount(ctx, &Account{
		ID:                uuid.New(),
		UserID:            user.ID,
		Provider:          profile.Provider,
		ProviderAccountID: profile.ProviderUserID,
	}); err != nil {
		return nil, fmt.Errorf("failed to link provider account: %w", err)
	}

	if !created {
		r.log.InfoContext(ctx, "provider account merged into existing user",
			logger.UserID(user.ID.String()),
			logger.Provider(profile.Provider),
			logger.Component("identity"),
		)
	}

	return user, nil
}

// refreshProfile updates mutable display fields when the fresh profile
// carries different values. Empty profile fields never erase stored ones.
func (r *Resolver) refreshProfile(ctx context.Context, user *User, profile idtoken.Profile) (*User, error) {
	name := user.Name
	if profile.Name != "" {
		name = profile.Name
	}
	image := user.ImageURL
	if profile.Picture != "" {
		image = profile.Picture
	}

	if name == user.Name && image == user.ImageURL {
		return user, nil
	}

	updated, err := r.storage.UpdateUserProfile(ctx, user.ID, name, image)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh user profile: %w", err)
	}
	return updated, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
