package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/authsvc/internal/metrics"
	"github.com/dmitrymomot/authsvc/pkg/clientip"
	"github.com/dmitrymomot/authsvc/pkg/identity"
	"github.com/dmitrymomot/authsvc/pkg/idtoken"
	"github.com/dmitrymomot/authsvc/pkg/logger"
	"github.com/dmitrymomot/authsvc/pkg/session"
)

// Handler serves the authentication endpoints.
type Handler struct {
	verifiers *idtoken.Registry
	resolver  *identity.Resolver
	users     identity.Storage
	sessions  *session.Manager
	metrics   *metrics.Collector
	log       *slog.Logger
}

// NewHandler assembles the HTTP handler from its dependencies.
func NewHandler(
	verifiers *idtoken.Registry,
	resolver *identity.Resolver,
	users identity.Storage,
	sessions *session.Manager,
	collector *metrics.Collector,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		verifiers: verifiers,
		resolver:  resolver,
		users:     users,
		sessions:  sessions,
		metrics:   collector,
		log:       log,
	}
}

type signInRequest struct {
	IDToken string `json:"idToken"`
	User    *struct {
		Name *struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		} `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

func (r signInRequest) hint() *idtoken.UserHint {
	if r.User == nil {
		return nil
	}
	hint := &idtoken.UserHint{Email: r.User.Email}
	if r.User.Name != nil {
		hint.FirstName = r.User.Name.FirstName
		hint.LastName = r.User.Name.LastName
	}
	return hint
}

type signInResponse struct {
	Message  string      `json:"message"`
	Provider string      `json:"provider"`
	User     userView    `json:"user"`
	Token    string      `json:"token"`
	Session  sessionInfo `json:"session"`
}

type sessionInfo struct {
	ID        uuid.UUID `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	verifier, err := h.verifiers.Verifier(provider)
	if err != nil {
		h.recordFailure(provider, "unknown_provider")
		respondError(w, http.StatusBadRequest, codeUnknownProvider)
		return
	}

	var req signInRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil || req.IDToken == "" {
		h.recordFailure(provider, "invalid_request")
		respondError(w, http.StatusBadRequest, codeInvalidRequest)
		return
	}

	profile, err := verifier.Verify(r.Context(), req.IDToken, req.hint())
	if err != nil {
		h.respondVerifyError(w, provider, err)
		return
	}

	user, err := h.resolver.Resolve(r.Context(), profile)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailConflict):
			h.recordFailure(provider, "email_conflict")
			respondError(w, http.StatusConflict, codeEmailConflict)
		case errors.Is(err, identity.ErrInvalidProfile):
			h.recordFailure(provider, "invalid_profile")
			respondError(w, http.StatusBadRequest, codeInvalidRequest)
		default:
			h.log.ErrorContext(r.Context(), "resolve identity",
				logger.Component("handler"), logger.Provider(provider), logger.Error(err))
			h.recordFailure(provider, "internal_error")
			respondError(w, http.StatusInternalServerError, codeInternalError)
		}
		return
	}

	sess, err := h.sessions.Issue(r.Context(), user.ID, session.Meta{
		IPAddress: clientip.GetIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.log.ErrorContext(r.Context(), "issue session",
			logger.Component("handler"), logger.UserID(user.ID), logger.Error(err))
		h.recordFailure(provider, "internal_error")
		respondError(w, http.StatusInternalServerError, codeInternalError)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSignIn(provider)
		h.metrics.RecordSessionIssued()
	}
	h.log.InfoContext(r.Context(), "user signed in",
		logger.Component("handler"),
		logger.Provider(provider),
		logger.UserID(user.ID),
		logger.SessionID(sess.ID))

	respondJSON(w, http.StatusOK, signInResponse{
		Message:  "signed in",
		Provider: provider,
		User:     newUserView(user),
		Token:    sess.Token,
		Session:  sessionInfo{ID: sess.ID, ExpiresAt: sess.ExpiresAt},
	})
}

func (h *Handler) respondVerifyError(w http.ResponseWriter, provider string, err error) {
	switch {
	case errors.Is(err, idtoken.ErrExpiredToken):
		h.recordFailure(provider, "expired_token")
		respondError(w, http.StatusUnauthorized, codeExpiredToken)
	case errors.Is(err, idtoken.ErrAudienceMismatch):
		h.recordFailure(provider, "audience_mismatch")
		respondError(w, http.StatusUnauthorized, codeAudienceMismatch)
	case errors.Is(err, idtoken.ErrProviderUnavailable):
		h.recordFailure(provider, "provider_unavailable")
		respondError(w, http.StatusServiceUnavailable, codeProviderUnavailable)
	case errors.Is(err, idtoken.ErrMissingClaims):
		h.recordFailure(provider, "missing_claims")
		respondError(w, http.StatusUnauthorized, codeInvalidToken)
	default:
		h.recordFailure(provider, "invalid_token")
		respondError(w, http.StatusUnauthorized, codeInvalidToken)
	}
}

func (h *Handler) recordFailure(provider, reason string) {
	if h.metrics != nil {
		h.metrics.RecordSignInFailure(provider, reason)
	}
}

type signOutResponse struct {
	Message   string    `json:"message"`
	SessionID uuid.UUID `json:"sessionId"`
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r.Header.Get("Authorization"))
	if err != nil {
		respondError(w, http.StatusUnauthorized, codeMissingCredential)
		return
	}

	sess, err := h.sessions.Revoke(r.Context(), token)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound)
			return
		}
		h.log.ErrorContext(r.Context(), "revoke session",
			logger.Component("handler"), logger.Error(err))
		respondError(w, http.StatusInternalServerError, codeInternalError)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSessionRevoked(1)
	}
	h.log.InfoContext(r.Context(), "user signed out",
		logger.Component("handler"),
		logger.UserID(sess.UserID),
		logger.SessionID(sess.ID))

	respondJSON(w, http.StatusOK, signOutResponse{
		Message:   "signed out",
		SessionID: sess.ID,
	})
}
