package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/authsvc/pkg/identity"
	"github.com/dmitrymomot/authsvc/pkg/logger"
)

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": newUserView(user)})
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

// updateProfile lets a signed-in user change display fields. Absent fields
// keep their current value; email is provider-owned and not editable here.
func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized)
		return
	}

	var req updateProfileRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest)
		return
	}
	if req.Name == nil && req.ImageURL == nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest)
		return
	}

	name := user.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	imageURL := user.ImageURL
	if req.ImageURL != nil {
		imageURL = strings.TrimSpace(*req.ImageURL)
	}

	updated, err := h.users.UpdateUserProfile(r.Context(), user.ID, name, imageURL)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound)
			return
		}
		h.log.ErrorContext(r.Context(), "update profile",
			logger.Component("handler"), logger.UserID(user.ID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, codeInternalError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": newUserView(updated)})
}
