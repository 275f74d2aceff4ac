package handler

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the uniform error payload: a stable machine-readable
// code, nothing about server internals.
type errorResponse struct {
	Error string `json:"error"`
}

// Stable external error codes.
const (
	codeInvalidRequest      = "invalid_request"
	codeUnknownProvider     = "unknown_provider"
	codeInvalidToken        = "invalid_token"
	codeExpiredToken        = "expired_token"
	codeAudienceMismatch    = "audience_mismatch"
	codeProviderUnavailable = "provider_unavailable"
	codeEmailConflict       = "email_conflict"
	codeMissingCredential   = "missing_credential"
	codeUnauthorized        = "unauthorized"
	codeNotFound            = "not_found"
	codeInternalError       = "internal_error"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code string) {
	respondJSON(w, status, errorResponse{Error: code})
}
