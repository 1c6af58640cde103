package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"entauth/internal/container"
	"entauth/pkg/errors"
)

// AuthHandler handles the challenge flow endpoints
type AuthHandler struct {
	container *container.Container
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(container *container.Container) *AuthHandler {
	return &AuthHandler{
		container: container,
	}
}

// ChallengeRequest is the body of POST /api/auth/challenge
type ChallengeRequest struct {
	Email string `json:"email"`
}

// ChallengeResponse acknowledges a challenge request without revealing
// whether the address exists or whether delivery succeeded
type ChallengeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyRequest is the body of POST /api/auth/verify
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// TokenResponse carries a freshly minted token
type TokenResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestChallenge handles POST /api/auth/challenge
func (h *AuthHandler) RequestChallenge(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	var req ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("Invalid request body", nil), log)
		return
	}

	if err := h.container.GetIdentityService().RequestChallenge(r.Context(), req.Email, clientIP(r)); err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusAccepted, ChallengeResponse{
		Success: true,
		Message: "If the address is valid, a sign-in code has been sent",
	}, log)
}

// VerifyChallenge handles POST /api/auth/verify
func (h *AuthHandler) VerifyChallenge(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("Invalid request body", nil), log)
		return
	}

	signed, expiresAt, err := h.container.GetIdentityService().VerifyChallenge(r.Context(), req.Email, req.Code, clientIP(r))
	if err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		Success:   true,
		Token:     signed,
		ExpiresAt: expiresAt,
	}, log)
}
