package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"entauth/internal/container"
	"entauth/internal/domain"
	"entauth/internal/middleware"
	"entauth/pkg/errors"
)

// TokenHandler handles entitlement issuance, offline verification and
// public-key retrieval
type TokenHandler struct {
	container *container.Container
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(container *container.Container) *TokenHandler {
	return &TokenHandler{
		container: container,
	}
}

// EntitlementTokenResponse carries a freshly minted entitlement token
type EntitlementTokenResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Eligible  bool      `json:"eligible"`
}

// VerifyTokenRequest is the body of POST /api/token/verify
type VerifyTokenRequest struct {
	Token   string `json:"token"`
	Purpose string `json:"purpose"`
}

// VerifyTokenResponse reports the verification outcome. Invalid tokens get
// valid=false with no further detail.
type VerifyTokenResponse struct {
	Valid     bool   `json:"valid"`
	Subject   string `json:"subject,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
	Eligible  *bool  `json:"eligible,omitempty"`
}

// PublicKeyResponse exposes the armored verification key for one token kind
type PublicKeyResponse struct {
	Kind      string `json:"kind"`
	Algorithm string `json:"algorithm"`
	PublicKey string `json:"public_key"`
}

// IssueEntitlement handles POST /api/entitlement/token; the auth middleware
// has already verified the identity token and set the subject
func (h *TokenHandler) IssueEntitlement(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	subject, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		log.Error("Subject not found in context")
		writeError(w, errors.NewAuthenticationError("Not authenticated"), log)
		return
	}

	signed, expiresAt, eligible, err := h.container.GetEntitlementService().IssueToken(r.Context(), subject)
	if err != nil {
		writeError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, EntitlementTokenResponse{
		Success:   true,
		Token:     signed,
		ExpiresAt: expiresAt,
		Eligible:  eligible,
	}, log)
}

// VerifyToken handles POST /api/token/verify. Pure function over the token
// and the public key; no store access.
func (h *TokenHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	var req VerifyTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("Invalid request body", nil), log)
		return
	}

	purpose := domain.Purpose(req.Purpose)
	if !purpose.Valid() {
		writeError(w, errors.NewValidationError("purpose must be \"identity\" or \"entitlement\"", nil), log)
		return
	}

	verified, err := h.container.Verifier.Verify(req.Token, purpose)
	if err != nil {
		log.WithError(err).Debug("Token verification rejected")
		writeJSON(w, http.StatusOK, VerifyTokenResponse{Valid: false}, log)
		return
	}

	resp := VerifyTokenResponse{
		Valid:     true,
		Subject:   verified.Subject,
		ExpiresAt: verified.ExpiresAt,
	}
	if purpose == domain.PurposeEntitlement {
		resp.Eligible = &verified.Eligible
	}
	writeJSON(w, http.StatusOK, resp, log)
}

// GetPublicKey handles GET /api/keys/{kind}
func (h *TokenHandler) GetPublicKey(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	kind := domain.Purpose(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, errors.NewNotFoundError("Unknown key kind"), log)
		return
	}

	pair, err := h.container.Keys.Pair(kind)
	if err != nil {
		writeError(w, errors.NewNotFoundError("Unknown key kind"), log)
		return
	}

	writeJSON(w, http.StatusOK, PublicKeyResponse{
		Kind:      string(kind),
		Algorithm: "EdDSA",
		PublicKey: pair.PublicPEM,
	}, log)
}
