package token

import (
	"github.com/golang-jwt/jwt/v5"

	"entauth/internal/domain"
)

// identityClaims is the signed claim set of an identity token
type identityClaims struct {
	Version int            `json:"v"`
	Purpose domain.Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// entitlementClaims is the signed claim set of an entitlement token.
// Status, Plan and PeriodEnd are omitted when the billing snapshot had no
// record for the subject.
type entitlementClaims struct {
	Version   int            `json:"v"`
	Purpose   domain.Purpose `json:"purpose"`
	Eligible  bool           `json:"eligible"`
	Status    string         `json:"status,omitempty"`
	Plan      string         `json:"plan,omitempty"`
	PeriodEnd int64          `json:"period_end,omitempty"`
	jwt.RegisteredClaims
}

// VerifiedToken is the authenticated result of a successful verification.
// Downstream authorization uses these fields, never the raw claim payload.
type VerifiedToken struct {
	Subject   string
	Purpose   domain.Purpose
	IssuedAt  int64
	ExpiresAt int64

	// Entitlement-only fields; zero-valued on identity tokens
	Eligible  bool
	Status    string
	Plan      string
	PeriodEnd int64
}
