package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"entauth/internal/domain"
)

// ErrInvalidToken is the single rejection callers may distinguish. The
// wrapped cause names the real reason and is for internal logs only; leaking
// which check failed would hand an oracle to an attacker.
var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier checks wire tokens against the public key of one key set.
// Verification is pure: no store access, usable offline by any key holder.
type Verifier struct {
	audience string
	keys     *KeySet
	now      func() time.Time
	parser   *jwt.Parser
}

// NewVerifier creates a token verifier bound to an audience tag
func NewVerifier(audience string, keys *KeySet) *Verifier {
	v := &Verifier{
		audience: audience,
		keys:     keys,
		now:      time.Now,
	}
	v.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	)
	return v
}

// Verify authenticates a wire token and returns its subject and claims.
// Every failure is returned as ErrInvalidToken wrapped around the internal
// reason (segment count, JSON shape, signature, audience, purpose, version,
// expiry); callers log the cause and surface only the generic rejection.
func (v *Verifier) Verify(tokenStr string, expectedPurpose domain.Purpose) (*VerifiedToken, error) {
	if !expectedPurpose.Valid() {
		return nil, fmt.Errorf("%w: unknown expected purpose %q", ErrInvalidToken, expectedPurpose)
	}

	// Structural precheck so segment-count failures read distinctly in logs
	if _, _, _, err := SplitToken(tokenStr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	pair, err := v.keys.Pair(expectedPurpose)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	keyfunc := func(t *jwt.Token) (interface{}, error) {
		return pair.Public, nil
	}

	var verified *VerifiedToken
	switch expectedPurpose {
	case domain.PurposeIdentity:
		claims := &identityClaims{}
		if _, err := v.parser.ParseWithClaims(tokenStr, claims, keyfunc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if err := v.checkCommon(claims.Version, claims.Purpose, expectedPurpose, claims.Subject, claims.IssuedAt); err != nil {
			return nil, err
		}
		verified = &VerifiedToken{
			Subject:   domain.NormalizeEmail(claims.Subject),
			Purpose:   claims.Purpose,
			IssuedAt:  claims.IssuedAt.Unix(),
			ExpiresAt: claims.ExpiresAt.Unix(),
		}
	case domain.PurposeEntitlement:
		claims := &entitlementClaims{}
		if _, err := v.parser.ParseWithClaims(tokenStr, claims, keyfunc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if err := v.checkCommon(claims.Version, claims.Purpose, expectedPurpose, claims.Subject, claims.IssuedAt); err != nil {
			return nil, err
		}
		verified = &VerifiedToken{
			Subject:   domain.NormalizeEmail(claims.Subject),
			Purpose:   claims.Purpose,
			IssuedAt:  claims.IssuedAt.Unix(),
			ExpiresAt: claims.ExpiresAt.Unix(),
			Eligible:  claims.Eligible,
			Status:    claims.Status,
			Plan:      claims.Plan,
			PeriodEnd: claims.PeriodEnd,
		}
	}

	return verified, nil
}

func (v *Verifier) checkCommon(version int, purpose, expected domain.Purpose, subject string, issuedAt *jwt.NumericDate) error {
	if issuedAt == nil {
		return fmt.Errorf("%w: missing iat claim", ErrInvalidToken)
	}
	if version != domain.ClaimVersion {
		return fmt.Errorf("%w: claim version %d, want %d", ErrInvalidToken, version, domain.ClaimVersion)
	}
	if purpose != expected {
		return fmt.Errorf("%w: purpose %q, want %q", ErrInvalidToken, purpose, expected)
	}
	if domain.NormalizeEmail(subject) == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return nil
}
