package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"entauth/internal/domain"
)

// MinterConfig carries the expiry policy knobs for entitlement tokens.
// The identity TTL is a product constant, not a knob.
type MinterConfig struct {
	Audience     string
	IdentityTTL  time.Duration
	MaxTTL       time.Duration // cap on how long a cached entitlement may be trusted offline
	Floor        time.Duration // minimum useful lifetime of an eligible token
	InactiveTTL  time.Duration // short lifetime for not-eligible tokens
	AllowedPlans []string      // empty means any plan
}

// Minter builds and signs claim tokens
type Minter struct {
	cfg   MinterConfig
	keys  *KeySet
	plans map[string]struct{}
	now   func() time.Time
}

// NewMinter creates a claim builder over an imported key set
func NewMinter(cfg MinterConfig, keys *KeySet) *Minter {
	plans := make(map[string]struct{}, len(cfg.AllowedPlans))
	for _, p := range cfg.AllowedPlans {
		plans[p] = struct{}{}
	}
	return &Minter{cfg: cfg, keys: keys, plans: plans, now: time.Now}
}

// MintIdentity signs an identity claim for an email whose ownership has been
// proven. The TTL is fixed.
func (m *Minter) MintIdentity(email string) (string, time.Time, error) {
	subject := domain.NormalizeEmail(email)
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("subject email is required")
	}

	now := m.now()
	expiresAt := now.Add(m.cfg.IdentityTTL)

	claims := identityClaims{
		Version: domain.ClaimVersion,
		Purpose: domain.PurposeIdentity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{m.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := m.sign(claims, domain.PurposeIdentity)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// MintEntitlement signs an entitlement claim from a point-in-time billing
// snapshot. A nil record means no subscription exists for the subject.
// It returns the token, its expiry, and the computed eligibility.
func (m *Minter) MintEntitlement(email string, record *domain.EntitlementRecord) (string, time.Time, bool, error) {
	subject := domain.NormalizeEmail(email)
	if subject == "" {
		return "", time.Time{}, false, fmt.Errorf("subject email is required")
	}

	now := m.now()
	eligible := record != nil && record.EligibleStatus() && m.planAllowed(record.Plan)
	expiresAt := now.Add(m.entitlementTTL(now, eligible, record))

	claims := entitlementClaims{
		Version:  domain.ClaimVersion,
		Purpose:  domain.PurposeEntitlement,
		Eligible: eligible,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{m.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if record != nil {
		claims.Status = record.Status
		claims.Plan = record.Plan
		if record.CurrentPeriodEnd != nil {
			claims.PeriodEnd = record.CurrentPeriodEnd.Unix()
		}
	}

	signed, err := m.sign(claims, domain.PurposeEntitlement)
	if err != nil {
		return "", time.Time{}, false, err
	}
	return signed, expiresAt, eligible, nil
}

// entitlementTTL implements the offline-cacheability policy: ineligible
// subjects get a short-lived token; eligible subjects get a lifetime bounded
// below by the floor and above by the cap, tracking the billing period end
// when one is known.
func (m *Minter) entitlementTTL(now time.Time, eligible bool, record *domain.EntitlementRecord) time.Duration {
	if !eligible {
		return m.cfg.InactiveTTL
	}
	if record.CurrentPeriodEnd == nil {
		return m.cfg.MaxTTL
	}
	ttl := record.CurrentPeriodEnd.Sub(now)
	if ttl < m.cfg.Floor {
		return m.cfg.Floor
	}
	if ttl > m.cfg.MaxTTL {
		return m.cfg.MaxTTL
	}
	return ttl
}

func (m *Minter) planAllowed(plan string) bool {
	if len(m.plans) == 0 {
		return true
	}
	_, ok := m.plans[plan]
	return ok
}

func (m *Minter) sign(claims jwt.Claims, purpose domain.Purpose) (string, error) {
	pair, err := m.keys.Pair(purpose)
	if err != nil {
		return "", err
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(pair.Private)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", purpose, err)
	}
	return signed, nil
}
