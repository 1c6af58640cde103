package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entauth/internal/domain"
)

func testMinterConfig() MinterConfig {
	return MinterConfig{
		Audience:    "entauth",
		IdentityTTL: 168 * time.Hour,
		MaxTTL:      30 * 24 * time.Hour,
		Floor:       10 * time.Minute,
		InactiveTTL: 5 * time.Minute,
	}
}

func testMinter(t *testing.T) *Minter {
	t.Helper()
	return NewMinter(testMinterConfig(), testKeySet(t))
}

func TestMintIdentity(t *testing.T) {
	minter := testMinter(t)
	now := time.Unix(1756500000, 0)
	minter.now = func() time.Time { return now }

	signed, expiresAt, err := minter.MintIdentity("  User@Example.COM ")
	require.NoError(t, err)

	// Fixed seven-day lifetime
	assert.Equal(t, now.Add(168*time.Hour).Unix(), expiresAt.Unix())

	// Three dot-joined segments
	assert.Len(t, strings.Split(signed, "."), 3)

	verifier := NewVerifier("entauth", testKeySet(t))
	verifier.now = func() time.Time { return now }
	verified, err := verifier.Verify(signed, domain.PurposeIdentity)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", verified.Subject)
	assert.Equal(t, domain.PurposeIdentity, verified.Purpose)
	assert.Equal(t, now.Unix(), verified.IssuedAt)
	assert.Equal(t, expiresAt.Unix(), verified.ExpiresAt)
}

func TestMintIdentity_EmptySubject(t *testing.T) {
	minter := testMinter(t)

	_, _, err := minter.MintIdentity("   ")
	assert.Error(t, err)
}

func TestMintEntitlement_ExpiryPolicy(t *testing.T) {
	now := time.Unix(1756500000, 0)

	periodIn50Days := now.Add(50 * 24 * time.Hour)
	periodIn5Minutes := now.Add(5 * time.Minute)
	periodIn20Days := now.Add(20 * 24 * time.Hour)

	tests := []struct {
		name         string
		record       *domain.EntitlementRecord
		wantEligible bool
		wantTTL      time.Duration
	}{
		{
			name: "Eligible, period end far out, clamped to max",
			record: &domain.EntitlementRecord{
				Status:           domain.StatusActive,
				Plan:             "pro",
				CurrentPeriodEnd: &periodIn50Days,
			},
			wantEligible: true,
			wantTTL:      30 * 24 * time.Hour,
		},
		{
			name: "Eligible, period end imminent, raised to floor",
			record: &domain.EntitlementRecord{
				Status:           domain.StatusActive,
				Plan:             "pro",
				CurrentPeriodEnd: &periodIn5Minutes,
			},
			wantEligible: true,
			wantTTL:      10 * time.Minute,
		},
		{
			name: "Eligible, period end within bounds, tracked exactly",
			record: &domain.EntitlementRecord{
				Status:           domain.StatusTrialing,
				Plan:             "pro",
				CurrentPeriodEnd: &periodIn20Days,
			},
			wantEligible: true,
			wantTTL:      20 * 24 * time.Hour,
		},
		{
			name: "Eligible, no period end known, full max",
			record: &domain.EntitlementRecord{
				Status: domain.StatusActive,
				Plan:   "pro",
			},
			wantEligible: true,
			wantTTL:      30 * 24 * time.Hour,
		},
		{
			name: "Not eligible, short TTL regardless of period end",
			record: &domain.EntitlementRecord{
				Status:           "canceled",
				Plan:             "pro",
				CurrentPeriodEnd: &periodIn50Days,
			},
			wantEligible: false,
			wantTTL:      5 * time.Minute,
		},
		{
			name:         "No subscription record",
			record:       nil,
			wantEligible: false,
			wantTTL:      5 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minter := testMinter(t)
			minter.now = func() time.Time { return now }

			signed, expiresAt, eligible, err := minter.MintEntitlement("user@example.com", tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEligible, eligible)
			assert.Equal(t, now.Add(tt.wantTTL).Unix(), expiresAt.Unix())
			assert.Len(t, strings.Split(signed, "."), 3)
		})
	}
}

func TestMintEntitlement_PlanAllowlist(t *testing.T) {
	now := time.Unix(1756500000, 0)
	record := &domain.EntitlementRecord{Status: domain.StatusActive, Plan: "legacy"}

	tests := []struct {
		name         string
		allowedPlans []string
		wantEligible bool
	}{
		{"No allowlist admits any plan", nil, true},
		{"Plan on the list", []string{"legacy", "pro"}, true},
		{"Plan not on the list", []string{"pro"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testMinterConfig()
			cfg.AllowedPlans = tt.allowedPlans
			minter := NewMinter(cfg, testKeySet(t))
			minter.now = func() time.Time { return now }

			_, _, eligible, err := minter.MintEntitlement("user@example.com", record)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEligible, eligible)
		})
	}
}

func TestMintEntitlement_ClaimFields(t *testing.T) {
	minter := testMinter(t)
	now := time.Unix(1756500000, 0)
	minter.now = func() time.Time { return now }
	periodEnd := now.Add(20 * 24 * time.Hour)

	signed, _, _, err := minter.MintEntitlement("user@example.com", &domain.EntitlementRecord{
		Status:           domain.StatusActive,
		Plan:             "pro",
		CurrentPeriodEnd: &periodEnd,
	})
	require.NoError(t, err)

	verifier := NewVerifier("entauth", testKeySet(t))
	verifier.now = func() time.Time { return now }
	verified, err := verifier.Verify(signed, domain.PurposeEntitlement)
	require.NoError(t, err)
	assert.True(t, verified.Eligible)
	assert.Equal(t, domain.StatusActive, verified.Status)
	assert.Equal(t, "pro", verified.Plan)
	assert.Equal(t, periodEnd.Unix(), verified.PeriodEnd)
}
