package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entauth/internal/domain"
	"entauth/internal/repository"
	"entauth/internal/token"
	apperrors "entauth/pkg/errors"
	"entauth/pkg/logger"
)

// memEntitlementRepo is an in-memory EntitlementRepository
type memEntitlementRepo struct {
	records map[string]*domain.EntitlementRecord
	err     error
}

func (r *memEntitlementRepo) GetByEmail(ctx context.Context, email string) (*domain.EntitlementRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	record, ok := r.records[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return record, nil
}

func newEntitlementFixture(t *testing.T, repo *memEntitlementRepo) EntitlementService {
	t.Helper()

	log, err := logger.New("error")
	require.NoError(t, err)

	keys, err := token.LoadKeySet(testPrivPEM, testPubPEM, testPrivPEM, testPubPEM)
	require.NoError(t, err)

	minter := token.NewMinter(token.MinterConfig{
		Audience:    "entauth",
		IdentityTTL: 168 * time.Hour,
		MaxTTL:      720 * time.Hour,
		Floor:       10 * time.Minute,
		InactiveTTL: 5 * time.Minute,
	}, keys)

	return NewEntitlementService(repo, minter, log)
}

func TestIssueToken_ActiveSubscription(t *testing.T) {
	periodEnd := time.Now().Add(14 * 24 * time.Hour)
	repo := &memEntitlementRepo{records: map[string]*domain.EntitlementRecord{
		"user@example.com": {
			Email:            "user@example.com",
			Status:           domain.StatusActive,
			Plan:             "pro",
			CurrentPeriodEnd: &periodEnd,
		},
	}}
	svc := newEntitlementFixture(t, repo)

	signed, expiresAt, eligible, err := svc.IssueToken(context.Background(), "User@Example.com")
	require.NoError(t, err)
	assert.True(t, eligible)
	assert.WithinDuration(t, periodEnd, expiresAt, time.Minute)

	keys, err := token.LoadKeySet(testPrivPEM, testPubPEM, testPrivPEM, testPubPEM)
	require.NoError(t, err)
	verified, err := token.NewVerifier("entauth", keys).Verify(signed, domain.PurposeEntitlement)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", verified.Subject)
	assert.True(t, verified.Eligible)
	assert.Equal(t, "pro", verified.Plan)
}

func TestIssueToken_NoSubscription(t *testing.T) {
	svc := newEntitlementFixture(t, &memEntitlementRepo{records: map[string]*domain.EntitlementRecord{}})

	signed, expiresAt, eligible, err := svc.IssueToken(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.False(t, eligible)
	assert.NotEmpty(t, signed)
	// Short-lived so a missing subscription is not trusted offline for long
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, time.Minute)
}

func TestIssueToken_LapsedSubscription(t *testing.T) {
	repo := &memEntitlementRepo{records: map[string]*domain.EntitlementRecord{
		"user@example.com": {
			Email:  "user@example.com",
			Status: "canceled",
			Plan:   "pro",
		},
	}}
	svc := newEntitlementFixture(t, repo)

	_, expiresAt, eligible, err := svc.IssueToken(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.False(t, eligible)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, time.Minute)
}

func TestIssueToken_StoreFailure(t *testing.T) {
	svc := newEntitlementFixture(t, &memEntitlementRepo{err: errors.New("store unavailable")})

	_, _, _, err := svc.IssueToken(context.Background(), "user@example.com")
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeExternal, appErr.Type)
}
