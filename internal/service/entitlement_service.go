package service

import (
	"context"
	"errors"
	"time"

	"entauth/internal/domain"
	"entauth/internal/repository"
	"entauth/internal/token"
	apperrors "entauth/pkg/errors"
	"entauth/pkg/logger"
)

// entitlementService implements EntitlementService
type entitlementService struct {
	entitlements repository.EntitlementRepository
	minter       *token.Minter
	log          *logger.Logger
}

// NewEntitlementService creates the entitlement service
func NewEntitlementService(
	entitlements repository.EntitlementRepository,
	minter *token.Minter,
	log *logger.Logger,
) EntitlementService {
	return &entitlementService{
		entitlements: entitlements,
		minter:       minter,
		log:          log,
	}
}

// IssueToken fetches the subject's subscription snapshot and mints an
// entitlement token. No snapshot means a not-eligible token with a short
// lifetime; a billing-store outage is surfaced rather than silently minting
// a token that misstates eligibility in either direction.
func (s *entitlementService) IssueToken(ctx context.Context, subject string) (string, time.Time, bool, error) {
	subject = domain.NormalizeEmail(subject)

	record, err := s.entitlements.GetByEmail(ctx, subject)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.WithError(err).Error("Entitlement lookup failed")
		return "", time.Time{}, false, apperrors.NewExternalError("Entitlement lookup unavailable", err)
	}

	signed, expiresAt, eligible, err := s.minter.MintEntitlement(subject, record)
	if err != nil {
		s.log.WithError(err).Error("Failed to mint entitlement token")
		return "", time.Time{}, false, apperrors.NewInternalError("Failed to issue token", err)
	}

	s.log.WithField("eligible", eligible).Info("Entitlement token issued")
	return signed, expiresAt, eligible, nil
}
