package repository

import (
	"context"
	"errors"

	"entauth/internal/domain"
)

// ErrNotFound is returned by point lookups that match no row
var ErrNotFound = errors.New("record not found")

// ChallengeRepository persists outstanding magic-code challenges, keyed by
// normalized email. Single-row reads and writes only.
type ChallengeRepository interface {
	Upsert(ctx context.Context, challenge *domain.Challenge) error
	Get(ctx context.Context, email string) (*domain.Challenge, error)
	Delete(ctx context.Context, email string) error
}

// EntitlementRepository reads billing-owned subscription snapshots. This
// service never writes through it.
type EntitlementRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.EntitlementRecord, error)
}
