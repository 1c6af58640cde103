package challenge

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"entauth/internal/domain"
	"entauth/internal/repository"
	"entauth/pkg/logger"
)

// ErrInvalidOrExpired is the single rejection of the verify path. Absent,
// expired and mismatched codes are indistinguishable to callers.
var ErrInvalidOrExpired = errors.New("invalid or expired code")

// Store runs the magic-code state machine: at most one live challenge per
// normalized email, hashed at rest, consumed exactly once.
type Store struct {
	repo    repository.ChallengeRepository
	pepper  string
	ttl     time.Duration
	codeLen int
	log     *logger.Logger
	now     func() time.Time
}

// NewStore creates a challenge store over a challenge repository
func NewStore(repo repository.ChallengeRepository, pepper string, ttl time.Duration, codeLen int, log *logger.Logger) *Store {
	return &Store{
		repo:    repo,
		pepper:  pepper,
		ttl:     ttl,
		codeLen: codeLen,
		log:     log,
		now:     time.Now,
	}
}

// Issue generates a one-time numeric code for an email and persists its hash,
// replacing any prior pending challenge for that email. The raw code is
// returned for out-of-band delivery and exists nowhere else.
func (s *Store) Issue(ctx context.Context, email, requesterIP string) (string, error) {
	email = domain.NormalizeEmail(email)

	code, err := generateCode(s.codeLen)
	if err != nil {
		return "", fmt.Errorf("failed to generate challenge code: %w", err)
	}

	now := s.now()
	record := &domain.Challenge{
		Email:       email,
		CodeHash:    s.hashCode(code, email),
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
		RequesterIP: requesterIP,
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return "", fmt.Errorf("failed to persist challenge: %w", err)
	}

	return code, nil
}

// Verify consumes a challenge on the first matching code. Expired records are
// deleted lazily on read; a mismatch leaves the record in place so further
// attempts remain possible, bounded only by the rate limiter.
func (s *Store) Verify(ctx context.Context, email, candidate string) error {
	email = domain.NormalizeEmail(email)

	record, err := s.repo.Get(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			// Store failure degrades to rejection, never to admission
			s.log.WithError(err).Error("Challenge lookup failed")
		}
		return ErrInvalidOrExpired
	}

	if record.Expired(s.now()) {
		s.cleanupExpired(email)
		return ErrInvalidOrExpired
	}

	expected := []byte(record.CodeHash)
	got := []byte(s.hashCode(candidate, email))
	if subtle.ConstantTimeCompare(expected, got) != 1 {
		return ErrInvalidOrExpired
	}

	// One-time use: the consume delete must land before success is signaled
	if err := s.repo.Delete(ctx, email); err != nil {
		s.log.WithError(err).Error("Failed to consume challenge")
		return ErrInvalidOrExpired
	}

	return nil
}

// cleanupExpired removes a dead record without blocking the caller
func (s *Store) cleanupExpired(email string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.Delete(ctx, email); err != nil {
			s.log.WithError(err).Warn("Failed to delete expired challenge")
		}
	}()
}

// hashCode derives the at-rest digest. The code:email:pepper order and the
// colon separator are part of the contract between issuance and verification;
// changing either invalidates every outstanding challenge. Binding the email
// into the digest keeps a leaked hash from being replayed against another
// address.
func (s *Store) hashCode(code, normalizedEmail string) string {
	sum := sha256.Sum256([]byte(code + ":" + normalizedEmail + ":" + s.pepper))
	return hex.EncodeToString(sum[:])
}

// generateCode returns a fixed-length numeric code from a cryptographically
// strong source. Guessing resistance rests entirely on this entropy.
func generateCode(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
