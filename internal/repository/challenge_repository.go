package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"entauth/internal/domain"
	"entauth/pkg/database"
)

// PostgresChallengeRepository stores challenges in the auth_challenges table
type PostgresChallengeRepository struct {
	db *database.PostgresDB
}

// NewChallengeRepository creates a Postgres-backed challenge repository
func NewChallengeRepository(db *database.PostgresDB) *PostgresChallengeRepository {
	return &PostgresChallengeRepository{db: db}
}

// Upsert writes a challenge row, replacing any prior challenge for the email
func (r *PostgresChallengeRepository) Upsert(ctx context.Context, challenge *domain.Challenge) error {
	query := `
		INSERT INTO auth_challenges (email, code_hash, expires_at, created_at, requester_ip)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE
		SET code_hash = EXCLUDED.code_hash,
		    expires_at = EXCLUDED.expires_at,
		    created_at = EXCLUDED.created_at,
		    requester_ip = EXCLUDED.requester_ip
	`

	_, err := r.db.Pool.Exec(ctx, query,
		challenge.Email,
		challenge.CodeHash,
		challenge.ExpiresAt,
		challenge.CreatedAt,
		challenge.RequesterIP,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert challenge: %w", err)
	}
	return nil
}

// Get fetches the live challenge row for an email
func (r *PostgresChallengeRepository) Get(ctx context.Context, email string) (*domain.Challenge, error) {
	var challenge domain.Challenge
	query := `
		SELECT email, code_hash, expires_at, created_at, requester_ip
		FROM auth_challenges
		WHERE email = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, email).Scan(
		&challenge.Email,
		&challenge.CodeHash,
		&challenge.ExpiresAt,
		&challenge.CreatedAt,
		&challenge.RequesterIP,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return &challenge, nil
}

// Delete removes the challenge row for an email
func (r *PostgresChallengeRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM auth_challenges WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}
