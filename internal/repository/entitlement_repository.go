package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"entauth/internal/domain"
	"entauth/pkg/database"
)

// PostgresEntitlementRepository reads subscription snapshots from the
// billing-owned subscriptions table
type PostgresEntitlementRepository struct {
	db *database.PostgresDB
}

// NewEntitlementRepository creates a Postgres-backed entitlement repository
func NewEntitlementRepository(db *database.PostgresDB) *PostgresEntitlementRepository {
	return &PostgresEntitlementRepository{db: db}
}

// GetByEmail fetches the current subscription snapshot for an email
func (r *PostgresEntitlementRepository) GetByEmail(ctx context.Context, email string) (*domain.EntitlementRecord, error) {
	var record domain.EntitlementRecord
	var periodEnd *time.Time
	query := `
		SELECT email, status, plan, current_period_end
		FROM subscriptions
		WHERE email = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, email).Scan(
		&record.Email,
		&record.Status,
		&record.Plan,
		&periodEnd,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}
	record.CurrentPeriodEnd = periodEnd
	return &record, nil
}
