package repositories

import (
	"context"
	"errors"

	"github.com/bounty-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PayoutRepo struct {
	pool *pgxpool.Pool
}

func NewPayoutRepo(pool *pgxpool.Pool) *PayoutRepo {
	return &PayoutRepo{pool: pool}
}

// Upsert refreshes the cached connect-account status for a user.
func (r *PayoutRepo) Upsert(ctx context.Context, s *models.ConnectAccountStatus) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payout_accounts (user_id, has_account, account_id, details_submitted, charges_enabled, payouts_enabled, requires_action, currently_due, refreshed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (user_id) DO UPDATE SET
			has_account = EXCLUDED.has_account,
			account_id = EXCLUDED.account_id,
			details_submitted = EXCLUDED.details_submitted,
			charges_enabled = EXCLUDED.charges_enabled,
			payouts_enabled = EXCLUDED.payouts_enabled,
			requires_action = EXCLUDED.requires_action,
			currently_due = EXCLUDED.currently_due,
			refreshed_at = now()
	`, s.UserID, s.HasAccount, s.AccountID, s.DetailsSubmitted, s.ChargesEnabled, s.PayoutsEnabled, s.RequiresAction, s.CurrentlyDue)
	return err
}

// GetByUser returns the cached status, or an empty not-started status when
// the user has never begun onboarding.
func (r *PayoutRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*models.ConnectAccountStatus, error) {
	var s models.ConnectAccountStatus
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, has_account, account_id, details_submitted, charges_enabled, payouts_enabled, requires_action, currently_due, refreshed_at
		FROM payout_accounts WHERE user_id = $1
	`, userID).Scan(&s.UserID, &s.HasAccount, &s.AccountID, &s.DetailsSubmitted, &s.ChargesEnabled, &s.PayoutsEnabled, &s.RequiresAction, &s.CurrentlyDue, &s.RefreshedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.ConnectAccountStatus{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
