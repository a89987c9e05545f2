package repositories

import (
	"context"
	"errors"

	"github.com/bounty-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrHoldAlreadySettled is returned when a release or refund targets an
// escrow hold that was already released or refunded.
var ErrHoldAlreadySettled = errors.New("escrow hold already settled")

// ErrHoldNotFound is returned when a bounty has no held escrow entry.
var ErrHoldNotFound = errors.New("no escrow hold for bounty")

type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

func (r *LedgerRepo) Append(ctx context.Context, e *models.LedgerEntry) error {
	return r.appendTx(ctx, r.pool, e)
}

// appendTx inserts an entry using either the pool or an open transaction.
func (r *LedgerRepo) appendTx(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, e *models.LedgerEntry) error {
	return q.QueryRow(ctx, `
		INSERT INTO ledger_entries (user_id, type, amount_cents, bounty_id, hold_entry_id, hold_status, counterparty_id, description, external_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, e.UserID, e.Type, e.AmountCents, e.BountyID, e.HoldEntryID, e.HoldStatus, e.CounterpartyID, e.Description, e.ExternalRef,
	).Scan(&e.ID, &e.CreatedAt)
}

// GetHeldByBounty returns the still-held escrow entry for a bounty.
func (r *LedgerRepo) GetHeldByBounty(ctx context.Context, bountyID uuid.UUID) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, type, amount_cents, bounty_id, hold_entry_id, hold_status, counterparty_id, description, external_ref, created_at
		FROM ledger_entries
		WHERE bounty_id = $1 AND type = $2 AND hold_status = $3
	`, bountyID, models.LedgerEntryEscrowHold, models.HoldStatusHeld,
	).Scan(&e.ID, &e.UserID, &e.Type, &e.AmountCents, &e.BountyID, &e.HoldEntryID, &e.HoldStatus, &e.CounterpartyID, &e.Description, &e.ExternalRef, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SettleHold atomically flips a hold to released/refunded and appends the
// linked settlement entry. The guarded UPDATE makes settlement exactly-once:
// a second call finds no held row and fails with ErrHoldAlreadySettled.
func (r *LedgerRepo) SettleHold(ctx context.Context, holdID uuid.UUID, newStatus string, settlement *models.LedgerEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE ledger_entries SET hold_status = $1
		WHERE id = $2 AND type = $3 AND hold_status = $4
	`, newStatus, holdID, models.LedgerEntryEscrowHold, models.HoldStatusHeld)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrHoldAlreadySettled
	}

	settlement.HoldEntryID = &holdID
	if err := r.appendTx(ctx, tx, settlement); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *LedgerRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, amount_cents, bounty_id, hold_entry_id, hold_status, counterparty_id, description, external_ref, created_at
		FROM ledger_entries WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.AmountCents, &e.BountyID, &e.HoldEntryID, &e.HoldStatus, &e.CounterpartyID, &e.Description, &e.ExternalRef, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *LedgerRepo) BalanceForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance *int64
	err := r.pool.QueryRow(ctx, `
		SELECT SUM(amount_cents) FROM ledger_entries WHERE user_id = $1
	`, userID).Scan(&balance)
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}
	return *balance, nil
}
