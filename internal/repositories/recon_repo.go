package repositories

import (
	"context"
	"errors"

	"github.com/bounty-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReconRepo struct {
	pool *pgxpool.Pool
}

func NewReconRepo(pool *pgxpool.Pool) *ReconRepo {
	return &ReconRepo{pool: pool}
}

// Enqueue inserts a pending task. A bounty already queued for the same kind
// is left untouched, so repeated enqueues are safe.
func (r *ReconRepo) Enqueue(ctx context.Context, t *models.ReconciliationTask) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reconciliation_tasks (kind, bounty_id, status, next_retry_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (kind, bounty_id) WHERE status = 'pending' DO NOTHING
		RETURNING id, created_at
	`, t.Kind, t.BountyID, models.ReconStatusPending).Scan(&t.ID, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (r *ReconRepo) GetDue(ctx context.Context, limit int) ([]models.ReconciliationTask, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, bounty_id, attempts, status, last_error, created_at, resolved_at, next_retry_at
		FROM reconciliation_tasks
		WHERE status = $1 AND next_retry_at <= now()
		ORDER BY next_retry_at LIMIT $2
	`, models.ReconStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.ReconciliationTask
	for rows.Next() {
		var t models.ReconciliationTask
		if err := rows.Scan(&t.ID, &t.Kind, &t.BountyID, &t.Attempts, &t.Status, &t.LastError, &t.CreatedAt, &t.ResolvedAt, &t.NextRetryAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *ReconRepo) MarkDone(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reconciliation_tasks SET status = $1, resolved_at = now() WHERE id = $2
	`, models.ReconStatusDone, id)
	return err
}

// RecordFailure bumps the attempt counter and schedules the next retry with
// exponential backoff; past maxAttempts the task is parked as failed.
func (r *ReconRepo) RecordFailure(ctx context.Context, id uuid.UUID, errMsg string, maxAttempts int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reconciliation_tasks SET
			attempts = attempts + 1,
			last_error = $1,
			status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE status END,
			next_retry_at = now() + (power(2, least(attempts, 8)) || ' minutes')::interval
		WHERE id = $3
	`, errMsg, maxAttempts, id)
	return err
}
