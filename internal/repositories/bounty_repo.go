package repositories

import (
	"context"
	"fmt"

	"github.com/bounty-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BountyRepo struct {
	pool *pgxpool.Pool
}

func NewBountyRepo(pool *pgxpool.Pool) *BountyRepo {
	return &BountyRepo{pool: pool}
}

const bountyColumns = `id, poster_user_id, hunter_user_id, status, title, description,
	amount_cents, is_for_honor, work_type, location, hunter_missing,
	accepted_at, completed_at, created_at, updated_at`

func scanBounty(row interface{ Scan(...any) error }, b *models.Bounty) error {
	return row.Scan(&b.ID, &b.PosterUserID, &b.HunterUserID, &b.Status, &b.Title, &b.Description,
		&b.AmountCents, &b.IsForHonor, &b.WorkType, &b.Location, &b.HunterMissing,
		&b.AcceptedAt, &b.CompletedAt, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BountyRepo) Create(ctx context.Context, b *models.Bounty) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO bounties (poster_user_id, status, title, description, amount_cents, is_for_honor, work_type, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, b.PosterUserID, b.Status, b.Title, b.Description, b.AmountCents, b.IsForHonor, b.WorkType, b.Location,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BountyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Bounty, error) {
	var b models.Bounty
	err := scanBounty(r.pool.QueryRow(ctx, `SELECT `+bountyColumns+` FROM bounties WHERE id = $1`, id), &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BountyRepo) GetByIDWithUsers(ctx context.Context, id uuid.UUID) (*models.BountyWithUsers, error) {
	var b models.BountyWithUsers
	err := r.pool.QueryRow(ctx, `
		SELECT b.id, b.poster_user_id, b.hunter_user_id, b.status, b.title, b.description,
		       b.amount_cents, b.is_for_honor, b.work_type, b.location, b.hunter_missing,
		       b.accepted_at, b.completed_at, b.created_at, b.updated_at,
		       p.display_name, h.display_name
		FROM bounties b
		JOIN users p ON p.id = b.poster_user_id
		LEFT JOIN users h ON h.id = b.hunter_user_id
		WHERE b.id = $1
	`, id).Scan(&b.ID, &b.PosterUserID, &b.HunterUserID, &b.Status, &b.Title, &b.Description,
		&b.AmountCents, &b.IsForHonor, &b.WorkType, &b.Location, &b.HunterMissing,
		&b.AcceptedAt, &b.CompletedAt, &b.CreatedAt, &b.UpdatedAt,
		&b.PosterName, &b.HunterName)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

type BountyFilter struct {
	PosterUserID *uuid.UUID
	HunterUserID *uuid.UUID
	Status       *string
	WorkType     *string
	Limit        int
	Offset       int
}

func (r *BountyRepo) List(ctx context.Context, f BountyFilter) ([]models.Bounty, error) {
	query := `SELECT ` + bountyColumns + ` FROM bounties`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.PosterUserID != nil {
		where = append(where, fmt.Sprintf("poster_user_id = $%d", argIdx))
		args = append(args, *f.PosterUserID)
		argIdx++
	}
	if f.HunterUserID != nil {
		where = append(where, fmt.Sprintf("hunter_user_id = $%d", argIdx))
		args = append(args, *f.HunterUserID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}
	if f.WorkType != nil {
		where = append(where, fmt.Sprintf("work_type = $%d", argIdx))
		args = append(args, *f.WorkType)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bounties []models.Bounty
	for rows.Next() {
		var b models.Bounty
		if err := scanBounty(rows, &b); err != nil {
			return nil, err
		}
		bounties = append(bounties, b)
	}
	return bounties, nil
}

func (r *BountyRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `UPDATE bounties SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	return err
}

func (r *BountyRepo) AssignHunter(ctx context.Context, id, hunterID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bounties SET hunter_user_id = $1, accepted_at = now(), updated_at = now() WHERE id = $2
	`, hunterID, id)
	return err
}

// ClearHunter detaches the assigned hunter and resets the stale flag.
// Used by the repost path.
func (r *BountyRepo) ClearHunter(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bounties SET hunter_user_id = NULL, hunter_missing = false, accepted_at = NULL, updated_at = now()
		WHERE id = $1
	`, id)
	return err
}

func (r *BountyRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bounties SET status = $1, completed_at = now(), updated_at = now() WHERE id = $2
	`, models.BountyStatusCompleted, id)
	return err
}

func (r *BountyRepo) SetHunterMissing(ctx context.Context, id uuid.UUID, missing bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE bounties SET hunter_missing = $1, updated_at = now() WHERE id = $2`, missing, id)
	return err
}

// GetStaleCandidates returns in_progress bounties whose hunter account was
// soft-deleted but which are not flagged yet.
func (r *BountyRepo) GetStaleCandidates(ctx context.Context, limit int) ([]models.Bounty, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+prefixedBountyColumns("b")+`
		FROM bounties b
		JOIN users h ON h.id = b.hunter_user_id
		WHERE b.status = $1 AND b.hunter_missing = false AND h.deleted_at IS NOT NULL
		LIMIT $2
	`, models.BountyStatusInProgress, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bounties []models.Bounty
	for rows.Next() {
		var b models.Bounty
		if err := scanBounty(rows, &b); err != nil {
			return nil, err
		}
		bounties = append(bounties, b)
	}
	return bounties, nil
}

// GetCompletedBefore returns completed bounties last updated before the cutoff,
// for auto-archival.
func (r *BountyRepo) GetCompletedBefore(ctx context.Context, days int, limit int) ([]models.Bounty, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+bountyColumns+`
		FROM bounties
		WHERE status = $1 AND updated_at < now() - ($2 || ' days')::interval
		LIMIT $3
	`, models.BountyStatusCompleted, fmt.Sprintf("%d", days), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bounties []models.Bounty
	for rows.Next() {
		var b models.Bounty
		if err := scanBounty(rows, &b); err != nil {
			return nil, err
		}
		bounties = append(bounties, b)
	}
	return bounties, nil
}

func prefixedBountyColumns(alias string) string {
	return alias + `.id, ` + alias + `.poster_user_id, ` + alias + `.hunter_user_id, ` + alias + `.status, ` +
		alias + `.title, ` + alias + `.description, ` + alias + `.amount_cents, ` + alias + `.is_for_honor, ` +
		alias + `.work_type, ` + alias + `.location, ` + alias + `.hunter_missing, ` +
		alias + `.accepted_at, ` + alias + `.completed_at, ` + alias + `.created_at, ` + alias + `.updated_at`
}
