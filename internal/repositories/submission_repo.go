package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bounty-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func (r *SubmissionRepo) Create(ctx context.Context, s *models.Submission) error {
	proofBytes, _ := json.Marshal(s.ProofItems)
	return r.pool.QueryRow(ctx, `
		INSERT INTO submissions (bounty_id, hunter_id, version, message, proof_items, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, submitted_at
	`, s.BountyID, s.HunterID, s.Version, s.Message, proofBytes, s.Status,
	).Scan(&s.ID, &s.SubmittedAt)
}

// GetActiveByBounty returns the current non-superseded submission for a
// bounty, or nil when the hunter has not submitted yet.
func (r *SubmissionRepo) GetActiveByBounty(ctx context.Context, bountyID uuid.UUID) (*models.Submission, error) {
	var s models.Submission
	var proofBytes []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, bounty_id, hunter_id, version, message, proof_items, status, feedback, submitted_at, reviewed_at
		FROM submissions
		WHERE bounty_id = $1 AND status != $2
		ORDER BY version DESC LIMIT 1
	`, bountyID, models.SubmissionStatusSuperseded,
	).Scan(&s.ID, &s.BountyID, &s.HunterID, &s.Version, &s.Message, &proofBytes, &s.Status, &s.Feedback, &s.SubmittedAt, &s.ReviewedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(proofBytes, &s.ProofItems)
	return &s, nil
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	var s models.Submission
	var proofBytes []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, bounty_id, hunter_id, version, message, proof_items, status, feedback, submitted_at, reviewed_at
		FROM submissions WHERE id = $1
	`, id).Scan(&s.ID, &s.BountyID, &s.HunterID, &s.Version, &s.Message, &proofBytes, &s.Status, &s.Feedback, &s.SubmittedAt, &s.ReviewedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(proofBytes, &s.ProofItems)
	return &s, nil
}

func (r *SubmissionRepo) MarkApproved(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE submissions SET status = $1, reviewed_at = now() WHERE id = $2
	`, models.SubmissionStatusApproved, id)
	return err
}

func (r *SubmissionRepo) MarkRevisionRequested(ctx context.Context, id uuid.UUID, feedback string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE submissions SET status = $1, feedback = $2, reviewed_at = now() WHERE id = $3
	`, models.SubmissionStatusRevisionRequested, feedback, id)
	return err
}

// SupersedeActive marks every non-approved submission for the bounty as
// superseded. Called before a resubmission so only one stays active.
func (r *SubmissionRepo) SupersedeActive(ctx context.Context, bountyID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE submissions SET status = $1
		WHERE bounty_id = $2 AND status IN ($3, $4)
	`, models.SubmissionStatusSuperseded, bountyID,
		models.SubmissionStatusSubmitted, models.SubmissionStatusRevisionRequested)
	return err
}

func (r *SubmissionRepo) GetMaxVersion(ctx context.Context, bountyID uuid.UUID) (int, error) {
	var v *int
	err := r.pool.QueryRow(ctx, `SELECT MAX(version) FROM submissions WHERE bounty_id = $1`, bountyID).Scan(&v)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}
