package repositories

import (
	"context"
	"errors"

	"github.com/bounty-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RatingRepo struct {
	pool *pgxpool.Pool
}

func NewRatingRepo(pool *pgxpool.Pool) *RatingRepo {
	return &RatingRepo{pool: pool}
}

// ErrDuplicateRating is returned when a rating for the same
// (bounty, rater, ratee) tuple already exists.
var ErrDuplicateRating = errors.New("rating already exists for this bounty")

func (r *RatingRepo) Create(ctx context.Context, rating *models.Rating) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ratings (bounty_id, from_user_id, to_user_id, score, comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bounty_id, from_user_id, to_user_id) DO NOTHING
		RETURNING id, created_at
	`, rating.BountyID, rating.FromUserID, rating.ToUserID, rating.Score, rating.Comment,
	).Scan(&rating.ID, &rating.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicateRating
	}
	return err
}

func (r *RatingRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Rating, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, bounty_id, from_user_id, to_user_id, score, comment, created_at
		FROM ratings WHERE to_user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(&rt.ID, &rt.BountyID, &rt.FromUserID, &rt.ToUserID, &rt.Score, &rt.Comment, &rt.CreatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, rt)
	}
	return ratings, nil
}

func (r *RatingRepo) AverageForUser(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	var avg *float64
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT AVG(score)::float8, COUNT(*) FROM ratings WHERE to_user_id = $1
	`, userID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	if avg == nil {
		return 0, 0, nil
	}
	return *avg, count, nil
}
