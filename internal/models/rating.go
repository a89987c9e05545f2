package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RatingMinScore         = 1
	RatingMaxScore         = 5
	RatingMaxCommentLength = 500
)

// Rating is a 1-5 star review tied to a completed bounty.
// One rating per (bounty, rater, ratee) — enforced by a unique index.
type Rating struct {
	ID         uuid.UUID `json:"id"`
	BountyID   uuid.UUID `json:"bounty_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	Score      int       `json:"score"`
	Comment    *string   `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func IsValidScore(score int) bool {
	return score >= RatingMinScore && score <= RatingMaxScore
}
