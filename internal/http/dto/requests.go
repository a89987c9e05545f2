package dto

import "github.com/bounty-marketplace/backend/internal/models"

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateBountyRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	AmountCents int64   `json:"amount_cents"`
	IsForHonor  bool    `json:"is_for_honor"`
	WorkType    string  `json:"work_type"` // online / in_person
	Location    *string `json:"location,omitempty"`
}

type SubmitProofRequest struct {
	Message    string             `json:"message"`
	ProofItems []models.ProofItem `json:"proof_items,omitempty"`
}

type RequestRevisionRequest struct {
	Feedback string `json:"feedback"`
}

type SubmitRatingRequest struct {
	ToUserID string  `json:"to_user_id"`
	Score    int     `json:"score"`
	Comment  *string `json:"comment,omitempty"`
}

type DepositRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method,omitempty"`
}
