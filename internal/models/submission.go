package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission statuses
const (
	SubmissionStatusSubmitted         = "submitted"
	SubmissionStatusRevisionRequested = "revision_requested"
	SubmissionStatusApproved          = "approved"
	SubmissionStatusSuperseded        = "superseded"
)

// Proof item types
const (
	ProofItemTypeImage = "image"
	ProofItemTypeFile  = "file"
)

type ProofItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // image / file
	Size int64  `json:"size"`
}

// Submission is a hunter's proof-of-completion for a bounty.
// At most one non-superseded submission exists per bounty; a resubmission
// after a revision request supersedes the previous one.
type Submission struct {
	ID          uuid.UUID   `json:"id"`
	BountyID    uuid.UUID   `json:"bounty_id"`
	HunterID    uuid.UUID   `json:"hunter_id"`
	Version     int         `json:"version"`
	Message     string      `json:"message"`
	ProofItems  []ProofItem `json:"proof_items,omitempty"`
	Status      string      `json:"status"`
	Feedback    *string     `json:"feedback,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at"`
	ReviewedAt  *time.Time  `json:"reviewed_at,omitempty"`
}
