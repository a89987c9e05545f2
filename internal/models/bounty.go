package models

import (
	"time"

	"github.com/google/uuid"
)

// Bounty statuses
const (
	BountyStatusOpen       = "open"
	BountyStatusInProgress = "in_progress"
	BountyStatusCompleted  = "completed"
	BountyStatusCancelled  = "cancelled"
	BountyStatusArchived   = "archived"
	BountyStatusDeleted    = "deleted"
)

// Work types
const (
	WorkTypeOnline   = "online"
	WorkTypeInPerson = "in_person"
)

// Valid state transitions: from -> []to
var ValidBountyTransitions = map[string][]string{
	BountyStatusOpen:       {BountyStatusInProgress, BountyStatusCancelled, BountyStatusArchived, BountyStatusDeleted},
	BountyStatusInProgress: {BountyStatusCompleted, BountyStatusCancelled, BountyStatusOpen},
	BountyStatusCompleted:  {BountyStatusArchived, BountyStatusDeleted},
	BountyStatusCancelled:  {BountyStatusDeleted},
	BountyStatusArchived:   {BountyStatusDeleted},
	BountyStatusDeleted:    {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidBountyTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func IsValidWorkType(wt string) bool {
	return wt == WorkTypeOnline || wt == WorkTypeInPerson
}

type Bounty struct {
	ID            uuid.UUID  `json:"id"`
	PosterUserID  uuid.UUID  `json:"poster_user_id"`
	HunterUserID  *uuid.UUID `json:"hunter_user_id,omitempty"`
	Status        string     `json:"status"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	AmountCents   int64      `json:"amount_cents"`
	IsForHonor    bool       `json:"is_for_honor"`
	WorkType      string     `json:"work_type"` // online / in_person
	Location      *string    `json:"location,omitempty"`
	HunterMissing bool       `json:"hunter_missing"`
	AcceptedAt    *time.Time `json:"accepted_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsPaid reports whether completing this bounty moves money.
// For-honor bounties never pay out, whatever the stored amount says.
func (b *Bounty) IsPaid() bool {
	return !b.IsForHonor && b.AmountCents > 0
}

// BountyWithUsers embeds Bounty and adds display names to avoid N+1 queries.
type BountyWithUsers struct {
	Bounty
	PosterName *string `json:"poster_name,omitempty"`
	HunterName *string `json:"hunter_name,omitempty"`
}
