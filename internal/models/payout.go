package models

import (
	"time"

	"github.com/google/uuid"
)

// Payout onboarding stages, in priority order of display.
const (
	PayoutStageEnabled             = "payouts_enabled"
	PayoutStageNeedsMoreInfo       = "needs_more_info"
	PayoutStageInProgress          = "in_progress"
	PayoutStagePendingVerification = "pending_verification"
	PayoutStageNotStarted          = "not_started"
)

// ConnectAccountStatus is the cached readiness of a user's payout account
// at the payment processor. There is no push signal from the processor;
// the row is refreshed on demand.
type ConnectAccountStatus struct {
	UserID           uuid.UUID `json:"user_id"`
	HasAccount       bool      `json:"has_account"`
	AccountID        *string   `json:"account_id,omitempty"`
	DetailsSubmitted bool      `json:"details_submitted"`
	ChargesEnabled   bool      `json:"charges_enabled"`
	PayoutsEnabled   bool      `json:"payouts_enabled"`
	RequiresAction   bool      `json:"requires_action"`
	CurrentlyDue     []string  `json:"currently_due,omitempty"`
	RefreshedAt      time.Time `json:"refreshed_at"`
}

// Stage resolves the single call-to-action to present, first match wins.
func (s *ConnectAccountStatus) Stage() string {
	switch {
	case s.PayoutsEnabled:
		return PayoutStageEnabled
	case s.HasAccount && s.RequiresAction:
		return PayoutStageNeedsMoreInfo
	case s.HasAccount && !s.DetailsSubmitted:
		return PayoutStageInProgress
	case s.HasAccount && s.DetailsSubmitted && !s.PayoutsEnabled:
		return PayoutStagePendingVerification
	default:
		return PayoutStageNotStarted
	}
}
