package models

import (
	"time"

	"github.com/google/uuid"
)

// Reconciliation task kinds
const (
	ReconTaskPaymentRelease = "payment_release"
)

// Reconciliation task statuses
const (
	ReconStatusPending = "pending"
	ReconStatusDone    = "done"
	ReconStatusFailed  = "failed"
)

// ReconciliationTask records an approved-but-unpaid bounty so the worker
// can retry the fund release instead of leaving only a one-time alert.
type ReconciliationTask struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	BountyID    uuid.UUID  `json:"bounty_id"`
	Attempts    int        `json:"attempts"`
	Status      string     `json:"status"`
	LastError   *string    `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	NextRetryAt time.Time  `json:"next_retry_at"`
}
