package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger entry types
const (
	LedgerEntryDeposit    = "deposit"
	LedgerEntryWithdrawal = "withdrawal"
	LedgerEntryEscrowHold = "escrow_hold"
	LedgerEntryRelease    = "release"
	LedgerEntryRefund     = "refund"
)

// Hold settlement states (escrow_hold entries only)
const (
	HoldStatusHeld     = "held"
	HoldStatusReleased = "released"
	HoldStatusRefunded = "refunded"
)

// LedgerEntry is one row of the double-entry wallet ledger. Amounts are
// signed from the owning user's perspective: positive = credit, negative =
// debit. Release and refund entries reference the escrow_hold they settle
// via HoldEntryID; a hold is settled at most once.
type LedgerEntry struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Type           string     `json:"type"`
	AmountCents    int64      `json:"amount_cents"`
	BountyID       *uuid.UUID `json:"bounty_id,omitempty"`
	HoldEntryID    *uuid.UUID `json:"hold_entry_id,omitempty"`
	HoldStatus     *string    `json:"hold_status,omitempty"`
	CounterpartyID *uuid.UUID `json:"counterparty_id,omitempty"`
	Description    string     `json:"description"`
	ExternalRef    *string    `json:"external_ref,omitempty"` // processor intent/transfer id
	CreatedAt      time.Time  `json:"created_at"`
}

// SumBalance returns the signed sum of the given entries.
func SumBalance(entries []LedgerEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.AmountCents
	}
	return total
}

// WalletSummary is the client-facing view: derived balance plus history.
type WalletSummary struct {
	UserID       uuid.UUID     `json:"user_id"`
	BalanceCents int64         `json:"balance_cents"`
	Entries      []LedgerEntry `json:"entries"`
}
