package models

import "testing"

func TestSumBalance(t *testing.T) {
	entries := []LedgerEntry{
		{Type: LedgerEntryDeposit, AmountCents: 10000},
		{Type: LedgerEntryEscrowHold, AmountCents: -6000},
		{Type: LedgerEntryRefund, AmountCents: 6000},
		{Type: LedgerEntryEscrowHold, AmountCents: -2500},
	}

	if got := SumBalance(entries); got != 7500 {
		t.Errorf("SumBalance = %d, want 7500", got)
	}
}

func TestSumBalanceEmpty(t *testing.T) {
	if got := SumBalance(nil); got != 0 {
		t.Errorf("SumBalance(nil) = %d, want 0", got)
	}
}
