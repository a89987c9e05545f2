package models

import "testing"

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{BountyStatusOpen, BountyStatusInProgress, true},
		{BountyStatusInProgress, BountyStatusCompleted, true},
		{BountyStatusCompleted, BountyStatusArchived, true},
		{BountyStatusCompleted, BountyStatusDeleted, true},
		{BountyStatusArchived, BountyStatusDeleted, true},

		// Cancellation and repost paths
		{BountyStatusOpen, BountyStatusCancelled, true},
		{BountyStatusInProgress, BountyStatusCancelled, true},
		{BountyStatusInProgress, BountyStatusOpen, true},
		{BountyStatusCancelled, BountyStatusDeleted, true},
		{BountyStatusOpen, BountyStatusDeleted, true},
		{BountyStatusOpen, BountyStatusArchived, true},

		// Invalid transitions
		{BountyStatusOpen, BountyStatusCompleted, false},
		{BountyStatusCompleted, BountyStatusInProgress, false},
		{BountyStatusCompleted, BountyStatusCompleted, false},
		{BountyStatusCompleted, BountyStatusOpen, false},
		{BountyStatusCancelled, BountyStatusOpen, false},
		{BountyStatusCancelled, BountyStatusInProgress, false},
		{BountyStatusDeleted, BountyStatusOpen, false},
		{BountyStatusArchived, BountyStatusOpen, false},
		{BountyStatusInProgress, BountyStatusArchived, false},
		{"nonexistent", BountyStatusOpen, false},
		{BountyStatusOpen, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{
		BountyStatusOpen, BountyStatusInProgress, BountyStatusCompleted,
		BountyStatusCancelled, BountyStatusArchived, BountyStatusDeleted,
	}

	for _, status := range allStatuses {
		if _, ok := ValidBountyTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidBountyTransitions map", status)
		}
	}
}

func TestDeletedIsTerminal(t *testing.T) {
	if transitions := ValidBountyTransitions[BountyStatusDeleted]; len(transitions) != 0 {
		t.Errorf("deleted should have no transitions, got %v", transitions)
	}
}

func TestIsPaid(t *testing.T) {
	tests := []struct {
		name       string
		amount     int64
		isForHonor bool
		expected   bool
	}{
		{"paid bounty", 6000, false, true},
		{"for honor with amount", 6000, true, false},
		{"for honor zero amount", 0, true, false},
		{"zero amount not for honor", 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Bounty{AmountCents: tt.amount, IsForHonor: tt.isForHonor}
			if got := b.IsPaid(); got != tt.expected {
				t.Errorf("IsPaid() = %v, want %v", got, tt.expected)
			}
		})
	}
}
