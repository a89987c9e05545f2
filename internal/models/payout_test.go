package models

import "testing"

func TestConnectAccountStage(t *testing.T) {
	tests := []struct {
		name     string
		status   ConnectAccountStatus
		expected string
	}{
		{
			"not started",
			ConnectAccountStatus{},
			PayoutStageNotStarted,
		},
		{
			"account created, details not submitted",
			ConnectAccountStatus{HasAccount: true},
			PayoutStageInProgress,
		},
		{
			"details submitted, pending verification",
			ConnectAccountStatus{HasAccount: true, DetailsSubmitted: true},
			PayoutStagePendingVerification,
		},
		{
			"requires action",
			ConnectAccountStatus{HasAccount: true, RequiresAction: true, CurrentlyDue: []string{"individual.dob"}},
			PayoutStageNeedsMoreInfo,
		},
		{
			"fully enabled",
			ConnectAccountStatus{HasAccount: true, DetailsSubmitted: true, ChargesEnabled: true, PayoutsEnabled: true},
			PayoutStageEnabled,
		},
		{
			// payouts_enabled wins even if the processor still lists due fields
			"enabled outranks requires action",
			ConnectAccountStatus{HasAccount: true, PayoutsEnabled: true, RequiresAction: true},
			PayoutStageEnabled,
		},
		{
			"requires action outranks details not submitted",
			ConnectAccountStatus{HasAccount: true, RequiresAction: true, DetailsSubmitted: false},
			PayoutStageNeedsMoreInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Stage(); got != tt.expected {
				t.Errorf("Stage() = %q, want %q", got, tt.expected)
			}
		})
	}
}
