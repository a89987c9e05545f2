package events

import "context"

// Streams
const (
	StreamBounty = "events:bounty"
)

// Event types
const (
	EventBountyStatusChanged = "bounty_status_changed"
	EventSubmissionReceived  = "submission_received"
	EventRevisionRequested   = "revision_requested"
	EventBountyApproved      = "bounty_approved"
	EventRatingSubmitted     = "rating_submitted"
	EventPaymentIssue        = "payment_issue"
	EventBountyReposted      = "bounty_reposted"
	EventHunterMissing       = "hunter_missing"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
