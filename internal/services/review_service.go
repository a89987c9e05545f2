package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bounty-marketplace/backend/internal/events"
	"github.com/bounty-marketplace/backend/internal/models"
	"github.com/bounty-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store interfaces for the review workflow. Declared here so the workflow
// can be exercised against fakes; the pgx repositories satisfy them.

type BountyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bounty, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	ClearHunter(ctx context.Context, id uuid.UUID) error
}

type SubmissionStore interface {
	GetActiveByBounty(ctx context.Context, bountyID uuid.UUID) (*models.Submission, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	MarkApproved(ctx context.Context, id uuid.UUID) error
	MarkRevisionRequested(ctx context.Context, id uuid.UUID, feedback string) error
	SupersedeActive(ctx context.Context, bountyID uuid.UUID) error
}

type RatingStore interface {
	Create(ctx context.Context, rating *models.Rating) error
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Ledger is the wallet surface the review workflow needs. WalletService
// implements it.
type Ledger interface {
	ReleaseFunds(ctx context.Context, bountyID, hunterID uuid.UUID, description string) error
	RefundHold(ctx context.Context, bountyID uuid.UUID) error
}

type ReconQueue interface {
	Enqueue(ctx context.Context, t *models.ReconciliationTask) error
}

type AuditSink interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

// ReviewService drives a bounty's post-acceptance lifecycle: proof review,
// approval with conditional escrow release, the revision loop, rating
// capture, and stale-assignment reconciliation.
type ReviewService struct {
	bounties    BountyStore
	submissions SubmissionStore
	ratings     RatingStore
	users       UserStore
	ledger      Ledger
	reconQueue  ReconQueue
	audit       AuditSink
	publisher   events.Publisher
	log         *zap.Logger

	// Per-bounty in-flight guard. The mobile client used to rely on
	// disabled-button timing; duplicate approve/revision/rating calls are
	// rejected here instead.
	inflight sync.Map
}

func NewReviewService(
	bounties BountyStore,
	submissions SubmissionStore,
	ratings RatingStore,
	users UserStore,
	ledger Ledger,
	reconQueue ReconQueue,
	audit AuditSink,
	publisher events.Publisher,
	log *zap.Logger,
) *ReviewService {
	return &ReviewService{
		bounties:    bounties,
		submissions: submissions,
		ratings:     ratings,
		users:       users,
		ledger:      ledger,
		reconQueue:  reconQueue,
		audit:       audit,
		publisher:   publisher,
		log:         log,
	}
}

func (s *ReviewService) lock(bountyID uuid.UUID, op string) (func(), error) {
	key := op + ":" + bountyID.String()
	if _, loaded := s.inflight.LoadOrStore(key, struct{}{}); loaded {
		return nil, ErrInFlight
	}
	return func() { s.inflight.Delete(key) }, nil
}

// transition validates and performs a bounty status transition with audit
// logging and event publication.
func (s *ReviewService) transition(ctx context.Context, bounty *models.Bounty, newStatus string, actorID *uuid.UUID, actorType string) error {
	if !models.IsValidTransition(bounty.Status, newStatus) {
		return fmt.Errorf("invalid transition from %s to %s", bounty.Status, newStatus)
	}

	oldStatus := bounty.Status
	if newStatus == models.BountyStatusCompleted {
		if err := s.bounties.MarkCompleted(ctx, bounty.ID); err != nil {
			return err
		}
	} else {
		if err := s.bounties.UpdateStatus(ctx, bounty.ID, newStatus); err != nil {
			return err
		}
	}
	bounty.Status = newStatus

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: actorID,
		ActorType:   actorType,
		Action:      fmt.Sprintf("bounty_status_%s_to_%s", oldStatus, newStatus),
		EntityType:  "bounty",
		EntityID:    &bounty.ID,
		Meta:        map[string]any{"old_status": oldStatus, "new_status": newStatus},
	})

	_ = s.publisher.Publish(ctx, events.StreamBounty, events.Event{
		Type: events.EventBountyStatusChanged,
		Payload: map[string]any{
			"bounty_id":  bounty.ID.String(),
			"old_status": oldStatus,
			"new_status": newStatus,
		},
	})

	return nil
}

// LoadSubmission returns the current submission for a bounty, or nil when
// the hunter has not submitted yet. Read-only, so repeated calls with no
// intervening mutation return equal data.
func (s *ReviewService) LoadSubmission(ctx context.Context, bountyID uuid.UUID) (*models.Submission, error) {
	return s.submissions.GetActiveByBounty(ctx, bountyID)
}

// ApprovalResult reports what happened during an approval. PaymentIssue is
// set when the approval stood but the fund release failed; the release has
// been queued for reconciliation.
type ApprovalResult struct {
	BountyID        uuid.UUID `json:"bounty_id"`
	PaymentReleased bool      `json:"payment_released"`
	PaymentIssue    bool      `json:"payment_issue"`
}

// Approve marks the active submission approved and completes the bounty.
// For paid bounties the escrow is released to the hunter exactly once.
// Fund-release failure is non-fatal: the approval stands, the release is
// queued for retry, and the result carries a payment-issue flag. Rolling
// back a committed approval would strand the bounty, so forward progress
// wins over consistency here.
func (s *ReviewService) Approve(ctx context.Context, bountyID, actorID uuid.UUID) (*ApprovalResult, error) {
	unlock, err := s.lock(bountyID, "approve")
	if err != nil {
		return nil, err
	}
	defer unlock()

	bounty, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		return nil, err
	}
	if bounty.PosterUserID != actorID {
		return nil, ErrForbidden
	}
	// Double approval lands here: completed -> completed is not a valid
	// transition, so the second call is rejected before any side effect.
	if !models.IsValidTransition(bounty.Status, models.BountyStatusCompleted) {
		return nil, fmt.Errorf("invalid transition from %s to %s", bounty.Status, models.BountyStatusCompleted)
	}

	sub, err := s.submissions.GetActiveByBounty(ctx, bountyID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("no submission to approve")
	}

	if err := s.submissions.MarkApproved(ctx, sub.ID); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, bounty, models.BountyStatusCompleted, &actorID, "user"); err != nil {
		return nil, err
	}

	result := &ApprovalResult{BountyID: bountyID}

	if bounty.IsPaid() && bounty.HunterUserID != nil {
		desc := fmt.Sprintf("payment for %q", bounty.Title)
		if err := s.ledger.ReleaseFunds(ctx, bountyID, *bounty.HunterUserID, desc); err != nil {
			s.log.Warn("fund release failed after approval",
				zap.String("bounty_id", bountyID.String()),
				zap.Error(err),
			)
			result.PaymentIssue = true
			_ = s.reconQueue.Enqueue(ctx, &models.ReconciliationTask{
				Kind:     models.ReconTaskPaymentRelease,
				BountyID: bountyID,
			})
			_ = s.publisher.Publish(ctx, events.StreamBounty, events.Event{
				Type:    events.EventPaymentIssue,
				Payload: map[string]any{"bounty_id": bountyID.String()},
			})
		} else {
			result.PaymentReleased = true
		}
	}

	_ = s.publisher.Publish(ctx, events.StreamBounty, events.Event{
		Type: events.EventBountyApproved,
		Payload: map[string]any{
			"bounty_id":        bountyID.String(),
			"payment_released": result.PaymentReleased,
		},
	})

	return result, nil
}

// RequestRevision attaches feedback to a submission and hands control back
// to the hunter. Empty or whitespace-only feedback is rejected before any
// store call; the bounty stays in_progress.
func (s *ReviewService) RequestRevision(ctx context.Context, submissionID, actorID uuid.UUID, feedback string) error {
	if strings.TrimSpace(feedback) == "" {
		return validationErr("feedback", "must not be empty")
	}

	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return err
	}

	unlock, err := s.lock(sub.BountyID, "review")
	if err != nil {
		return err
	}
	defer unlock()

	bounty, err := s.bounties.GetByID(ctx, sub.BountyID)
	if err != nil {
		return err
	}
	if bounty.PosterUserID != actorID {
		return ErrForbidden
	}
	if sub.Status != models.SubmissionStatusSubmitted {
		return fmt.Errorf("submission is not awaiting review: %s", sub.Status)
	}

	if err := s.submissions.MarkRevisionRequested(ctx, submissionID, feedback); err != nil {
		return err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      "revision_requested",
		EntityType:  "submission",
		EntityID:    &submissionID,
		Meta:        map[string]any{"feedback": feedback},
	})
	_ = s.publisher.Publish(ctx, events.StreamBounty, events.Event{
		Type: events.EventRevisionRequested,
		Payload: map[string]any{
			"bounty_id":     bounty.ID.String(),
			"submission_id": submissionID.String(),
		},
	})

	return nil
}

// RatingResult reports whether the rating was persisted. Saved=false with a
// nil error means the store failed after a durable approval: the flow still
// completes and the bounty is never re-opened over a lost rating.
type RatingResult struct {
	Saved  bool           `json:"saved"`
	Rating *models.Rating `json:"rating,omitempty"`
}

// SubmitRating records a 1-5 star rating for a completed bounty. Score 0
// ("no selection") and out-of-range scores are rejected before any store
// call, as are over-long comments.
func (s *ReviewService) SubmitRating(ctx context.Context, bountyID, actorID, toUserID uuid.UUID, score int, comment *string) (*RatingResult, error) {
	if !models.IsValidScore(score) {
		return nil, validationErr("score", "must be between 1 and 5")
	}
	if comment != nil && len(*comment) > models.RatingMaxCommentLength {
		return nil, validationErr("comment", "must be at most 500 characters")
	}

	unlock, err := s.lock(bountyID, "rating")
	if err != nil {
		return nil, err
	}
	defer unlock()

	bounty, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		return nil, err
	}
	if bounty.Status != models.BountyStatusCompleted && bounty.Status != models.BountyStatusArchived {
		return nil, fmt.Errorf("bounty is not completed")
	}
	if bounty.PosterUserID != actorID && (bounty.HunterUserID == nil || *bounty.HunterUserID != actorID) {
		return nil, ErrForbidden
	}

	rating := &models.Rating{
		BountyID:   bountyID,
		FromUserID: actorID,
		ToUserID:   toUserID,
		Score:      score,
		Comment:    comment,
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		if err == repositories.ErrDuplicateRating {
			return nil, validationErr("rating", "already submitted for this bounty")
		}
		// Best effort past this point: the approval is already durable, so
		// a lost rating must not fail the flow.
		s.log.Warn("rating persistence failed",
			zap.String("bounty_id", bountyID.String()),
			zap.Error(err),
		)
		return &RatingResult{Saved: false}, nil
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &actorID,
		ActorType:   "user",
		Action:      "rating_submitted",
		EntityType:  "bounty",
		EntityID:    &bountyID,
		Meta:        map[string]any{"score": score},
	})
	_ = s.publisher.Publish(ctx, events.StreamBounty, events.Event{
		Type: events.EventRatingSubmitted,
		Payload: map[string]any{
			"bounty_id":  bountyID.String(),
			"to_user_id": toUserID.String(),
			"score":      score,
		},
	})

	return &RatingResult{Saved: true, Rating: rating}, nil
}

// requireStale verifies that the bounty's assigned hunter is gone.
func (s *ReviewService) requireStale(ctx context.Context, bounty *models.Bounty, actorID uuid.UUID) error {
	if bounty.PosterUserID != actorID {
		return ErrForbidden
	}
	if bounty.Status != models.BountyStatusInProgress || bounty.HunterUserID == nil {
		return fmt.Errorf("bounty has no active assignment")
	}
	if bounty.HunterMissing {
		return nil
	}
	hunter, err := s.users.GetByID(ctx, *bounty.HunterUserID)
	if err == nil && !hunter.IsDeleted() {
		return fmt.Errorf("hunter account is still active")
	}
	return nil
}

// CancelStale cancels a bounty whose hunter account no longer exists and
// refunds the escrow hold to the poster. The refund runs first: if it
// fails, nothing changes and the poster can try again.
func (s *ReviewService) CancelStale(ctx context.Context, bountyID, actorID uuid.UUID) error {
	unlock, err := s.lock(bountyID, "stale")
	if err != nil {
		return err
	}
	defer unlock()

	bounty, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		return err
	}
	if err := s.requireStale(ctx, bounty, actorID); err != nil {
		return err
	}

	if bounty.IsPaid() {
		if err := s.ledger.RefundHold(ctx, bountyID); err != nil {
			return fmt.Errorf("refund failed: %w", err)
		}
	}

	return s.transition(ctx, bounty, models.BountyStatusCancelled, &actorID, "user")
}

// RepostStale resets a stale bounty to open so new hunters can apply. The
// escrow hold stays funded: the poster still intends to pay once someone
// completes the work.
func (s *ReviewService) RepostStale(ctx context.Context, bountyID, actorID uuid.UUID) error {
	unlock, err := s.lock(bountyID, "stale")
	if err != nil {
		return err
	}
	defer unlock()

	bounty, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		return err
	}
	if err := s.requireStale(ctx, bounty, actorID); err != nil {
		return err
	}

	if err := s.transition(ctx, bounty, models.BountyStatusOpen, &actorID, "user"); err != nil {
		return err
	}
	if err := s.bounties.ClearHunter(ctx, bountyID); err != nil {
		return err
	}
	// The departed hunter's submission is dead weight for new applicants.
	if err := s.submissions.SupersedeActive(ctx, bountyID); err != nil {
		s.log.Warn("failed to supersede submissions on repost", zap.Error(err))
	}

	_ = s.publisher.Publish(ctx, events.StreamBounty, events.Event{
		Type:    events.EventBountyReposted,
		Payload: map[string]any{"bounty_id": bountyID.String()},
	})

	return nil
}

// RetryRelease re-attempts the fund release for an approved-but-unpaid
// bounty. Used by the reconciliation worker.
func (s *ReviewService) RetryRelease(ctx context.Context, bountyID uuid.UUID) error {
	bounty, err := s.bounties.GetByID(ctx, bountyID)
	if err != nil {
		return err
	}
	if bounty.Status != models.BountyStatusCompleted && bounty.Status != models.BountyStatusArchived {
		return fmt.Errorf("bounty is not completed: %s", bounty.Status)
	}
	if !bounty.IsPaid() || bounty.HunterUserID == nil {
		return fmt.Errorf("bounty has nothing to release")
	}
	return s.ledger.ReleaseFunds(ctx, bountyID, *bounty.HunterUserID, fmt.Sprintf("payment for %q", bounty.Title))
}
