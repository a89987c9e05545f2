package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/bounty-marketplace/backend/internal/events"
	"github.com/bounty-marketplace/backend/internal/models"
	"github.com/bounty-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BountyService struct {
	bountyRepo     *repositories.BountyRepo
	submissionRepo *repositories.SubmissionRepo
	auditRepo      *repositories.AuditRepo
	wallet         *WalletService
	publisher      events.Publisher
	log            *zap.Logger
}

func NewBountyService(
	bountyRepo *repositories.BountyRepo,
	submissionRepo *repositories.SubmissionRepo,
	auditRepo *repositories.AuditRepo,
	wallet *WalletService,
	publisher events.Publisher,
	log *zap.Logger,
) *BountyService {
	return &BountyService{
		bountyRepo:     bountyRepo,
		submissionRepo: submissionRepo,
		auditRepo:      auditRepo,
		wallet:         wallet,
		publisher:      publisher,
		log:            log,
	}
}

// transition validates and performs a status transition with audit logging.
func (s *BountyService) transition(ctx context.Context, bounty *models.Bounty, newStatus string, actorID *uuid.UUID, actorType string) error {
	if !models.IsValidTransition(bounty.Status, newStatus) {
		return fmt.Errorf("invalid transition from %s to %s", bounty.Status, newStatus)
	}

	oldStatus := bounty.Status
	if err := s.bountyRepo.UpdateStatus(ctx, bounty.ID, newStatus); err != nil {
		return err
	}
	bounty.Status = newStatus

	_ = s.auditRepo.Log(ctx, models.AuditLog{
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

type CreateBountyInput struct {
	Title       string
	Description *string
	AmountCents int64
	IsForHonor  bool
	WorkType    string
	Location    *string
}

// CreateBounty posts a new bounty. Paid bounties escrow their amount out of
// the poster's wallet balance immediately; for-honor bounties carry no
// amount at all.
func (s *BountyService) CreateBounty(ctx context.Context, posterID uuid.UUID, input CreateBountyInput) (*models.Bounty, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, validationErr("title", "must not be empty")
	}
	if !models.IsValidWorkType(input.WorkType) {
		return nil, validationErr("work_type", "must be online or in_person")
	}
	if input.IsForHonor {
		// Amount is meaningless on a for-honor bounty.
		input.AmountCents = 0
	} else if input.AmountCents <= 0 {
		return nil, validationErr("amount", "paid bounty requires a positive amount")
	}
	if input.WorkType == models.WorkTypeInPerson && (input.Location == nil || strings.TrimSpace(*input.Location) == "") {
		return nil, validationErr("location", "in_person bounty requires a location")
	}

	bounty := &models.Bounty{
		PosterUserID: posterID,
		Status:       models.BountyStatusOpen,
		Title:        input.Title,
		Description:  input.Description,
		AmountCents:  input.AmountCents,
		IsForHonor:   input.IsForHonor,
		WorkType:     input.WorkType,
		Location:     input.Location,
	}
	if err := s.bountyRepo.Create(ctx, bounty); err != nil {
		return nil, err
	}

	if bounty.IsPaid() {
		if err := s.wallet.HoldForBounty(ctx, bounty); err != nil {
			// No escrow, no listing.
			_ = s.bountyRepo.UpdateStatus(ctx, bounty.ID, models.BountyStatusDeleted)
			return nil, err
		}
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &posterID,
		ActorType:   "user",
		Action:      "bounty_created",
		EntityType:  "bounty",
		EntityID:    &bounty.ID,
		Meta:        map[string]any{"amount_cents": bounty.AmountCents, "is_for_honor": bounty.IsForHonor},
	})

	return bounty, nil
}

// AcceptBounty assigns a hunter to an open bounty.
func (s *BountyService) AcceptBounty(ctx context.Context, bountyID, hunterID uuid.UUID) error {
	bounty, err := s.bountyRepo.GetByID(ctx, bountyID)
	if err != nil {
		return err
	}
	if bounty.PosterUserID == hunterID {
		return fmt.Errorf("poster cannot accept their own bounty")
	}
	if err := s.transition(ctx, bounty, models.BountyStatusInProgress, &hunterID, "user"); err != nil {
		return err
	}
	return s.bountyRepo.AssignHunter(ctx, bountyID, hunterID)
}

type SubmitProofInput struct {
	Message    string
	ProofItems []models.ProofItem
}

// SubmitProof records the hunter's proof-of-completion. A resubmission
// after a revision request supersedes the previous submission so at most
// one stays active.
func (s *BountyService) SubmitProof(ctx context.Context, bountyID, hunterID uuid.UUID, input SubmitProofInput) (*models.Submission, error) {
	if strings.TrimSpace(input.Message) == "" && len(input.ProofItems) == 0 {
		return nil, validationErr("message", "submission needs a message or at least one proof item")
	}
	for _, item := range input.ProofItems {
		if item.Type != models.ProofItemTypeImage && item.Type != models.ProofItemTypeFile {
			return nil, validationErr("proof_items", fmt.Sprintf("unknown proof type %q", item.Type))
		}
	}

	bounty, err := s.bountyRepo.GetByID(ctx, bountyID)
	if err != nil {
		return nil, err
	}
	if bounty.Status != models.BountyStatusInProgress {
		return nil, fmt.Errorf("bounty is not in progress: %s", bounty.Status)
	}
	if bounty.HunterUserID == nil || *bounty.HunterUserID != hunterID {
		return nil, ErrForbidden
	}

	if err := s.submissionRepo.SupersedeActive(ctx, bountyID); err != nil {
		return nil, err
	}

	maxV, _ := s.submissionRepo.GetMaxVersion(ctx, bountyID)
	sub := &models.Submission{
		BountyID:   bountyID,
		HunterID:   hunterID,
		Version:    maxV + 1,
		Message:    input.Message,
		ProofItems: input.ProofItems,
		Status:     models.SubmissionStatusSubmitted,
	}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &hunterID,
		ActorType:   "user",
		Action:      "proof_submitted",
		EntityType:  "submission",
		EntityID:    &sub.ID,
		Meta:        map[string]any{"bounty_id": bountyID.String(), "version": sub.Version},
	})
	_ = s.publisher.Publish(ctx, events.StreamBounty, events.Event{
		Type: events.EventSubmissionReceived,
		Payload: map[string]any{
			"bounty_id":     bountyID.String(),
			"submission_id": sub.ID.String(),
		},
	})

	return sub, nil
}

// CancelBounty cancels an open bounty and refunds any escrow hold.
func (s *BountyService) CancelBounty(ctx context.Context, bountyID, actorID uuid.UUID) error {
	bounty, err := s.bountyRepo.GetByID(ctx, bountyID)
	if err != nil {
		return err
	}
	if bounty.PosterUserID != actorID {
		return ErrForbidden
	}
	if bounty.Status != models.BountyStatusOpen {
		return fmt.Errorf("only open bounties can be cancelled directly")
	}

	if bounty.IsPaid() {
		if err := s.wallet.RefundHold(ctx, bountyID); err != nil {
			return fmt.Errorf("refund failed: %w", err)
		}
	}
	return s.transition(ctx, bounty, models.BountyStatusCancelled, &actorID, "user")
}

// ArchiveBounty moves a finished bounty out of the active lists.
func (s *BountyService) ArchiveBounty(ctx context.Context, bountyID, actorID uuid.UUID) error {
	bounty, err := s.bountyRepo.GetByID(ctx, bountyID)
	if err != nil {
		return err
	}
	if !s.isParticipant(bounty, actorID) {
		return ErrForbidden
	}
	return s.transition(ctx, bounty, models.BountyStatusArchived, &actorID, "user")
}

// DeleteBounty soft-deletes a bounty.
func (s *BountyService) DeleteBounty(ctx context.Context, bountyID, actorID uuid.UUID) error {
	bounty, err := s.bountyRepo.GetByID(ctx, bountyID)
	if err != nil {
		return err
	}
	if !s.isParticipant(bounty, actorID) {
		return ErrForbidden
	}
	return s.transition(ctx, bounty, models.BountyStatusDeleted, &actorID, "user")
}

func (s *BountyService) isParticipant(bounty *models.Bounty, userID uuid.UUID) bool {
	if bounty.PosterUserID == userID {
		return true
	}
	return bounty.HunterUserID != nil && *bounty.HunterUserID == userID
}

func (s *BountyService) GetBounty(ctx context.Context, id uuid.UUID) (*models.BountyWithUsers, error) {
	return s.bountyRepo.GetByIDWithUsers(ctx, id)
}

func (s *BountyService) ListBounties(ctx context.Context, f repositories.BountyFilter) ([]models.Bounty, error) {
	return s.bountyRepo.List(ctx, f)
}

func (s *BountyService) GetBountyEvents(ctx context.Context, bountyID uuid.UUID) ([]models.AuditLog, error) {
	return s.auditRepo.GetByEntity(ctx, "bounty", bountyID, 100, 0)
}
