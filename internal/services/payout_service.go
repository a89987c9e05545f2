package services

import (
	"context"
	"fmt"

	"github.com/bounty-marketplace/backend/internal/config"
	"github.com/bounty-marketplace/backend/internal/models"
	"github.com/bounty-marketplace/backend/internal/payments"
	"github.com/bounty-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PayoutService tracks payout-account onboarding at the payment processor.
// Completion is pull-only: the processor sends no push signal, so the cached
// status is refreshed on a deep-link return or an explicit refresh.
type PayoutService struct {
	payoutRepo *repositories.PayoutRepo
	userRepo   *repositories.UserRepo
	auditRepo  *repositories.AuditRepo
	processor  *payments.Client
	cfg        *config.Config
	log        *zap.Logger
}

func NewPayoutService(
	payoutRepo *repositories.PayoutRepo,
	userRepo *repositories.UserRepo,
	auditRepo *repositories.AuditRepo,
	processor *payments.Client,
	cfg *config.Config,
	log *zap.Logger,
) *PayoutService {
	return &PayoutService{
		payoutRepo: payoutRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		processor:  processor,
		cfg:        cfg,
		log:        log,
	}
}

// GetStatus returns the cached connect-account status.
func (s *PayoutService) GetStatus(ctx context.Context, userID uuid.UUID) (*models.ConnectAccountStatus, error) {
	return s.payoutRepo.GetByUser(ctx, userID)
}

// StartOnboarding creates the connect account if the user has none yet and
// returns a hosted onboarding URL to open in an external browser.
func (s *PayoutService) StartOnboarding(ctx context.Context, userID uuid.UUID) (string, error) {
	status, err := s.payoutRepo.GetByUser(ctx, userID)
	if err != nil {
		return "", err
	}

	if !status.HasAccount {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return "", err
		}
		acct, err := s.processor.CreateConnectAccount(ctx, userID.String(), user.Email)
		if err != nil {
			return "", fmt.Errorf("failed to create connect account: %w", err)
		}
		status.HasAccount = true
		status.AccountID = &acct.ID
		if err := s.payoutRepo.Upsert(ctx, status); err != nil {
			return "", err
		}

		_ = s.auditRepo.Log(ctx, models.AuditLog{
			ActorUserID: &userID,
			ActorType:   "user",
			Action:      "payout_account_created",
			EntityType:  "payout_account",
			EntityID:    &userID,
			Meta:        map[string]any{"account_id": acct.ID},
		})
	}

	link, err := s.processor.CreateAccountLink(ctx, *status.AccountID, s.cfg.PayoutReturnURL, s.cfg.PayoutRefreshURL)
	if err != nil {
		return "", fmt.Errorf("failed to create onboarding link: %w", err)
	}
	return link.URL, nil
}

// RefreshStatus re-polls the processor and updates the cached status.
func (s *PayoutService) RefreshStatus(ctx context.Context, userID uuid.UUID) (*models.ConnectAccountStatus, error) {
	status, err := s.payoutRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !status.HasAccount || status.AccountID == nil {
		return status, nil
	}

	remote, err := s.processor.VerifyOnboardingStatus(ctx, *status.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify onboarding status: %w", err)
	}

	status.DetailsSubmitted = remote.DetailsSubmitted
	status.ChargesEnabled = remote.ChargesEnabled
	status.PayoutsEnabled = remote.PayoutsEnabled
	status.CurrentlyDue = remote.CurrentlyDue
	status.RequiresAction = remote.DetailsSubmitted && len(remote.CurrentlyDue) > 0

	if err := s.payoutRepo.Upsert(ctx, status); err != nil {
		return nil, err
	}

	s.log.Info("payout status refreshed",
		zap.String("user_id", userID.String()),
		zap.String("stage", status.Stage()),
	)
	return status, nil
}
