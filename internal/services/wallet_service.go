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

// WalletService owns the double-entry ledger. Every money movement appends
// its ledger rows before success is returned; the displayed balance is the
// signed sum of a user's entries. Actual card charges, transfers and
// processor-side refunds are delegated to the payment client.
type WalletService struct {
	ledgerRepo *repositories.LedgerRepo
	payoutRepo *repositories.PayoutRepo
	auditRepo  *repositories.AuditRepo
	processor  *payments.Client
	cfg        *config.Config
	log        *zap.Logger
}

func NewWalletService(
	ledgerRepo *repositories.LedgerRepo,
	payoutRepo *repositories.PayoutRepo,
	auditRepo *repositories.AuditRepo,
	processor *payments.Client,
	cfg *config.Config,
	log *zap.Logger,
) *WalletService {
	return &WalletService{
		ledgerRepo: ledgerRepo,
		payoutRepo: payoutRepo,
		auditRepo:  auditRepo,
		processor:  processor,
		cfg:        cfg,
		log:        log,
	}
}

func (s *WalletService) GetSummary(ctx context.Context, userID uuid.UUID) (*models.WalletSummary, error) {
	balance, err := s.ledgerRepo.BalanceForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.ListByUser(ctx, userID, 50, 0)
	if err != nil {
		return nil, err
	}
	return &models.WalletSummary{UserID: userID, BalanceCents: balance, Entries: entries}, nil
}

// Deposit charges the user through the processor and credits the wallet.
// The ledger entry carries the payment intent id as its external reference.
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, amountCents int64, method string) (*models.LedgerEntry, error) {
	if amountCents <= 0 {
		return nil, validationErr("amount", "must be positive")
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, amountCents, s.cfg.Currency, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	confirmed, err := s.processor.ConfirmPayment(ctx, intent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	entry := &models.LedgerEntry{
		UserID:      userID,
		Type:        models.LedgerEntryDeposit,
		AmountCents: amountCents,
		Description: fmt.Sprintf("deposit via %s", method),
		ExternalRef: &confirmed.ID,
	}
	if err := s.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("payment confirmed but ledger append failed: %w", err)
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   "user",
		Action:      "wallet_deposit",
		EntityType:  "ledger_entry",
		EntityID:    &entry.ID,
		Meta:        map[string]any{"amount_cents": amountCents, "intent_id": confirmed.ID},
	})

	return entry, nil
}

// HoldForBounty escrows the bounty amount out of the poster's balance.
func (s *WalletService) HoldForBounty(ctx context.Context, bounty *models.Bounty) error {
	balance, err := s.ledgerRepo.BalanceForUser(ctx, bounty.PosterUserID)
	if err != nil {
		return err
	}
	if balance < bounty.AmountCents {
		return validationErr("amount", "insufficient wallet balance")
	}

	held := models.HoldStatusHeld
	entry := &models.LedgerEntry{
		UserID:      bounty.PosterUserID,
		Type:        models.LedgerEntryEscrowHold,
		AmountCents: -bounty.AmountCents,
		BountyID:    &bounty.ID,
		HoldStatus:  &held,
		Description: fmt.Sprintf("escrow hold for %q", bounty.Title),
	}
	return s.ledgerRepo.Append(ctx, entry)
}

// ReleaseFunds settles a bounty's escrow hold to the hunter: a processor
// transfer to the hunter's payout account, then the linked release entry.
// The transfer reference is the hold entry id, so a retry after a partial
// failure is deduplicated on the processor side.
func (s *WalletService) ReleaseFunds(ctx context.Context, bountyID, hunterID uuid.UUID, description string) error {
	hold, err := s.ledgerRepo.GetHeldByBounty(ctx, bountyID)
	if err != nil {
		return err
	}

	payout, err := s.payoutRepo.GetByUser(ctx, hunterID)
	if err != nil {
		return err
	}
	if !payout.PayoutsEnabled || payout.AccountID == nil {
		return fmt.Errorf("hunter payout account is not ready")
	}

	amount := -hold.AmountCents // hold is a debit; release the same amount
	transfer, err := s.processor.CreateTransfer(ctx, *payout.AccountID, amount, hold.ID.String(), description)
	if err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}

	release := &models.LedgerEntry{
		UserID:         hunterID,
		Type:           models.LedgerEntryRelease,
		AmountCents:    amount,
		BountyID:       &bountyID,
		CounterpartyID: &hold.UserID,
		Description:    description,
		ExternalRef:    &transfer.ID,
	}
	if err := s.ledgerRepo.SettleHold(ctx, hold.ID, models.HoldStatusReleased, release); err != nil {
		return err
	}

	s.log.Info("escrow released",
		zap.String("bounty_id", bountyID.String()),
		zap.String("hunter_id", hunterID.String()),
		zap.Int64("amount_cents", amount),
	)
	return nil
}

// RefundHold returns a bounty's escrowed funds to the poster's wallet
// balance. Ledger-only: the money never left the platform balance, so no
// processor call is involved.
func (s *WalletService) RefundHold(ctx context.Context, bountyID uuid.UUID) error {
	hold, err := s.ledgerRepo.GetHeldByBounty(ctx, bountyID)
	if err != nil {
		return err
	}

	refund := &models.LedgerEntry{
		UserID:      hold.UserID,
		Type:        models.LedgerEntryRefund,
		AmountCents: -hold.AmountCents,
		BountyID:    &bountyID,
		Description: "escrow refund",
	}
	return s.ledgerRepo.SettleHold(ctx, hold.ID, models.HoldStatusRefunded, refund)
}

// CreateSetupIntent lets the client attach a new payment method.
func (s *WalletService) CreateSetupIntent(ctx context.Context, userID uuid.UUID) (*payments.SetupIntent, error) {
	return s.processor.CreateSetupIntent(ctx, userID.String())
}
