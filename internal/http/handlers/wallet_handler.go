package handlers

import (
	"github.com/bounty-marketplace/backend/internal/http/dto"
	"github.com/bounty-marketplace/backend/internal/middleware"
	"github.com/bounty-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WalletHandler struct {
	walletService *services.WalletService
	log           *zap.Logger
}

func NewWalletHandler(walletService *services.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, log: log}
}

// GetWallet returns the balance plus recent ledger entries.
// GET /me/wallet
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	summary, err := h.walletService.GetSummary(c.Context(), userID)
	if err != nil {
		h.log.Error("wallet summary failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: summary})
}

// Deposit charges the user's payment method and credits the wallet.
// POST /me/wallet/deposit
func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	var req dto.DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.AmountCents <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "amount_cents must be positive"})
	}

	userID := middleware.GetUserID(c)
	entry, err := h.walletService.Deposit(c.Context(), userID, req.AmountCents, req.Method)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: entry})
}

// CreateSetupIntent prepares saving a payment method for future charges.
// POST /me/wallet/setup-intent
func (h *WalletHandler) CreateSetupIntent(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	intent, err := h.walletService.CreateSetupIntent(c.Context(), userID)
	if err != nil {
		h.log.Error("setup intent failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "payment processor unavailable"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: intent})
}
