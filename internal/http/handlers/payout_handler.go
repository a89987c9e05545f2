package handlers

import (
	"github.com/bounty-marketplace/backend/internal/http/dto"
	"github.com/bounty-marketplace/backend/internal/middleware"
	"github.com/bounty-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PayoutHandler struct {
	payoutService *services.PayoutService
	log           *zap.Logger
}

func NewPayoutHandler(payoutService *services.PayoutService, log *zap.Logger) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService, log: log}
}

// GetStatus returns the cached onboarding state with its resolved stage.
// GET /me/payout
func (h *PayoutHandler) GetStatus(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	status, err := h.payoutService.GetStatus(c.Context(), userID)
	if err != nil {
		h.log.Error("payout status failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"status": status,
		"stage":  status.Stage(),
	}})
}

// StartOnboarding creates the processor account if needed and returns a
// hosted onboarding URL.
// POST /me/payout/onboard
func (h *PayoutHandler) StartOnboarding(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	url, err := h.payoutService.StartOnboarding(c.Context(), userID)
	if err != nil {
		h.log.Error("payout onboarding failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "payment processor unavailable"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.OnboardingResponse{URL: url}})
}

// RefreshStatus re-polls the processor. The processor sends no onboarding
// webhooks, so the client calls this when returning from the hosted flow.
// POST /me/payout/refresh
func (h *PayoutHandler) RefreshStatus(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	status, err := h.payoutService.RefreshStatus(c.Context(), userID)
	if err != nil {
		h.log.Error("payout refresh failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "payment processor unavailable"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"status": status,
		"stage":  status.Stage(),
	}})
}
