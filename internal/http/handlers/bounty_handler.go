package handlers

import (
	"strconv"

	"github.com/bounty-marketplace/backend/internal/http/dto"
	"github.com/bounty-marketplace/backend/internal/middleware"
	"github.com/bounty-marketplace/backend/internal/repositories"
	"github.com/bounty-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BountyHandler struct {
	bountyService *services.BountyService
	log           *zap.Logger
}

func NewBountyHandler(bountyService *services.BountyService, log *zap.Logger) *BountyHandler {
	return &BountyHandler{bountyService: bountyService, log: log}
}

func (h *BountyHandler) CreateBounty(c *fiber.Ctx) error {
	var req dto.CreateBountyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	posterID := middleware.GetUserID(c)
	bounty, err := h.bountyService.CreateBounty(c.Context(), posterID, services.CreateBountyInput{
		Title:       req.Title,
		Description: req.Description,
		AmountCents: req.AmountCents,
		IsForHonor:  req.IsForHonor,
		WorkType:    req.WorkType,
		Location:    req.Location,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: bounty})
}

func (h *BountyHandler) GetBounty(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bounty id"})
	}

	bounty, err := h.bountyService.GetBounty(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "bounty not found"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: bounty})
}

func (h *BountyHandler) ListBounties(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	filter := repositories.BountyFilter{Limit: 20, Offset: 0}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := c.Query("work_type"); v != "" {
		filter.WorkType = &v
	}

	switch c.Query("role") {
	case "poster":
		filter.PosterUserID = &userID
	case "hunter":
		filter.HunterUserID = &userID
	}

	bounties, err := h.bountyService.ListBounties(c.Context(), filter)
	if err != nil {
		h.log.Error("list bounties failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: bounties})
}

func (h *BountyHandler) AcceptBounty(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bounty id"})
	}

	if err := h.bountyService.AcceptBounty(c.Context(), id, middleware.GetUserID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *BountyHandler) SubmitProof(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bounty id"})
	}

	var req dto.SubmitProofRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	sub, err := h.bountyService.SubmitProof(c.Context(), id, middleware.GetUserID(c), services.SubmitProofInput{
		Message:    req.Message,
		ProofItems: req.ProofItems,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: sub})
}

func (h *BountyHandler) CancelBounty(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bounty id"})
	}

	if err := h.bountyService.CancelBounty(c.Context(), id, middleware.GetUserID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *BountyHandler) ArchiveBounty(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bounty id"})
	}

	if err := h.bountyService.ArchiveBounty(c.Context(), id, middleware.GetUserID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *BountyHandler) DeleteBounty(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bounty id"})
	}

	if err := h.bountyService.DeleteBounty(c.Context(), id, middleware.GetUserID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *BountyHandler) GetBountyEvents(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid bounty id"})
	}

	events, err := h.bountyService.GetBountyEvents(c.Context(), id)
	if err != nil {
		h.log.Error("get bounty events failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: events})
}
