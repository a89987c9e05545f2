package handlers

import (
	"errors"

	"github.com/bounty-marketplace/backend/internal/http/dto"
	"github.com/bounty-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// serviceError maps service-layer failures onto HTTP statuses: validation
// rejections get 422 with the offending field, authorization failures 403,
// duplicate in-flight operations 409, everything else 400.
func serviceError(c *fiber.Ctx, err error) error {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Error: vErr.Error(),
			Field: vErr.Field,
		})
	}
	if errors.Is(err, services.ErrForbidden) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "forbidden"})
	}
	if errors.Is(err, services.ErrInFlight) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "operation already in progress"})
	}
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
}
