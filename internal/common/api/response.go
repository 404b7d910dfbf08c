package api

import (
	"crm-gateway/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// Error writes err as {"error": ...}. AppErrors use their mapped status,
// anything else gets fallback.
func Error(c *fiber.Ctx, err error, fallback int) error {
	return c.Status(apperror.StatusOr(err, fallback)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// BadRequest writes a 400 with a fixed message
func BadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

// NotFound writes a 404 with a fixed message
func NotFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": message,
	})
}
