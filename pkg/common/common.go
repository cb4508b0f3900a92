package common

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrLoanNotFound     = errors.New("loan not found")
	ErrWorkbookNotFound = errors.New("workbook not configured")
)

func ErrorResponse(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"error": message,
	})
}
