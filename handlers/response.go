package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/carcheck/carcheck-backend/shared"
)

// UserIDHeader carries the authenticated caller's id.
const UserIDHeader = "X-User-ID"

func respondData(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func respondMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// respondError maps service errors onto status codes. Anything that is not a
// ServiceError is reported as a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	var serviceErr *shared.ServiceError
	switch {
	case errors.As(err, &serviceErr):
		return c.Status(serviceErr.HTTPStatus()).JSON(fiber.Map{
			"success": false,
			"error":   serviceErr.Message,
			"code":    serviceErr.Code,
		})
	case errors.Is(err, context.DeadlineExceeded):
		return respondMessage(c, fiber.StatusGatewayTimeout, "Request timed out")
	case errors.Is(err, context.Canceled):
		return respondMessage(c, fiber.StatusRequestTimeout, "Request canceled")
	}

	logrus.WithFields(logrus.Fields{
		"component": "handlers",
		"path":      c.Path(),
		"method":    c.Method(),
	}).WithError(err).Error("Unhandled request error")
	return respondMessage(c, fiber.StatusInternalServerError, "Internal server error")
}
