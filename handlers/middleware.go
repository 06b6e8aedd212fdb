package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userIDLocal = "user_id"

// RequireUser rejects requests without a valid X-User-ID header and stores
// the parsed id in the request locals.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(UserIDHeader)
		if raw == "" {
			return respondMessage(c, fiber.StatusUnauthorized, "Missing "+UserIDHeader+" header")
		}
		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			return respondMessage(c, fiber.StatusUnauthorized, "Invalid "+UserIDHeader+" header")
		}
		c.Locals(userIDLocal, userID)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) uuid.UUID {
	userID, _ := c.Locals(userIDLocal).(uuid.UUID)
	return userID
}
