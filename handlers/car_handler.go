package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/carcheck/carcheck-backend/services"
)

type CarHandler struct {
	Service *services.CarSearchService
}

func NewCarHandler(service *services.CarSearchService) *CarHandler {
	return &CarHandler{Service: service}
}

type searchRequest struct {
	RegistrationNumber string `json:"registration_number"`
}

// Search resolves a registration number for the calling user.
func (h *CarHandler) Search(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.RegistrationNumber) == "" {
		return respondMessage(c, fiber.StatusBadRequest, "registration_number is required")
	}

	summary, err := h.Service.SearchByIdentifier(c.UserContext(), currentUser(c), req.RegistrationNumber)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, summary)
}

func (h *CarHandler) Analyze(c *fiber.Ctx) error {
	vehicleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Invalid vehicle id")
	}

	analysis, err := h.Service.AnalyzeByVehicleID(c.UserContext(), vehicleID)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, analysis)
}
