package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/carcheck/carcheck-backend/services"
)

type HistoryHandler struct {
	Service *services.SearchHistoryService
}

func NewHistoryHandler(service *services.SearchHistoryService) *HistoryHandler {
	return &HistoryHandler{Service: service}
}

func (h *HistoryHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", services.DefaultHistoryPageSize)

	history, err := h.Service.List(c.UserContext(), currentUser(c), page, pageSize)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, history)
}

func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	entryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Invalid history entry id")
	}

	if err := h.Service.Delete(c.UserContext(), currentUser(c), entryID); err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"deleted": entryID})
}

func (h *HistoryHandler) Clear(c *fiber.Ctx) error {
	removed, err := h.Service.Clear(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"removed": removed})
}
