package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
	"github.com/dpushkar26/Panchkarma-sutra/internal/services"
)

type AvailabilityHandler struct {
	service slotLister
}

type slotLister interface {
	ListAvailableSlots(ctx context.Context, practitionerID int64, date time.Time, durationMinutes int) ([]models.AvailableSlot, error)
}

func NewAvailabilityHandler(service *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

func (h *AvailabilityHandler) ListAvailableSlots(c *fiber.Ctx) error {
	if _, _, err := actorFromLocals(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	practitionerID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid practitioner id"})
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(c.Query("date")))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be formatted YYYY-MM-DD"})
	}

	durationMinutes, err := strconv.Atoi(strings.TrimSpace(c.Query("duration")))
	if err != nil || durationMinutes <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration must be a positive number of minutes"})
	}

	slots, err := h.service.ListAvailableSlots(c.Context(), practitionerID, date, durationMinutes)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"date":  date.Format("2006-01-02"),
		"slots": slots,
	})
}
