package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
	"github.com/dpushkar26/Panchkarma-sutra/internal/repository"
)

type TherapyHandler struct {
	therapyRepo *repository.TherapyRepository
}

func NewTherapyHandler(therapyRepo *repository.TherapyRepository) *TherapyHandler {
	return &TherapyHandler{therapyRepo: therapyRepo}
}

type createTherapyRequest struct {
	Name            string  `json:"name" validate:"required,min=2"`
	Description     *string `json:"description"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
	Price           float64 `json:"price" validate:"required,gt=0"`
}

type updateTherapyRequest struct {
	Name            *string  `json:"name" validate:"omitempty,min=2"`
	Description     *string  `json:"description"`
	DurationMinutes *int     `json:"duration_minutes" validate:"omitempty,gt=0"`
	Price           *float64 `json:"price" validate:"omitempty,gt=0"`
	IsActive        *bool    `json:"is_active"`
}

func (h *TherapyHandler) ListTherapies(c *fiber.Ctx) error {
	therapies, err := h.therapyRepo.ListActive(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load therapies"})
	}
	return c.JSON(fiber.Map{"therapies": therapies})
}

func (h *TherapyHandler) GetTherapy(c *fiber.Ctx) error {
	therapyID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid therapy id"})
	}

	therapy, err := h.therapyRepo.GetByID(c.Context(), therapyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Therapy not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load therapy"})
	}

	return c.JSON(fiber.Map{"therapy": therapy})
}

func (h *TherapyHandler) CreateTherapy(c *fiber.Ctx) error {
	_, role, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req createTherapyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	therapy, err := h.therapyRepo.Create(c.Context(), repository.CreateTherapyInput{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create therapy"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"therapy": therapy})
}

func (h *TherapyHandler) UpdateTherapy(c *fiber.Ctx) error {
	_, role, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	therapyID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid therapy id"})
	}

	var req updateTherapyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	therapy, err := h.therapyRepo.Update(c.Context(), therapyID, repository.UpdateTherapyInput{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		IsActive:        req.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Therapy not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update therapy"})
	}

	return c.JSON(fiber.Map{"therapy": therapy})
}
