package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-service/internal/api/dto"
	"github.com/spec-kit/finance-service/internal/auth"
	"github.com/spec-kit/finance-service/internal/service"
)

// SubordinationsHandler exposes the hierarchy edges.
type SubordinationsHandler struct {
	subordinations *service.SubordinationService
}

// NewSubordinationsHandler constructs handler.
func NewSubordinationsHandler(subordinations *service.SubordinationService) *SubordinationsHandler {
	return &SubordinationsHandler{subordinations: subordinations}
}

func parseSubordination(c *fiber.Ctx) (service.SubordinationInput, error) {
	var req dto.SubordinationRequest
	if err := c.BodyParser(&req); err != nil {
		return service.SubordinationInput{}, fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.SuperiorID <= 0 || req.SubordinateID <= 0 {
		return service.SubordinationInput{}, fiber.NewError(http.StatusBadRequest, "superior_id and subordinate_id required")
	}
	return service.SubordinationInput{
		SuperiorID:    req.SuperiorID,
		SubordinateID: req.SubordinateID,
		Observation:   req.Observation,
	}, nil
}

// Create handles POST /api/subordinations.
func (h *SubordinationsHandler) Create(c *fiber.Ctx) error {
	input, err := parseSubordination(c)
	if err != nil {
		return err
	}
	sub, err := h.subordinations.Add(c.UserContext(), auth.UserFromContext(c), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewSubordinationResponse(sub)})
}

// List handles GET /api/subordinations.
func (h *SubordinationsHandler) List(c *fiber.Ctx) error {
	subs, err := h.subordinations.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubordinationList(subs)})
}

// Get handles GET /api/subordinations/:id.
func (h *SubordinationsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	sub, err := h.subordinations.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubordinationResponse(sub)})
}

// Update handles PUT /api/subordinations/:id.
func (h *SubordinationsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	input, err := parseSubordination(c)
	if err != nil {
		return err
	}
	sub, err := h.subordinations.Update(c.UserContext(), auth.UserFromContext(c), id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubordinationResponse(sub)})
}

// Delete handles DELETE /api/subordinations/:id.
func (h *SubordinationsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	deleted, err := h.subordinations.Delete(c.UserContext(), auth.UserFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": deleted}})
}

// Audit handles GET /api/subordinations/audit.
func (h *SubordinationsHandler) Audit(c *fiber.Ctx) error {
	violations, err := h.subordinations.Audit(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewViolationList(violations)})
}
