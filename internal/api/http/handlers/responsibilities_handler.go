package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-service/internal/api/dto"
	"github.com/spec-kit/finance-service/internal/auth"
	"github.com/spec-kit/finance-service/internal/service"
)

// ResponsibilitiesHandler exposes user to department responsibilities.
type ResponsibilitiesHandler struct {
	responsibilities *service.ResponsibilityService
}

// NewResponsibilitiesHandler constructs handler.
func NewResponsibilitiesHandler(responsibilities *service.ResponsibilityService) *ResponsibilitiesHandler {
	return &ResponsibilitiesHandler{responsibilities: responsibilities}
}

// Create handles POST /api/responsibilities.
func (h *ResponsibilitiesHandler) Create(c *fiber.Ctx) error {
	var req dto.ResponsibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.responsibilities.Add(c.UserContext(), auth.UserFromContext(c), service.ResponsibilityInput{
		UserID:       req.UserID,
		DepartmentID: req.DepartmentID,
		Observation:  req.Observation,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewResponsibilityResponse(resp)})
}

// List handles GET /api/responsibilities?department_id=.
func (h *ResponsibilitiesHandler) List(c *fiber.Ctx) error {
	departmentID, err := optionalQueryID(c, "department_id")
	if err != nil {
		return err
	}
	list, err := h.responsibilities.List(c.UserContext(), departmentID)
	if err != nil {
		return err
	}
	out := make([]dto.ResponsibilityResponse, len(list))
	for i := range list {
		out[i] = dto.NewResponsibilityResponse(&list[i])
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get handles GET /api/responsibilities/:id.
func (h *ResponsibilitiesHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	resp, err := h.responsibilities.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewResponsibilityResponse(resp)})
}

// Update handles PUT /api/responsibilities/:id.
func (h *ResponsibilitiesHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.ResponsibilityUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.responsibilities.Update(c.UserContext(), id, req.Observation)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewResponsibilityResponse(resp)})
}
