package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-service/internal/api/dto"
	"github.com/spec-kit/finance-service/internal/auth"
	"github.com/spec-kit/finance-service/internal/service"
)

// DepartmentsHandler exposes department endpoints, including the hierarchy
// reads rooted at a department.
type DepartmentsHandler struct {
	departments    *service.DepartmentService
	subordinations *service.SubordinationService
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(departments *service.DepartmentService, subordinations *service.SubordinationService) *DepartmentsHandler {
	return &DepartmentsHandler{departments: departments, subordinations: subordinations}
}

// Create handles POST /api/departments.
func (h *DepartmentsHandler) Create(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	dept, err := h.departments.Create(c.UserContext(), auth.UserFromContext(c), service.DepartmentInput{
		Name:              req.Name,
		Description:       req.Description,
		EntityType:        req.EntityType,
		ResponsibleUserID: req.ResponsibleUserID,
		Done:              req.Done,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// List handles GET /api/departments.
func (h *DepartmentsHandler) List(c *fiber.Ctx) error {
	depts, err := h.departments.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentList(depts)})
}

// Get handles GET /api/departments/:id.
func (h *DepartmentsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	dept, err := h.departments.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// Update handles PATCH /api/departments/:id.
func (h *DepartmentsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	dept, err := h.departments.Update(c.UserContext(), auth.UserFromContext(c), id, service.DepartmentPatch{
		Name:              req.Name,
		Description:       req.Description,
		EntityType:        req.EntityType,
		ResponsibleUserID: req.ResponsibleUserID,
		Done:              req.Done,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// Delete handles DELETE /api/departments/:id.
func (h *DepartmentsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.departments.Delete(c.UserContext(), auth.UserFromContext(c), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Subordinates handles GET /api/departments/:id/subordinates.
func (h *DepartmentsHandler) Subordinates(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	depts, err := h.subordinations.SubordinatesOf(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentList(depts)})
}

// Chain handles GET /api/departments/:id/chain.
func (h *DepartmentsHandler) Chain(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	depts, err := h.subordinations.ChainOf(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentList(depts)})
}
