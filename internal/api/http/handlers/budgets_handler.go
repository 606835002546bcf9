package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-service/internal/api/dto"
	"github.com/spec-kit/finance-service/internal/auth"
	"github.com/spec-kit/finance-service/internal/service"
)

// BudgetsHandler exposes department budgets.
type BudgetsHandler struct {
	budgets *service.BudgetService
}

// NewBudgetsHandler constructs handler.
func NewBudgetsHandler(budgets *service.BudgetService) *BudgetsHandler {
	return &BudgetsHandler{budgets: budgets}
}

// Create handles POST /api/budgets.
func (h *BudgetsHandler) Create(c *fiber.Ctx) error {
	var req dto.BudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	budget, err := h.budgets.Create(c.UserContext(), auth.UserFromContext(c), service.BudgetInput{
		DepartmentID: req.DepartmentID,
		Year:         req.Year,
		AmountCents:  req.AmountCents,
		Description:  req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewBudgetResponse(budget)})
}

// List handles GET /api/budgets?department_id=.
func (h *BudgetsHandler) List(c *fiber.Ctx) error {
	departmentID, err := optionalQueryID(c, "department_id")
	if err != nil {
		return err
	}
	budgets, err := h.budgets.List(c.UserContext(), departmentID)
	if err != nil {
		return err
	}
	out := make([]dto.BudgetResponse, len(budgets))
	for i := range budgets {
		out[i] = dto.NewBudgetResponse(&budgets[i])
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get handles GET /api/budgets/:id.
func (h *BudgetsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	budget, err := h.budgets.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBudgetResponse(budget)})
}

// Update handles PUT /api/budgets/:id.
func (h *BudgetsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.BudgetUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	budget, err := h.budgets.Update(c.UserContext(), auth.UserFromContext(c), id, service.BudgetPatch{
		AmountCents: req.AmountCents,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBudgetResponse(budget)})
}
