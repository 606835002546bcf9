package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-service/internal/api/dto"
	"github.com/spec-kit/finance-service/internal/auth"
	"github.com/spec-kit/finance-service/internal/service"
)

// ExpensesHandler exposes department expenses.
type ExpensesHandler struct {
	expenses *service.ExpenseService
}

// NewExpensesHandler constructs handler.
func NewExpensesHandler(expenses *service.ExpenseService) *ExpensesHandler {
	return &ExpensesHandler{expenses: expenses}
}

func expenseInput(req dto.ExpenseRequest) service.ExpenseInput {
	return service.ExpenseInput{
		DepartmentID:  req.DepartmentID,
		ElementID:     req.ElementID,
		ExpenseTypeID: req.ExpenseTypeID,
		AmountCents:   req.AmountCents,
		Justification: req.Justification,
	}
}

// Create handles POST /api/expenses.
func (h *ExpensesHandler) Create(c *fiber.Ctx) error {
	var req dto.ExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	expense, err := h.expenses.Create(c.UserContext(), auth.UserFromContext(c), expenseInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewExpenseResponse(expense)})
}

// List handles GET /api/expenses?department_id=&page=&page_size=.
func (h *ExpensesHandler) List(c *fiber.Ctx) error {
	departmentID, err := optionalQueryID(c, "department_id")
	if err != nil {
		return err
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	pageSize, err := queryInt(c, "page_size")
	if err != nil {
		return err
	}

	result, err := h.expenses.List(c.UserContext(), service.ExpenseListFilter{
		DepartmentID: departmentID,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		return err
	}

	out := make([]dto.ExpenseResponse, len(result.Items))
	for i := range result.Items {
		out[i] = dto.NewExpenseResponse(&result.Items[i])
	}
	return c.JSON(fiber.Map{
		"data":       out,
		"pagination": dto.Pagination{Page: result.Page, PageSize: result.PageSize, Total: result.Total},
	})
}

// Get handles GET /api/expenses/:id.
func (h *ExpensesHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	expense, err := h.expenses.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewExpenseResponse(expense)})
}

// Update handles PUT /api/expenses/:id.
func (h *ExpensesHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.ExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	expense, err := h.expenses.Update(c.UserContext(), id, expenseInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewExpenseResponse(expense)})
}

// DepartmentTotal handles GET /api/departments/:id/expenses/total.
func (h *ExpensesHandler) DepartmentTotal(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	total, err := h.expenses.TotalForDepartment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ExpenseTotalResponse{DepartmentID: total.DepartmentID, TotalCents: total.TotalCents}})
}
