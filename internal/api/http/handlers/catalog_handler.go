package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-service/internal/api/dto"
	"github.com/spec-kit/finance-service/internal/service"
)

// CatalogHandler exposes spending elements and expense types.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// CreateElement handles POST /api/elements.
func (h *CatalogHandler) CreateElement(c *fiber.Ctx) error {
	var req dto.ElementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	el, err := h.catalog.CreateElement(c.UserContext(), service.ElementInput{Code: req.Code, Description: req.Description})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewElementResponse(el)})
}

// ListElements handles GET /api/elements.
func (h *CatalogHandler) ListElements(c *fiber.Ctx) error {
	els, err := h.catalog.ListElements(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.ElementResponse, len(els))
	for i := range els {
		out[i] = dto.NewElementResponse(&els[i])
	}
	return c.JSON(fiber.Map{"data": out})
}

// UpdateElement handles PUT /api/elements/:id.
func (h *CatalogHandler) UpdateElement(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.ElementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	el, err := h.catalog.UpdateElement(c.UserContext(), id, service.ElementInput{Code: req.Code, Description: req.Description})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewElementResponse(el)})
}

// CreateExpenseType handles POST /api/expense-types.
func (h *CatalogHandler) CreateExpenseType(c *fiber.Ctx) error {
	var req dto.ExpenseTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	et, err := h.catalog.CreateExpenseType(c.UserContext(), service.ExpenseTypeInput{
		ElementID:   req.ElementID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewExpenseTypeResponse(et)})
}

// ListExpenseTypes handles GET /api/expense-types?element_id=.
func (h *CatalogHandler) ListExpenseTypes(c *fiber.Ctx) error {
	elementID, err := optionalQueryID(c, "element_id")
	if err != nil {
		return err
	}
	types, err := h.catalog.ListExpenseTypes(c.UserContext(), elementID)
	if err != nil {
		return err
	}
	out := make([]dto.ExpenseTypeResponse, len(types))
	for i := range types {
		out[i] = dto.NewExpenseTypeResponse(&types[i])
	}
	return c.JSON(fiber.Map{"data": out})
}

// UpdateExpenseType handles PUT /api/expense-types/:id.
func (h *CatalogHandler) UpdateExpenseType(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.ExpenseTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	et, err := h.catalog.UpdateExpenseType(c.UserContext(), id, service.ExpenseTypeInput{
		ElementID:   req.ElementID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewExpenseTypeResponse(et)})
}
