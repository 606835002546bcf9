package service

import (
	"context"
	"strings"

	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/repository"
	apperrors "github.com/spec-kit/finance-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ExpenseService records department expenses.
type ExpenseService struct {
	expenses    repository.ExpenseRepository
	departments repository.DepartmentRepository
	elements    repository.ElementRepository
}

// ExpenseInput describes an expense. DepartmentID is ignored on update.
type ExpenseInput struct {
	DepartmentID  int64
	ElementID     int64
	ExpenseTypeID int64
	AmountCents   int64
	Justification string
}

// ExpenseListFilter selects one page of expenses.
type ExpenseListFilter struct {
	DepartmentID *int64
	Page         int
	PageSize     int
}

// ExpensePage is one page of expenses with paging metadata.
type ExpensePage struct {
	Items    []domain.Expense
	Total    int
	Page     int
	PageSize int
}

// DepartmentTotal is the sum of a department's expenses.
type DepartmentTotal struct {
	DepartmentID int64
	TotalCents   int64
}

// NewExpenseService constructs the service.
func NewExpenseService(expenses repository.ExpenseRepository, departments repository.DepartmentRepository, elements repository.ElementRepository) *ExpenseService {
	return &ExpenseService{expenses: expenses, departments: departments, elements: elements}
}

// Create records an expense on behalf of actor.
func (s *ExpenseService) Create(ctx context.Context, actor *domain.User, input ExpenseInput) (*domain.Expense, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	ok, err := s.departments.Exists(ctx, input.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return nil, apperrors.NewNotFound("department", map[string]any{"id": input.DepartmentID})
	}

	expense := &domain.Expense{
		DepartmentID:  input.DepartmentID,
		UserID:        actor.ID,
		ElementID:     input.ElementID,
		ExpenseTypeID: input.ExpenseTypeID,
		AmountCents:   input.AmountCents,
		Justification: strings.TrimSpace(input.Justification),
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, apperrors.MapError(err)
	}
	return expense, nil
}

// Update replaces classification, amount and justification.
func (s *ExpenseService) Update(ctx context.Context, id int64, input ExpenseInput) (*domain.Expense, error) {
	expense, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "expense", id)
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	expense.ElementID = input.ElementID
	expense.ExpenseTypeID = input.ExpenseTypeID
	expense.AmountCents = input.AmountCents
	expense.Justification = strings.TrimSpace(input.Justification)
	if err := s.expenses.Update(ctx, expense); err != nil {
		return nil, notFoundAs(err, "expense", id)
	}
	return expense, nil
}

// Get fetches one expense.
func (s *ExpenseService) Get(ctx context.Context, id int64) (*domain.Expense, error) {
	expense, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "expense", id)
	}
	return expense, nil
}

// List returns one page of expenses, newest first. Page numbers start at 1.
func (s *ExpenseService) List(ctx context.Context, filter ExpenseListFilter) (*ExpensePage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	items, total, err := s.expenses.List(ctx, repository.ExpenseFilter{
		DepartmentID: filter.DepartmentID,
		Limit:        size,
		Offset:       (page - 1) * size,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if items == nil {
		items = []domain.Expense{}
	}
	return &ExpensePage{Items: items, Total: total, Page: page, PageSize: size}, nil
}

// TotalForDepartment sums every expense recorded by the department.
func (s *ExpenseService) TotalForDepartment(ctx context.Context, departmentID int64) (*DepartmentTotal, error) {
	ok, err := s.departments.Exists(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return nil, apperrors.NewNotFound("department", map[string]any{"id": departmentID})
	}
	total, err := s.expenses.TotalByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &DepartmentTotal{DepartmentID: departmentID, TotalCents: total}, nil
}

func (s *ExpenseService) validate(ctx context.Context, input ExpenseInput) error {
	if input.AmountCents <= 0 {
		return apperrors.NewValidationError("amount must be positive", map[string]any{"field": "amount_cents"})
	}
	if _, err := s.elements.GetElement(ctx, input.ElementID); err != nil {
		return notFoundAs(err, "element", input.ElementID)
	}
	et, err := s.elements.GetExpenseType(ctx, input.ExpenseTypeID)
	if err != nil {
		return notFoundAs(err, "expense type", input.ExpenseTypeID)
	}
	if et.ElementID != nil && *et.ElementID != input.ElementID {
		return apperrors.NewValidationError("expense type does not belong to element", map[string]any{
			"element_id":      input.ElementID,
			"expense_type_id": input.ExpenseTypeID,
		})
	}
	return nil
}
