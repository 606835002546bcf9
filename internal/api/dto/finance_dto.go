package dto

import (
	"time"

	"github.com/spec-kit/finance-service/internal/domain"
)

// ElementRequest payload for elements.
type ElementRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ElementResponse is the public view of an element.
type ElementResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func NewElementResponse(e *domain.Element) ElementResponse {
	return ElementResponse{ID: e.ID, Code: e.Code, Description: e.Description}
}

// ExpenseTypeRequest payload for expense types.
type ExpenseTypeRequest struct {
	ElementID   *int64 `json:"element_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ExpenseTypeResponse is the public view of an expense type.
type ExpenseTypeResponse struct {
	ID          int64  `json:"id"`
	ElementID   *int64 `json:"element_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func NewExpenseTypeResponse(t *domain.ExpenseType) ExpenseTypeResponse {
	return ExpenseTypeResponse{ID: t.ID, ElementID: t.ElementID, Name: t.Name, Description: t.Description}
}

// BudgetRequest payload for POST /api/budgets.
type BudgetRequest struct {
	DepartmentID int64  `json:"department_id"`
	Year         int    `json:"year"`
	AmountCents  int64  `json:"amount_cents"`
	Description  string `json:"description"`
}

// BudgetUpdateRequest payload for PUT /api/budgets/:id.
type BudgetUpdateRequest struct {
	AmountCents *int64  `json:"amount_cents"`
	Description *string `json:"description"`
}

// BudgetResponse is the public view of a budget.
type BudgetResponse struct {
	ID           int64     `json:"id"`
	DepartmentID int64     `json:"department_id"`
	UserID       int64     `json:"user_id"`
	Year         int       `json:"year"`
	AmountCents  int64     `json:"amount_cents"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewBudgetResponse(b *domain.Budget) BudgetResponse {
	return BudgetResponse{
		ID:           b.ID,
		DepartmentID: b.DepartmentID,
		UserID:       b.UserID,
		Year:         b.Year,
		AmountCents:  b.AmountCents,
		Description:  b.Description,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// ExpenseRequest payload for expenses. DepartmentID is ignored on update.
type ExpenseRequest struct {
	DepartmentID  int64  `json:"department_id"`
	ElementID     int64  `json:"element_id"`
	ExpenseTypeID int64  `json:"expense_type_id"`
	AmountCents   int64  `json:"amount_cents"`
	Justification string `json:"justification"`
}

// ExpenseResponse is the public view of an expense.
type ExpenseResponse struct {
	ID            int64     `json:"id"`
	DepartmentID  int64     `json:"department_id"`
	UserID        int64     `json:"user_id"`
	ElementID     int64     `json:"element_id"`
	ExpenseTypeID int64     `json:"expense_type_id"`
	AmountCents   int64     `json:"amount_cents"`
	Justification string    `json:"justification"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		DepartmentID:  e.DepartmentID,
		UserID:        e.UserID,
		ElementID:     e.ElementID,
		ExpenseTypeID: e.ExpenseTypeID,
		AmountCents:   e.AmountCents,
		Justification: e.Justification,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// ExpenseTotalResponse is the sum of a department's expenses.
type ExpenseTotalResponse struct {
	DepartmentID int64 `json:"department_id"`
	TotalCents   int64 `json:"total_cents"`
}

// Pagination describes a paged listing.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}
