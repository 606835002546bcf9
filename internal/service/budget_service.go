package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/repository"
	apperrors "github.com/spec-kit/finance-service/pkg/util/errorutil"
)

const (
	minBudgetYear = 1900
	maxBudgetYear = 9999
)

// BudgetService manages yearly department budgets.
type BudgetService struct {
	budgets     repository.BudgetRepository
	departments repository.DepartmentRepository
}

// BudgetInput describes a new budget.
type BudgetInput struct {
	DepartmentID int64
	Year         int
	AmountCents  int64
	Description  string
}

// BudgetPatch carries the mutable budget fields; nil means unchanged.
type BudgetPatch struct {
	AmountCents *int64
	Description *string
}

// NewBudgetService constructs the service.
func NewBudgetService(budgets repository.BudgetRepository, departments repository.DepartmentRepository) *BudgetService {
	return &BudgetService{budgets: budgets, departments: departments}
}

func requireAdmin(actor *domain.User) error {
	if actor == nil || actor.Role != domain.UserRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// Create assigns a budget. A department has at most one budget per year.
func (s *BudgetService) Create(ctx context.Context, actor *domain.User, input BudgetInput) (*domain.Budget, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.Year < minBudgetYear || input.Year > maxBudgetYear {
		return nil, apperrors.NewValidationError("year out of range", map[string]any{"field": "year", "min": minBudgetYear, "max": maxBudgetYear})
	}
	if input.AmountCents < 0 {
		return nil, apperrors.NewValidationError("amount must not be negative", map[string]any{"field": "amount_cents"})
	}

	ok, err := s.departments.Exists(ctx, input.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return nil, apperrors.NewNotFound("department", map[string]any{"id": input.DepartmentID})
	}

	if _, err := s.budgets.GetByDepartmentYear(ctx, input.DepartmentID, input.Year); err == nil {
		return nil, apperrors.NewConflict("department already has a budget for this year", map[string]any{
			"department_id": input.DepartmentID,
			"year":          input.Year,
		})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	budget := &domain.Budget{
		DepartmentID: input.DepartmentID,
		UserID:       actor.ID,
		Year:         input.Year,
		AmountCents:  input.AmountCents,
		Description:  strings.TrimSpace(input.Description),
	}
	if err := s.budgets.Create(ctx, budget); err != nil {
		return nil, apperrors.MapError(err)
	}
	return budget, nil
}

// Update changes amount and description.
func (s *BudgetService) Update(ctx context.Context, actor *domain.User, id int64, patch BudgetPatch) (*domain.Budget, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	budget, err := s.budgets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "budget", id)
	}
	if patch.AmountCents != nil {
		if *patch.AmountCents < 0 {
			return nil, apperrors.NewValidationError("amount must not be negative", map[string]any{"field": "amount_cents"})
		}
		budget.AmountCents = *patch.AmountCents
	}
	if patch.Description != nil {
		budget.Description = strings.TrimSpace(*patch.Description)
	}
	if err := s.budgets.Update(ctx, budget); err != nil {
		return nil, notFoundAs(err, "budget", id)
	}
	return budget, nil
}

// Get fetches one budget.
func (s *BudgetService) Get(ctx context.Context, id int64) (*domain.Budget, error) {
	budget, err := s.budgets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "budget", id)
	}
	return budget, nil
}

// List returns budgets, newest year first, optionally for one department.
func (s *BudgetService) List(ctx context.Context, departmentID *int64) ([]domain.Budget, error) {
	budgets, err := s.budgets.List(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return budgets, nil
}
