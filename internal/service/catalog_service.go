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

// CatalogService manages spending elements and expense types.
type CatalogService struct {
	elements repository.ElementRepository
}

// ElementInput describes a spending element.
type ElementInput struct {
	Code        string
	Description string
}

// ExpenseTypeInput describes an expense type.
type ExpenseTypeInput struct {
	ElementID   *int64
	Name        string
	Description string
}

// NewCatalogService constructs the service.
func NewCatalogService(elements repository.ElementRepository) *CatalogService {
	return &CatalogService{elements: elements}
}

func (s *CatalogService) CreateElement(ctx context.Context, input ElementInput) (*domain.Element, error) {
	el := &domain.Element{Code: strings.TrimSpace(input.Code), Description: strings.TrimSpace(input.Description)}
	if el.Code == "" {
		return nil, apperrors.NewValidationError("code is required", map[string]any{"field": "code"})
	}
	if err := s.elements.CreateElement(ctx, el); err != nil {
		return nil, apperrors.MapError(err)
	}
	return el, nil
}

func (s *CatalogService) UpdateElement(ctx context.Context, id int64, input ElementInput) (*domain.Element, error) {
	el := &domain.Element{ID: id, Code: strings.TrimSpace(input.Code), Description: strings.TrimSpace(input.Description)}
	if el.Code == "" {
		return nil, apperrors.NewValidationError("code is required", map[string]any{"field": "code"})
	}
	if err := s.elements.UpdateElement(ctx, el); err != nil {
		return nil, notFoundAs(err, "element", id)
	}
	return el, nil
}

func (s *CatalogService) ListElements(ctx context.Context) ([]domain.Element, error) {
	els, err := s.elements.ListElements(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return els, nil
}

func (s *CatalogService) CreateExpenseType(ctx context.Context, input ExpenseTypeInput) (*domain.ExpenseType, error) {
	et := &domain.ExpenseType{ElementID: input.ElementID, Name: strings.TrimSpace(input.Name), Description: strings.TrimSpace(input.Description)}
	if err := s.validateExpenseType(ctx, et); err != nil {
		return nil, err
	}
	if err := s.elements.CreateExpenseType(ctx, et); err != nil {
		return nil, apperrors.MapError(err)
	}
	return et, nil
}

func (s *CatalogService) UpdateExpenseType(ctx context.Context, id int64, input ExpenseTypeInput) (*domain.ExpenseType, error) {
	et := &domain.ExpenseType{ID: id, ElementID: input.ElementID, Name: strings.TrimSpace(input.Name), Description: strings.TrimSpace(input.Description)}
	if err := s.validateExpenseType(ctx, et); err != nil {
		return nil, err
	}
	if err := s.elements.UpdateExpenseType(ctx, et); err != nil {
		return nil, notFoundAs(err, "expense type", id)
	}
	return et, nil
}

// ListExpenseTypes lists expense types, restricted to one element when
// elementID is set.
func (s *CatalogService) ListExpenseTypes(ctx context.Context, elementID *int64) ([]domain.ExpenseType, error) {
	types, err := s.elements.ListExpenseTypes(ctx, elementID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return types, nil
}

func (s *CatalogService) validateExpenseType(ctx context.Context, et *domain.ExpenseType) error {
	if et.Name == "" {
		return apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if et.ElementID != nil {
		if _, err := s.elements.GetElement(ctx, *et.ElementID); err != nil {
			return notFoundAs(err, "element", *et.ElementID)
		}
	}
	return nil
}

func notFoundAs(err error, resource string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}
