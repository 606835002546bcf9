package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/events"
	"github.com/spec-kit/finance-service/internal/repository"
	apperrors "github.com/spec-kit/finance-service/pkg/util/errorutil"
)

const maxDepartmentName = 100

// DepartmentService manages department records.
type DepartmentService struct {
	departments repository.DepartmentRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// DepartmentInput describes a new department.
type DepartmentInput struct {
	Name              string
	Description       string
	EntityType        string
	ResponsibleUserID int64
	Done              bool
}

// DepartmentPatch carries the fields of a partial update; nil means unchanged.
type DepartmentPatch struct {
	Name              *string
	Description       *string
	EntityType        *string
	ResponsibleUserID *int64
	Done              *bool
}

// NewDepartmentService constructs the service.
func NewDepartmentService(deps HierarchyDependencies) *DepartmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{
		departments: deps.DepartmentRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// Create adds a department.
func (s *DepartmentService) Create(ctx context.Context, actor *domain.User, input DepartmentInput) (*domain.Department, error) {
	name, err := validateDepartmentName(input.Name)
	if err != nil {
		return nil, err
	}
	dept := &domain.Department{
		Name:              name,
		Description:       strings.TrimSpace(input.Description),
		EntityType:        strings.TrimSpace(input.EntityType),
		ResponsibleUserID: input.ResponsibleUserID,
		Done:              input.Done,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("department created", zap.Int64("department_id", dept.ID), zap.String("name", dept.Name))
	s.publish(ctx, events.EventDepartmentCreated, actor, dept)
	return dept, nil
}

// List returns every department ordered by id.
func (s *DepartmentService) List(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

// Get fetches one department.
func (s *DepartmentService) Get(ctx context.Context, id int64) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, departmentError(err, id)
	}
	return dept, nil
}

// Update applies a partial update.
func (s *DepartmentService) Update(ctx context.Context, actor *domain.User, id int64, patch DepartmentPatch) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, departmentError(err, id)
	}

	if patch.Name != nil {
		name, err := validateDepartmentName(*patch.Name)
		if err != nil {
			return nil, err
		}
		dept.Name = name
	}
	if patch.Description != nil {
		dept.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.EntityType != nil {
		dept.EntityType = strings.TrimSpace(*patch.EntityType)
	}
	if patch.ResponsibleUserID != nil {
		dept.ResponsibleUserID = *patch.ResponsibleUserID
	}
	if patch.Done != nil {
		dept.Done = *patch.Done
	}

	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, departmentError(err, id)
	}

	s.logger.Info("department updated", zap.Int64("department_id", dept.ID))
	s.publish(ctx, events.EventDepartmentUpdated, actor, dept)
	return dept, nil
}

// Delete removes a department together with its subordinations, budgets and
// expenses.
func (s *DepartmentService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if err := s.departments.Delete(ctx, id); err != nil {
		return departmentError(err, id)
	}
	s.logger.Info("department deleted", zap.Int64("department_id", id))
	s.publish(ctx, events.EventDepartmentDeleted, actor, &domain.Department{ID: id})
	return nil
}

func (s *DepartmentService) publish(ctx context.Context, eventType events.EventType, actor *domain.User, dept *domain.Department) {
	if s.dispatcher == nil {
		return
	}
	payload := events.DepartmentPayload{DepartmentID: dept.ID, Name: dept.Name}
	if err := s.dispatcher.Publish(ctx, events.New(eventType, actorID(actor), payload)); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

func validateDepartmentName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if len([]rune(name)) > maxDepartmentName {
		return "", apperrors.NewValidationError("name is too long", map[string]any{"field": "name", "max": maxDepartmentName})
	}
	return name, nil
}

func departmentError(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("department", map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}
