package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/repository"
	apperrors "github.com/spec-kit/finance-service/pkg/util/errorutil"
)

// ResponsibilityService assigns users as responsible for departments.
type ResponsibilityService struct {
	responsibilities repository.ResponsibilityRepository
	users            repository.UserRepository
	departments      repository.DepartmentRepository
}

// ResponsibilityInput describes a new responsibility.
type ResponsibilityInput struct {
	UserID       int64
	DepartmentID int64
	Observation  string
}

// NewResponsibilityService constructs the service.
func NewResponsibilityService(responsibilities repository.ResponsibilityRepository, users repository.UserRepository, departments repository.DepartmentRepository) *ResponsibilityService {
	return &ResponsibilityService{responsibilities: responsibilities, users: users, departments: departments}
}

// Add makes a user responsible for a department. The pair is unique.
func (s *ResponsibilityService) Add(ctx context.Context, actor *domain.User, input ResponsibilityInput) (*domain.Responsibility, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		return nil, notFoundAs(err, "user", input.UserID)
	}
	ok, err := s.departments.Exists(ctx, input.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return nil, apperrors.NewNotFound("department", map[string]any{"id": input.DepartmentID})
	}

	resp := &domain.Responsibility{
		UserID:       input.UserID,
		DepartmentID: input.DepartmentID,
		Observation:  strings.TrimSpace(input.Observation),
	}
	if err := s.responsibilities.Create(ctx, resp); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == apperrors.PgUniqueViolation {
			return nil, apperrors.NewConflict("user is already responsible for this department", map[string]any{
				"user_id":       input.UserID,
				"department_id": input.DepartmentID,
			})
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"id": input.DepartmentID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.Get(ctx, resp.ID)
}

// Update replaces the observation. A nil observation leaves it unchanged.
func (s *ResponsibilityService) Update(ctx context.Context, id int64, observation *string) (*domain.Responsibility, error) {
	resp, err := s.responsibilities.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "responsibility", id)
	}
	if observation == nil {
		return resp, nil
	}
	resp.Observation = strings.TrimSpace(*observation)
	if err := s.responsibilities.Update(ctx, resp); err != nil {
		return nil, notFoundAs(err, "responsibility", id)
	}
	return resp, nil
}

// Get fetches one responsibility.
func (s *ResponsibilityService) Get(ctx context.Context, id int64) (*domain.Responsibility, error) {
	resp, err := s.responsibilities.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "responsibility", id)
	}
	return resp, nil
}

// List returns responsibilities, optionally for one department.
func (s *ResponsibilityService) List(ctx context.Context, departmentID *int64) ([]domain.Responsibility, error) {
	list, err := s.responsibilities.List(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if list == nil {
		list = []domain.Responsibility{}
	}
	return list, nil
}
