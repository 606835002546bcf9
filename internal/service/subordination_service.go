package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/events"
	"github.com/spec-kit/finance-service/internal/hierarchy"
	"github.com/spec-kit/finance-service/internal/lock"
	"github.com/spec-kit/finance-service/internal/observability"
	"github.com/spec-kit/finance-service/internal/repository"
	apperrors "github.com/spec-kit/finance-service/pkg/util/errorutil"
)

// SubordinationService maintains the department hierarchy. Every mutation
// loads the edge set, validates it on a hierarchy.Graph and persists while
// holding the hierarchy lock. Events go out after the lock is released.
type SubordinationService struct {
	departments    repository.DepartmentRepository
	subordinations repository.SubordinationRepository
	locker         lock.Locker
	dispatcher     events.Dispatcher
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// HierarchyDependencies bundles what the hierarchy services need.
type HierarchyDependencies struct {
	DepartmentRepo    repository.DepartmentRepository
	SubordinationRepo repository.SubordinationRepository
	Locker            lock.Locker
	Dispatcher        events.Dispatcher
	Metrics           *observability.Metrics
	Logger            *zap.Logger
}

// SubordinationInput describes a superior -> subordinate edge.
type SubordinationInput struct {
	SuperiorID    int64
	SubordinateID int64
	Observation   string
}

// NewSubordinationService constructs the service. A nil Locker falls back to
// an in-process lock.
func NewSubordinationService(deps HierarchyDependencies) *SubordinationService {
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewLocal()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubordinationService{
		departments:    deps.DepartmentRepo,
		subordinations: deps.SubordinationRepo,
		locker:         locker,
		dispatcher:     deps.Dispatcher,
		metrics:        deps.Metrics,
		logger:         logger,
	}
}

// Add creates a subordination after checking, in order: self reference,
// department existence, duplicate edge, existing superior, cycle.
func (s *SubordinationService) Add(ctx context.Context, actor *domain.User, input SubordinationInput) (*domain.Subordination, error) {
	if err := hierarchy.CheckEndpoints(input.SuperiorID, input.SubordinateID); err != nil {
		return nil, s.reject(s.dispatchNow(ctx), actor, "add", input, err)
	}

	var created *domain.Subordination
	err := s.mutate(ctx, func(emit emitFunc) error {
		if err := s.requireDepartments(ctx, input.SuperiorID, input.SubordinateID); err != nil {
			return err
		}

		graph, err := s.graph(ctx)
		if err != nil {
			return err
		}
		if err := graph.Check(input.SuperiorID, input.SubordinateID); err != nil {
			return s.reject(emit, actor, "add", input, err)
		}

		sub := &domain.Subordination{
			SuperiorID:    input.SuperiorID,
			SubordinateID: input.SubordinateID,
			Observation:   input.Observation,
		}
		if err := s.subordinations.Create(ctx, sub); err != nil {
			return s.persistError(emit, actor, "add", input, err)
		}

		created, err = s.subordinations.GetByID(ctx, sub.ID)
		if err != nil {
			return apperrors.MapError(err)
		}

		s.metrics.RecordHierarchy("add", "ok")
		s.logger.Info("subordination created",
			zap.Int64("subordination_id", created.ID),
			zap.Int64("superior_id", created.SuperiorID),
			zap.Int64("subordinate_id", created.SubordinateID),
		)
		emit(events.New(events.EventSubordinationCreated, actorID(actor), subordinationPayload(created)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces the endpoints and observation of an existing edge. The edge
// being replaced is left out of the graph used for validation.
func (s *SubordinationService) Update(ctx context.Context, actor *domain.User, id int64, input SubordinationInput) (*domain.Subordination, error) {
	var updated *domain.Subordination
	err := s.mutate(ctx, func(emit emitFunc) error {
		existing, err := s.subordinations.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("subordination", map[string]any{"id": id})
			}
			return apperrors.MapError(err)
		}

		if err := hierarchy.CheckEndpoints(input.SuperiorID, input.SubordinateID); err != nil {
			return s.reject(emit, actor, "update", input, err)
		}
		if err := s.requireDepartments(ctx, input.SuperiorID, input.SubordinateID); err != nil {
			return err
		}

		graph, err := s.graph(ctx, existing.ID)
		if err != nil {
			return err
		}
		if err := graph.Check(input.SuperiorID, input.SubordinateID); err != nil {
			return s.reject(emit, actor, "update", input, err)
		}

		existing.SuperiorID = input.SuperiorID
		existing.SubordinateID = input.SubordinateID
		existing.Observation = input.Observation
		if err := s.subordinations.Update(ctx, existing); err != nil {
			return s.persistError(emit, actor, "update", input, err)
		}

		updated, err = s.subordinations.GetByID(ctx, id)
		if err != nil {
			return apperrors.MapError(err)
		}

		s.metrics.RecordHierarchy("update", "ok")
		s.logger.Info("subordination updated",
			zap.Int64("subordination_id", updated.ID),
			zap.Int64("superior_id", updated.SuperiorID),
			zap.Int64("subordinate_id", updated.SubordinateID),
		)
		emit(events.New(events.EventSubordinationUpdated, actorID(actor), subordinationPayload(updated)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an edge. Removing an edge can never break the hierarchy rules
// so nothing is re-checked.
func (s *SubordinationService) Delete(ctx context.Context, actor *domain.User, id int64) (bool, error) {
	err := s.mutate(ctx, func(emit emitFunc) error {
		existing, err := s.subordinations.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("subordination", map[string]any{"id": id})
			}
			return apperrors.MapError(err)
		}
		if err := s.subordinations.Delete(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("subordination", map[string]any{"id": id})
			}
			return apperrors.MapError(err)
		}

		s.metrics.RecordHierarchy("delete", "ok")
		s.logger.Info("subordination deleted", zap.Int64("subordination_id", id))
		emit(events.New(events.EventSubordinationDeleted, actorID(actor), subordinationPayload(existing)))
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// emitFunc queues or dispatches a domain event.
type emitFunc func(events.Event)

// mutate runs fn under the hierarchy lock. Events emitted by fn are dispatched
// after the lock is released.
func (s *SubordinationService) mutate(ctx context.Context, fn func(emit emitFunc) error) error {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return lockError(err)
	}

	var queued []events.Event
	err = func() error {
		defer release()
		return fn(func(ev events.Event) { queued = append(queued, ev) })
	}()

	for _, ev := range queued {
		s.dispatch(ctx, ev)
	}
	return err
}

// List returns every edge with department names, ordered by id.
func (s *SubordinationService) List(ctx context.Context) ([]domain.Subordination, error) {
	subs, err := s.subordinations.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return subs, nil
}

// Get returns a single edge.
func (s *SubordinationService) Get(ctx context.Context, id int64) (*domain.Subordination, error) {
	sub, err := s.subordinations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("subordination", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return sub, nil
}

// SubordinatesOf returns every department below departmentID, breadth first.
func (s *SubordinationService) SubordinatesOf(ctx context.Context, departmentID int64) ([]domain.Department, error) {
	if err := s.requireDepartments(ctx, departmentID); err != nil {
		return nil, err
	}
	graph, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, graph.Descendants(departmentID))
}

// ChainOf returns the superiors of departmentID from the direct superior up
// to the root.
func (s *SubordinationService) ChainOf(ctx context.Context, departmentID int64) ([]domain.Department, error) {
	if err := s.requireDepartments(ctx, departmentID); err != nil {
		return nil, err
	}
	graph, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, graph.Chain(departmentID))
}

// Audit reports rule violations present in the stored edges.
func (s *SubordinationService) Audit(ctx context.Context) ([]hierarchy.Violation, error) {
	edges, err := s.edges(ctx)
	if err != nil {
		return nil, err
	}
	return hierarchy.Audit(edges), nil
}

func (s *SubordinationService) edges(ctx context.Context) ([]hierarchy.Edge, error) {
	subs, err := s.subordinations.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	edges := make([]hierarchy.Edge, len(subs))
	for i, sub := range subs {
		edges[i] = hierarchy.Edge{ID: sub.ID, Superior: sub.SuperiorID, Subordinate: sub.SubordinateID}
	}
	return edges, nil
}

func (s *SubordinationService) graph(ctx context.Context, skip ...int64) (*hierarchy.Graph, error) {
	edges, err := s.edges(ctx)
	if err != nil {
		return nil, err
	}
	return hierarchy.Build(edges, skip...), nil
}

func (s *SubordinationService) requireDepartments(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		ok, err := s.departments.Exists(ctx, id)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !ok {
			return apperrors.NewNotFound("department", map[string]any{"id": id})
		}
	}
	return nil
}

func (s *SubordinationService) resolve(ctx context.Context, ids []int64) ([]domain.Department, error) {
	if len(ids) == 0 {
		return []domain.Department{}, nil
	}
	all, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byID := make(map[int64]domain.Department, len(all))
	for _, dept := range all {
		byID[dept.ID] = dept
	}
	result := make([]domain.Department, 0, len(ids))
	for _, id := range ids {
		if dept, ok := byID[id]; ok {
			result = append(result, dept)
		}
	}
	return result, nil
}

// reject converts a hierarchy rule error, records it and announces it.
func (s *SubordinationService) reject(emit emitFunc, actor *domain.User, op string, input SubordinationInput, err error) error {
	domainErr := hierarchyError(err, input)
	s.metrics.RecordHierarchy(op, domainErr.Code)
	s.logger.Warn("subordination rejected",
		zap.String("operation", op),
		zap.String("code", domainErr.Code),
		zap.Int64("superior_id", input.SuperiorID),
		zap.Int64("subordinate_id", input.SubordinateID),
		zap.Error(err),
	)
	emit(events.New(events.EventSubordinationRejected, actorID(actor), events.SubordinationRejectedPayload{
		SuperiorID:    input.SuperiorID,
		SubordinateID: input.SubordinateID,
		Code:          domainErr.Code,
		Reason:        err.Error(),
	}))
	return domainErr
}

// persistError handles write failures. The schema enforces the same rules as
// the graph, so a constraint hit here means another writer slipped past the
// lock (for instance a replica without Redis).
func (s *SubordinationService) persistError(emit emitFunc, actor *domain.User, op string, input SubordinationInput, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		var rule error
		switch pgErr.ConstraintName {
		case "subordinations_no_self":
			rule = hierarchy.ErrSelfReference
		case "subordinations_pair_unique":
			rule = hierarchy.ErrDuplicateEdge
		case "subordinations_single_superior":
			rule = hierarchy.ErrMultipleSuperiors
		}
		if rule != nil {
			return s.reject(emit, actor, op, input, errors.Join(rule, err))
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("department", map[string]any{
			"superior_id":    input.SuperiorID,
			"subordinate_id": input.SubordinateID,
		})
	}
	return apperrors.MapError(err)
}

func (s *SubordinationService) dispatchNow(ctx context.Context) emitFunc {
	return func(ev events.Event) { s.dispatch(ctx, ev) }
}

func (s *SubordinationService) dispatch(ctx context.Context, ev events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

func hierarchyError(err error, input SubordinationInput) *apperrors.DomainError {
	details := map[string]any{
		"superior_id":    input.SuperiorID,
		"subordinate_id": input.SubordinateID,
	}

	var (
		cycle *hierarchy.CycleError
		multi *hierarchy.MultipleSuperiorsError
	)
	switch {
	case errors.Is(err, hierarchy.ErrSelfReference):
		return wrapRule(err, apperrors.CodeInvalidSelfReference, "a department cannot be subordinate to itself", http.StatusUnprocessableEntity, details)
	case errors.Is(err, hierarchy.ErrDuplicateEdge):
		return wrapRule(err, apperrors.CodeDuplicateEdge, "this subordination already exists", http.StatusConflict, details)
	case errors.As(err, &multi):
		details["current_superior_id"] = multi.CurrentSuperior
		return wrapRule(err, apperrors.CodeMultipleSuperiors, "the subordinate department already has a direct superior", http.StatusConflict, details)
	case errors.Is(err, hierarchy.ErrMultipleSuperiors):
		return wrapRule(err, apperrors.CodeMultipleSuperiors, "the subordinate department already has a direct superior", http.StatusConflict, details)
	case errors.As(err, &cycle):
		details["path"] = cycle.Path
		return wrapRule(err, apperrors.CodeCycleDetected, "this subordination would create a cycle in the hierarchy", http.StatusConflict, details)
	}
	return apperrors.ToDomainError(err)
}

func wrapRule(err error, code, message string, status int, details map[string]any) *apperrors.DomainError {
	return &apperrors.DomainError{Code: code, Message: message, HTTPStatus: status, Details: details, Err: err}
}

func lockError(err error) error {
	return apperrors.Wrap(err, apperrors.CodeInternal, "hierarchy is busy, retry later", http.StatusServiceUnavailable, nil)
}

func subordinationPayload(sub *domain.Subordination) events.SubordinationPayload {
	return events.SubordinationPayload{
		SubordinationID: sub.ID,
		SuperiorID:      sub.SuperiorID,
		SubordinateID:   sub.SubordinateID,
		Observation:     sub.Observation,
	}
}

func actorID(actor *domain.User) *int64 {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}
