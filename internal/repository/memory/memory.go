// Package memory provides in-memory repositories. They follow the Postgres
// implementations' contracts, including returning pgx.ErrNoRows for missing
// rows, unique violations as *pgconn.PgError and cascading department deletes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/repository"
)

// Store groups the repositories sharing one state.
type Store struct {
	Departments      repository.DepartmentRepository
	Subordinations   repository.SubordinationRepository
	Users            repository.UserRepository
	Elements         repository.ElementRepository
	Budgets          repository.BudgetRepository
	Expenses         repository.ExpenseRepository
	Responsibilities repository.ResponsibilityRepository
}

type state struct {
	mu             sync.RWMutex
	now            func() time.Time
	nextDept       int64
	nextSub        int64
	nextUser       int64
	nextElement    int64
	nextType       int64
	nextBudget     int64
	nextExpense    int64
	nextResp       int64
	departments    map[int64]domain.Department
	subordinations map[int64]domain.Subordination
	users          map[int64]domain.User
	elements       map[int64]domain.Element
	expenseTypes   map[int64]domain.ExpenseType
	budgets        map[int64]domain.Budget
	expenses       map[int64]domain.Expense
	responsible    map[int64]domain.Responsibility
}

// New returns an empty store.
func New() *Store {
	s := &state{
		now:            time.Now,
		departments:    make(map[int64]domain.Department),
		subordinations: make(map[int64]domain.Subordination),
		users:          make(map[int64]domain.User),
		elements:       make(map[int64]domain.Element),
		expenseTypes:   make(map[int64]domain.ExpenseType),
		budgets:        make(map[int64]domain.Budget),
		expenses:       make(map[int64]domain.Expense),
		responsible:    make(map[int64]domain.Responsibility),
	}
	return &Store{
		Departments:      &departments{s: s},
		Subordinations:   &subordinations{s: s},
		Users:            &users{s: s},
		Elements:         &elements{s: s},
		Budgets:          &budgets{s: s},
		Expenses:         &expenses{s: s},
		Responsibilities: &responsibilities{s: s},
	}
}

type departments struct{ s *state }

func (r *departments) Create(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextDept++
	now := r.s.now()
	dept.ID = r.s.nextDept
	dept.CreatedAt, dept.UpdatedAt = now, now
	r.s.departments[dept.ID] = *dept
	return nil
}

func (r *departments) Update(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.departments[dept.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	dept.CreatedAt = current.CreatedAt
	dept.UpdatedAt = r.s.now()
	r.s.departments[dept.ID] = *dept
	return nil
}

func (r *departments) GetByID(_ context.Context, id int64) (*domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	dept, ok := r.s.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &dept, nil
}

func (r *departments) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.departments[id]
	return ok, nil
}

func (r *departments) List(context.Context) ([]domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.Department, 0, len(r.s.departments))
	for _, dept := range r.s.departments {
		result = append(result, dept)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *departments) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.departments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.departments, id)
	for subID, sub := range r.s.subordinations {
		if sub.SuperiorID == id || sub.SubordinateID == id {
			delete(r.s.subordinations, subID)
		}
	}
	for budgetID, b := range r.s.budgets {
		if b.DepartmentID == id {
			delete(r.s.budgets, budgetID)
		}
	}
	for expenseID, e := range r.s.expenses {
		if e.DepartmentID == id {
			delete(r.s.expenses, expenseID)
		}
	}
	for respID, resp := range r.s.responsible {
		if resp.DepartmentID == id {
			delete(r.s.responsible, respID)
		}
	}
	return nil
}

type subordinations struct{ s *state }

func (r *subordinations) Create(_ context.Context, sub *domain.Subordination) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkEndpoints(sub); err != nil {
		return err
	}
	r.s.nextSub++
	sub.ID = r.s.nextSub
	sub.CreatedAt = r.s.now()
	r.s.subordinations[sub.ID] = *sub
	return nil
}

func (r *subordinations) Update(_ context.Context, sub *domain.Subordination) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.subordinations[sub.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if err := r.s.checkEndpoints(sub); err != nil {
		return err
	}
	sub.CreatedAt = current.CreatedAt
	r.s.subordinations[sub.ID] = *sub
	return nil
}

func (r *subordinations) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subordinations[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.subordinations, id)
	return nil
}

func (r *subordinations) GetByID(_ context.Context, id int64) (*domain.Subordination, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.subordinations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.s.fillNames(&sub)
	return &sub, nil
}

func (r *subordinations) List(context.Context) ([]domain.Subordination, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.Subordination, 0, len(r.s.subordinations))
	for _, sub := range r.s.subordinations {
		r.s.fillNames(&sub)
		result = append(result, sub)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// checkEndpoints mirrors the foreign keys of the subordinations table.
func (s *state) checkEndpoints(sub *domain.Subordination) error {
	if _, ok := s.departments[sub.SuperiorID]; !ok {
		return pgx.ErrNoRows
	}
	if _, ok := s.departments[sub.SubordinateID]; !ok {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *state) fillNames(sub *domain.Subordination) {
	sub.SuperiorName = s.departments[sub.SuperiorID].Name
	sub.SubordinateName = s.departments[sub.SubordinateID].Name
}
