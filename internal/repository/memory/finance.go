package memory

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/repository"
)

const uniqueViolation = "23505"

func unique(constraint string) error {
	return &pgconn.PgError{Code: uniqueViolation, ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

type users struct{ s *state }

func (r *users) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkUserUnique(user); err != nil {
		return err
	}
	r.s.nextUser++
	now := r.s.now()
	user.ID = r.s.nextUser
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *users) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if err := r.s.checkUserUnique(user); err != nil {
		return err
	}
	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

func (r *users) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *users) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *users) List(context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *users) find(match func(domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if match(user) {
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *state) checkUserUnique(user *domain.User) error {
	for _, other := range s.users {
		if other.ID == user.ID {
			continue
		}
		if other.Username == user.Username {
			return unique("users_username_key")
		}
		if other.Email == user.Email {
			return unique("users_email_key")
		}
	}
	return nil
}

type elements struct{ s *state }

func (r *elements) CreateElement(_ context.Context, el *domain.Element) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.elements {
		if other.Code == el.Code {
			return unique("elements_code_key")
		}
	}
	r.s.nextElement++
	el.ID = r.s.nextElement
	r.s.elements[el.ID] = *el
	return nil
}

func (r *elements) UpdateElement(_ context.Context, el *domain.Element) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.elements[el.ID]; !ok {
		return pgx.ErrNoRows
	}
	for _, other := range r.s.elements {
		if other.ID != el.ID && other.Code == el.Code {
			return unique("elements_code_key")
		}
	}
	r.s.elements[el.ID] = *el
	return nil
}

func (r *elements) GetElement(_ context.Context, id int64) (*domain.Element, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	el, ok := r.s.elements[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &el, nil
}

func (r *elements) ListElements(context.Context) ([]domain.Element, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.Element, 0, len(r.s.elements))
	for _, el := range r.s.elements {
		result = append(result, el)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (r *elements) CreateExpenseType(_ context.Context, et *domain.ExpenseType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if et.ElementID != nil {
		if _, ok := r.s.elements[*et.ElementID]; !ok {
			return pgx.ErrNoRows
		}
	}
	r.s.nextType++
	et.ID = r.s.nextType
	r.s.expenseTypes[et.ID] = *et
	return nil
}

func (r *elements) UpdateExpenseType(_ context.Context, et *domain.ExpenseType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expenseTypes[et.ID]; !ok {
		return pgx.ErrNoRows
	}
	if et.ElementID != nil {
		if _, ok := r.s.elements[*et.ElementID]; !ok {
			return pgx.ErrNoRows
		}
	}
	r.s.expenseTypes[et.ID] = *et
	return nil
}

func (r *elements) GetExpenseType(_ context.Context, id int64) (*domain.ExpenseType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	et, ok := r.s.expenseTypes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &et, nil
}

func (r *elements) ListExpenseTypes(_ context.Context, elementID *int64) ([]domain.ExpenseType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.ExpenseType
	for _, et := range r.s.expenseTypes {
		if elementID != nil && (et.ElementID == nil || *et.ElementID != *elementID) {
			continue
		}
		result = append(result, et)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type budgets struct{ s *state }

func (r *budgets) Create(_ context.Context, b *domain.Budget) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.departments[b.DepartmentID]; !ok {
		return pgx.ErrNoRows
	}
	for _, other := range r.s.budgets {
		if other.DepartmentID == b.DepartmentID && other.Year == b.Year {
			return unique("budgets_department_year_unique")
		}
	}
	r.s.nextBudget++
	now := r.s.now()
	b.ID = r.s.nextBudget
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.budgets[b.ID] = *b
	return nil
}

func (r *budgets) Update(_ context.Context, b *domain.Budget) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.budgets[b.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	current.AmountCents = b.AmountCents
	current.Description = b.Description
	current.UpdatedAt = r.s.now()
	r.s.budgets[b.ID] = current
	*b = current
	return nil
}

func (r *budgets) GetByID(_ context.Context, id int64) (*domain.Budget, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.budgets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &b, nil
}

func (r *budgets) GetByDepartmentYear(_ context.Context, departmentID int64, year int) (*domain.Budget, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.budgets {
		if b.DepartmentID == departmentID && b.Year == year {
			return &b, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *budgets) List(_ context.Context, departmentID *int64) ([]domain.Budget, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Budget
	for _, b := range r.s.budgets {
		if departmentID != nil && b.DepartmentID != *departmentID {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year > result[j].Year
		}
		if result[i].DepartmentID != result[j].DepartmentID {
			return result[i].DepartmentID < result[j].DepartmentID
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type expenses struct{ s *state }

func (r *expenses) Create(_ context.Context, e *domain.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.departments[e.DepartmentID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.nextExpense++
	now := r.s.now()
	e.ID = r.s.nextExpense
	e.CreatedAt, e.UpdatedAt = now, now
	r.s.expenses[e.ID] = *e
	return nil
}

func (r *expenses) Update(_ context.Context, e *domain.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.expenses[e.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	current.ElementID = e.ElementID
	current.ExpenseTypeID = e.ExpenseTypeID
	current.AmountCents = e.AmountCents
	current.Justification = e.Justification
	current.UpdatedAt = r.s.now()
	r.s.expenses[e.ID] = current
	*e = current
	return nil
}

func (r *expenses) GetByID(_ context.Context, id int64) (*domain.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.expenses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (r *expenses) List(_ context.Context, filter repository.ExpenseFilter) ([]domain.Expense, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []domain.Expense
	for _, e := range r.s.expenses {
		if filter.DepartmentID != nil && e.DepartmentID != *filter.DepartmentID {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (r *expenses) TotalByDepartment(_ context.Context, departmentID int64) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var total int64
	for _, e := range r.s.expenses {
		if e.DepartmentID == departmentID {
			total += e.AmountCents
		}
	}
	return total, nil
}

type responsibilities struct{ s *state }

func (r *responsibilities) Create(_ context.Context, resp *domain.Responsibility) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[resp.UserID]; !ok {
		return pgx.ErrNoRows
	}
	if _, ok := r.s.departments[resp.DepartmentID]; !ok {
		return pgx.ErrNoRows
	}
	for _, other := range r.s.responsible {
		if other.UserID == resp.UserID && other.DepartmentID == resp.DepartmentID {
			return unique("responsibilities_user_department_unique")
		}
	}
	r.s.nextResp++
	resp.ID = r.s.nextResp
	resp.CreatedAt = r.s.now()
	r.s.responsible[resp.ID] = *resp
	r.s.fillResponsibility(resp)
	return nil
}

func (r *responsibilities) Update(_ context.Context, resp *domain.Responsibility) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.responsible[resp.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	current.Observation = resp.Observation
	r.s.responsible[resp.ID] = current
	return nil
}

func (r *responsibilities) GetByID(_ context.Context, id int64) (*domain.Responsibility, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	resp, ok := r.s.responsible[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.s.fillResponsibility(&resp)
	return &resp, nil
}

func (r *responsibilities) List(_ context.Context, departmentID *int64) ([]domain.Responsibility, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Responsibility
	for _, resp := range r.s.responsible {
		if departmentID != nil && resp.DepartmentID != *departmentID {
			continue
		}
		r.s.fillResponsibility(&resp)
		result = append(result, resp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *state) fillResponsibility(resp *domain.Responsibility) {
	resp.Username = s.users[resp.UserID].Username
	resp.DepartmentName = s.departments[resp.DepartmentID].Name
}
