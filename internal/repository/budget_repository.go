package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/finance-service/internal/domain"
)

// BudgetRepository manages yearly department budgets.
type BudgetRepository interface {
	Create(ctx context.Context, budget *domain.Budget) error
	Update(ctx context.Context, budget *domain.Budget) error
	GetByID(ctx context.Context, id int64) (*domain.Budget, error)
	GetByDepartmentYear(ctx context.Context, departmentID int64, year int) (*domain.Budget, error)
	List(ctx context.Context, departmentID *int64) ([]domain.Budget, error)
}

type budgetRepository struct {
	db Querier
}

// NewBudgetRepository builds the repository.
func NewBudgetRepository(db Querier) BudgetRepository {
	return &budgetRepository{db: db}
}

const budgetColumns = `id, department_id, user_id, year, amount_cents, description, created_at, updated_at`

func (r *budgetRepository) Create(ctx context.Context, budget *domain.Budget) error {
	const query = `
        INSERT INTO budgets (department_id, user_id, year, amount_cents, description)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		budget.DepartmentID,
		budget.UserID,
		budget.Year,
		budget.AmountCents,
		budget.Description,
	).Scan(&budget.ID, &budget.CreatedAt, &budget.UpdatedAt)
}

func (r *budgetRepository) Update(ctx context.Context, budget *domain.Budget) error {
	const query = `
        UPDATE budgets SET amount_cents=$1, description=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query, budget.AmountCents, budget.Description, budget.ID).Scan(&budget.UpdatedAt)
}

func (r *budgetRepository) GetByID(ctx context.Context, id int64) (*domain.Budget, error) {
	return r.fetchSingle(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id=$1`, id)
}

func (r *budgetRepository) GetByDepartmentYear(ctx context.Context, departmentID int64, year int) (*domain.Budget, error) {
	return r.fetchSingle(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE department_id=$1 AND year=$2`, departmentID, year)
}

func (r *budgetRepository) List(ctx context.Context, departmentID *int64) ([]domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets`
	args := []any{}
	if departmentID != nil {
		query += ` WHERE department_id=$1`
		args = append(args, *departmentID)
	}
	query += ` ORDER BY year DESC, department_id, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Budget
	for rows.Next() {
		var b domain.Budget
		if err := scanBudget(rows, &b); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *budgetRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Budget, error) {
	var b domain.Budget
	if err := scanBudget(r.db.QueryRow(ctx, query, args...), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBudget(row pgx.Row, b *domain.Budget) error {
	return row.Scan(
		&b.ID,
		&b.DepartmentID,
		&b.UserID,
		&b.Year,
		&b.AmountCents,
		&b.Description,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}
