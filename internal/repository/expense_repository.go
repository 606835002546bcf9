package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/finance-service/internal/domain"
)

// ExpenseRepository manages expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.Expense) error
	Update(ctx context.Context, expense *domain.Expense) error
	GetByID(ctx context.Context, id int64) (*domain.Expense, error)
	List(ctx context.Context, filter ExpenseFilter) ([]domain.Expense, int, error)
	TotalByDepartment(ctx context.Context, departmentID int64) (int64, error)
}

// ExpenseFilter defines listing parameters.
type ExpenseFilter struct {
	DepartmentID *int64
	Limit        int
	Offset       int
}

type expenseRepository struct {
	db Querier
}

// NewExpenseRepository builds the repository.
func NewExpenseRepository(db Querier) ExpenseRepository {
	return &expenseRepository{db: db}
}

const expenseColumns = `id, department_id, user_id, element_id, expense_type_id, amount_cents, justification, created_at, updated_at`

func (r *expenseRepository) Create(ctx context.Context, e *domain.Expense) error {
	const query = `
        INSERT INTO expenses (department_id, user_id, element_id, expense_type_id, amount_cents, justification)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		e.DepartmentID,
		e.UserID,
		e.ElementID,
		e.ExpenseTypeID,
		e.AmountCents,
		e.Justification,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *expenseRepository) Update(ctx context.Context, e *domain.Expense) error {
	const query = `
        UPDATE expenses SET element_id=$1, expense_type_id=$2, amount_cents=$3, justification=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		e.ElementID,
		e.ExpenseTypeID,
		e.AmountCents,
		e.Justification,
		e.ID,
	).Scan(&e.UpdatedAt)
}

func (r *expenseRepository) GetByID(ctx context.Context, id int64) (*domain.Expense, error) {
	var e domain.Expense
	if err := scanExpense(r.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id=$1`, id), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns one page of expenses, newest first, and the total count.
func (r *expenseRepository) List(ctx context.Context, filter ExpenseFilter) ([]domain.Expense, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM expenses WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		expenseColumns, where, limit, offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Expense
	for rows.Next() {
		var e domain.Expense
		if err := scanExpense(rows, &e); err != nil {
			return nil, 0, err
		}
		result = append(result, e)
	}
	return result, total, rows.Err()
}

// TotalByDepartment sums the department's expenses. No expenses sum to zero.
func (r *expenseRepository) TotalByDepartment(ctx context.Context, departmentID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE department_id=$1`, departmentID).Scan(&total)
	return total, err
}

func scanExpense(row pgx.Row, e *domain.Expense) error {
	return row.Scan(
		&e.ID,
		&e.DepartmentID,
		&e.UserID,
		&e.ElementID,
		&e.ExpenseTypeID,
		&e.AmountCents,
		&e.Justification,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}
