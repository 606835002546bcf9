package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/finance-service/internal/domain"
)

// ElementRepository manages spending elements and expense types.
type ElementRepository interface {
	CreateElement(ctx context.Context, el *domain.Element) error
	UpdateElement(ctx context.Context, el *domain.Element) error
	GetElement(ctx context.Context, id int64) (*domain.Element, error)
	ListElements(ctx context.Context) ([]domain.Element, error)

	CreateExpenseType(ctx context.Context, et *domain.ExpenseType) error
	UpdateExpenseType(ctx context.Context, et *domain.ExpenseType) error
	GetExpenseType(ctx context.Context, id int64) (*domain.ExpenseType, error)
	ListExpenseTypes(ctx context.Context, elementID *int64) ([]domain.ExpenseType, error)
}

type elementRepository struct {
	db Querier
}

// NewElementRepository builds the repository.
func NewElementRepository(db Querier) ElementRepository {
	return &elementRepository{db: db}
}

func (r *elementRepository) CreateElement(ctx context.Context, el *domain.Element) error {
	const query = `INSERT INTO elements (code, description) VALUES ($1,$2) RETURNING id`
	return r.db.QueryRow(ctx, query, el.Code, el.Description).Scan(&el.ID)
}

func (r *elementRepository) UpdateElement(ctx context.Context, el *domain.Element) error {
	cmd, err := r.db.Exec(ctx, `UPDATE elements SET code=$1, description=$2 WHERE id=$3`, el.Code, el.Description, el.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *elementRepository) GetElement(ctx context.Context, id int64) (*domain.Element, error) {
	var el domain.Element
	if err := r.db.QueryRow(ctx, `SELECT id, code, description FROM elements WHERE id=$1`, id).
		Scan(&el.ID, &el.Code, &el.Description); err != nil {
		return nil, err
	}
	return &el, nil
}

func (r *elementRepository) ListElements(ctx context.Context) ([]domain.Element, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, description FROM elements ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Element
	for rows.Next() {
		var el domain.Element
		if err := rows.Scan(&el.ID, &el.Code, &el.Description); err != nil {
			return nil, err
		}
		result = append(result, el)
	}
	return result, rows.Err()
}

func (r *elementRepository) CreateExpenseType(ctx context.Context, et *domain.ExpenseType) error {
	const query = `INSERT INTO expense_types (element_id, name, description) VALUES ($1,$2,$3) RETURNING id`
	return r.db.QueryRow(ctx, query, et.ElementID, et.Name, et.Description).Scan(&et.ID)
}

func (r *elementRepository) UpdateExpenseType(ctx context.Context, et *domain.ExpenseType) error {
	const query = `UPDATE expense_types SET element_id=$1, name=$2, description=$3 WHERE id=$4`
	cmd, err := r.db.Exec(ctx, query, et.ElementID, et.Name, et.Description, et.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *elementRepository) GetExpenseType(ctx context.Context, id int64) (*domain.ExpenseType, error) {
	var et domain.ExpenseType
	if err := r.db.QueryRow(ctx, `SELECT id, element_id, name, description FROM expense_types WHERE id=$1`, id).
		Scan(&et.ID, &et.ElementID, &et.Name, &et.Description); err != nil {
		return nil, err
	}
	return &et, nil
}

func (r *elementRepository) ListExpenseTypes(ctx context.Context, elementID *int64) ([]domain.ExpenseType, error) {
	query := `SELECT id, element_id, name, description FROM expense_types`
	args := []any{}
	if elementID != nil {
		query += ` WHERE element_id=$1`
		args = append(args, *elementID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ExpenseType
	for rows.Next() {
		var et domain.ExpenseType
		if err := rows.Scan(&et.ID, &et.ElementID, &et.Name, &et.Description); err != nil {
			return nil, err
		}
		result = append(result, et)
	}
	return result, rows.Err()
}
