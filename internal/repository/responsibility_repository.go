package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/finance-service/internal/domain"
)

// ResponsibilityRepository persists user to department responsibilities.
type ResponsibilityRepository interface {
	Create(ctx context.Context, r *domain.Responsibility) error
	Update(ctx context.Context, r *domain.Responsibility) error
	GetByID(ctx context.Context, id int64) (*domain.Responsibility, error)
	List(ctx context.Context, departmentID *int64) ([]domain.Responsibility, error)
}

type responsibilityRepository struct {
	db Querier
}

// NewResponsibilityRepository builds the Postgres implementation.
func NewResponsibilityRepository(db Querier) ResponsibilityRepository {
	return &responsibilityRepository{db: db}
}

const responsibilitySelect = `
        SELECT r.id, r.user_id, r.department_id, u.username, d.name, r.observation, r.created_at
        FROM responsibilities r
        JOIN users u ON u.id = r.user_id
        JOIN departments d ON d.id = r.department_id`

func (r *responsibilityRepository) Create(ctx context.Context, resp *domain.Responsibility) error {
	const query = `
        INSERT INTO responsibilities (user_id, department_id, observation)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		resp.UserID,
		resp.DepartmentID,
		resp.Observation,
	).Scan(&resp.ID, &resp.CreatedAt)
}

func (r *responsibilityRepository) Update(ctx context.Context, resp *domain.Responsibility) error {
	cmd, err := r.db.Exec(ctx, `UPDATE responsibilities SET observation=$1 WHERE id=$2`, resp.Observation, resp.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *responsibilityRepository) GetByID(ctx context.Context, id int64) (*domain.Responsibility, error) {
	var resp domain.Responsibility
	if err := scanResponsibility(r.db.QueryRow(ctx, responsibilitySelect+` WHERE r.id=$1`, id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns responsibilities ordered by id, optionally for one department.
func (r *responsibilityRepository) List(ctx context.Context, departmentID *int64) ([]domain.Responsibility, error) {
	query := responsibilitySelect
	args := []any{}
	if departmentID != nil {
		query += ` WHERE r.department_id=$1`
		args = append(args, *departmentID)
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY r.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Responsibility
	for rows.Next() {
		var resp domain.Responsibility
		if err := scanResponsibility(rows, &resp); err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, rows.Err()
}

func scanResponsibility(row pgx.Row, resp *domain.Responsibility) error {
	return row.Scan(
		&resp.ID,
		&resp.UserID,
		&resp.DepartmentID,
		&resp.Username,
		&resp.DepartmentName,
		&resp.Observation,
		&resp.CreatedAt,
	)
}
