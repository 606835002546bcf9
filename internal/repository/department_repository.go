package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/finance-service/internal/domain"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]domain.Department, error)
	Delete(ctx context.Context, id int64) error
}

type departmentRepository struct {
	db Querier
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(db Querier) DepartmentRepository {
	return &departmentRepository{db: db}
}

const departmentColumns = `id, name, description, entity_type, responsible_user_id, done, created_at, updated_at`

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, description, entity_type, responsible_user_id, done)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		dept.Name,
		dept.Description,
		dept.EntityType,
		dept.ResponsibleUserID,
		dept.Done,
	).Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `
        UPDATE departments
        SET name=$1, description=$2, entity_type=$3, responsible_user_id=$4, done=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		dept.Name,
		dept.Description,
		dept.EntityType,
		dept.ResponsibleUserID,
		dept.Done,
		dept.ID,
	).Scan(&dept.UpdatedAt)
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id=$1`
	var dept domain.Department
	if err := scanDepartment(r.db.QueryRow(ctx, query, id), &dept); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM departments WHERE id=$1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := scanDepartment(rows, &dept); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

// Delete removes the department; subordinations, budgets and expenses go with
// it through ON DELETE CASCADE.
func (r *departmentRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM departments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanDepartment(row pgx.Row, dept *domain.Department) error {
	return row.Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.EntityType,
		&dept.ResponsibleUserID,
		&dept.Done,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	)
}
