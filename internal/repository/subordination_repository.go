package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/finance-service/internal/domain"
)

// SubordinationRepository persists hierarchy edges. It performs no rule
// checks; those belong to the hierarchy engine.
type SubordinationRepository interface {
	Create(ctx context.Context, sub *domain.Subordination) error
	Update(ctx context.Context, sub *domain.Subordination) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Subordination, error)
	List(ctx context.Context) ([]domain.Subordination, error)
}

type subordinationRepository struct {
	db Querier
}

// NewSubordinationRepository builds the Postgres implementation.
func NewSubordinationRepository(db Querier) SubordinationRepository {
	return &subordinationRepository{db: db}
}

const subordinationSelect = `
        SELECT s.id, s.superior_id, s.subordinate_id, sup.name, sub.name, s.observation, s.created_at
        FROM subordinations s
        JOIN departments sup ON sup.id = s.superior_id
        JOIN departments sub ON sub.id = s.subordinate_id`

func (r *subordinationRepository) Create(ctx context.Context, sub *domain.Subordination) error {
	const query = `
        INSERT INTO subordinations (superior_id, subordinate_id, observation)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		sub.SuperiorID,
		sub.SubordinateID,
		sub.Observation,
	).Scan(&sub.ID, &sub.CreatedAt)
}

func (r *subordinationRepository) Update(ctx context.Context, sub *domain.Subordination) error {
	const query = `
        UPDATE subordinations SET superior_id=$1, subordinate_id=$2, observation=$3
        WHERE id=$4
        RETURNING created_at`
	return r.db.QueryRow(ctx, query,
		sub.SuperiorID,
		sub.SubordinateID,
		sub.Observation,
		sub.ID,
	).Scan(&sub.CreatedAt)
}

func (r *subordinationRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM subordinations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *subordinationRepository) GetByID(ctx context.Context, id int64) (*domain.Subordination, error) {
	var sub domain.Subordination
	if err := scanSubordination(r.db.QueryRow(ctx, subordinationSelect+` WHERE s.id=$1`, id), &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subordinationRepository) List(ctx context.Context) ([]domain.Subordination, error) {
	rows, err := r.db.Query(ctx, subordinationSelect+` ORDER BY s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Subordination
	for rows.Next() {
		var sub domain.Subordination
		if err := scanSubordination(rows, &sub); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func scanSubordination(row pgx.Row, sub *domain.Subordination) error {
	return row.Scan(
		&sub.ID,
		&sub.SuperiorID,
		&sub.SubordinateID,
		&sub.SuperiorName,
		&sub.SubordinateName,
		&sub.Observation,
		&sub.CreatedAt,
	)
}
