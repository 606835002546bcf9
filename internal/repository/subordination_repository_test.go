package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/finance-service/internal/domain"
)

type stubRow struct {
	vals []any
	err  error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan: got %d destinations, have %d values", len(dest), len(r.vals))
	}
	for i := range dest {
		switch d := dest[i].(type) {
		case *int64:
			*d = r.vals[i].(int64)
		case *string:
			*d = r.vals[i].(string)
		case *time.Time:
			*d = r.vals[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type stubQuerier struct {
	row      pgx.Row
	tag      pgconn.CommandTag
	execErr  error
	lastSQL  string
	lastArgs []any
}

func (q *stubQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.lastSQL, q.lastArgs = sql, args
	return q.tag, q.execErr
}

func (q *stubQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("query not mocked")
}

func (q *stubQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL, q.lastArgs = sql, args
	return q.row
}

func TestSubordinationRepositoryCreate(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	db := &stubQuerier{row: stubRow{vals: []any{int64(11), created}}}
	repo := NewSubordinationRepository(db)

	sub := &domain.Subordination{SuperiorID: 1, SubordinateID: 2, Observation: "reorg"}
	if err := repo.Create(context.Background(), sub); err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.ID != 11 || !sub.CreatedAt.Equal(created) {
		t.Fatalf("unexpected scan result: %+v", sub)
	}
	if !strings.Contains(db.lastSQL, "INSERT INTO subordinations") {
		t.Fatalf("unexpected sql: %s", db.lastSQL)
	}
	if len(db.lastArgs) != 3 || db.lastArgs[0] != int64(1) || db.lastArgs[1] != int64(2) {
		t.Fatalf("unexpected args: %v", db.lastArgs)
	}
}

func TestSubordinationRepositoryGetByID(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	db := &stubQuerier{row: stubRow{vals: []any{int64(3), int64(1), int64(2), "Finance", "Payroll", "", created}}}
	repo := NewSubordinationRepository(db)

	sub, err := repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sub.SuperiorName != "Finance" || sub.SubordinateName != "Payroll" {
		t.Fatalf("names not scanned: %+v", sub)
	}
	if !strings.Contains(db.lastSQL, "JOIN departments sup") {
		t.Fatalf("expected join on departments, got %s", db.lastSQL)
	}
}

func TestSubordinationRepositoryGetByIDNotFound(t *testing.T) {
	repo := NewSubordinationRepository(&stubQuerier{row: stubRow{err: pgx.ErrNoRows}})

	if _, err := repo.GetByID(context.Background(), 99); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}
}

func TestSubordinationRepositoryDelete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		repo := NewSubordinationRepository(&stubQuerier{tag: pgconn.NewCommandTag("DELETE 1")})
		if err := repo.Delete(context.Background(), 1); err != nil {
			t.Fatalf("delete: %v", err)
		}
	})
	t.Run("missing", func(t *testing.T) {
		repo := NewSubordinationRepository(&stubQuerier{tag: pgconn.NewCommandTag("DELETE 0")})
		if err := repo.Delete(context.Background(), 1); !errors.Is(err, pgx.ErrNoRows) {
			t.Fatalf("expected pgx.ErrNoRows, got %v", err)
		}
	})
	t.Run("exec error", func(t *testing.T) {
		boom := errors.New("connection reset")
		repo := NewSubordinationRepository(&stubQuerier{execErr: boom})
		if err := repo.Delete(context.Background(), 1); !errors.Is(err, boom) {
			t.Fatalf("expected exec error, got %v", err)
		}
	})
}
