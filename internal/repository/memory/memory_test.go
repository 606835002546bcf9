package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/finance-service/internal/domain"
)

func TestDepartmentDeleteCascadesSubordinations(t *testing.T) {
	ctx := context.Background()
	store := New()

	var ids []int64
	for _, name := range []string{"Board", "Finance", "Payroll"} {
		dept := &domain.Department{Name: name}
		if err := store.Departments.Create(ctx, dept); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids = append(ids, dept.ID)
	}
	for i := 0; i+1 < len(ids); i++ {
		sub := &domain.Subordination{SuperiorID: ids[i], SubordinateID: ids[i+1]}
		if err := store.Subordinations.Create(ctx, sub); err != nil {
			t.Fatalf("create edge: %v", err)
		}
	}

	if err := store.Departments.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	edges, err := store.Subordinations.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("expected edges touching deleted department to be gone, got %+v", edges)
	}
}

func TestSubordinationListFillsNames(t *testing.T) {
	ctx := context.Background()
	store := New()

	board := &domain.Department{Name: "Board"}
	finance := &domain.Department{Name: "Finance"}
	_ = store.Departments.Create(ctx, board)
	_ = store.Departments.Create(ctx, finance)

	if err := store.Subordinations.Create(ctx, &domain.Subordination{SuperiorID: board.ID, SubordinateID: finance.ID}); err != nil {
		t.Fatalf("create edge: %v", err)
	}

	edges, _ := store.Subordinations.List(ctx)
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].SuperiorName != "Board" || edges[0].SubordinateName != "Finance" {
		t.Fatalf("names not filled: %+v", edges[0])
	}
}

func TestMissingRowsReturnErrNoRows(t *testing.T) {
	ctx := context.Background()
	store := New()

	if _, err := store.Departments.GetByID(ctx, 1); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("department: expected pgx.ErrNoRows, got %v", err)
	}
	if err := store.Subordinations.Delete(ctx, 1); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("subordination: expected pgx.ErrNoRows, got %v", err)
	}
	if err := store.Subordinations.Create(ctx, &domain.Subordination{SuperiorID: 1, SubordinateID: 2}); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("edge to unknown departments: expected pgx.ErrNoRows, got %v", err)
	}
}

func TestResponsibilitiesUniqueAndCascade(t *testing.T) {
	ctx := context.Background()
	store := New()

	user := &domain.User{Username: "ana", Email: "ana@example.com"}
	dept := &domain.Department{Name: "Finance"}
	_ = store.Users.Create(ctx, user)
	_ = store.Departments.Create(ctx, dept)

	resp := &domain.Responsibility{UserID: user.ID, DepartmentID: dept.ID}
	if err := store.Responsibilities.Create(ctx, resp); err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Username != "ana" || resp.DepartmentName != "Finance" {
		t.Fatalf("names not filled: %+v", resp)
	}

	var pgErr *pgconn.PgError
	err := store.Responsibilities.Create(ctx, &domain.Responsibility{UserID: user.ID, DepartmentID: dept.ID})
	if !errors.As(err, &pgErr) || pgErr.ConstraintName != "responsibilities_user_department_unique" {
		t.Fatalf("expected unique violation, got %v", err)
	}

	if err := store.Departments.Delete(ctx, dept.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Responsibilities.GetByID(ctx, resp.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected responsibility removed with its department, got %v", err)
	}
}

func TestExpenseTotalByDepartment(t *testing.T) {
	ctx := context.Background()
	store := New()

	finance := &domain.Department{Name: "Finance"}
	payroll := &domain.Department{Name: "Payroll"}
	_ = store.Departments.Create(ctx, finance)
	_ = store.Departments.Create(ctx, payroll)

	for _, e := range []domain.Expense{
		{DepartmentID: finance.ID, AmountCents: 1000},
		{DepartmentID: finance.ID, AmountCents: 250},
		{DepartmentID: payroll.ID, AmountCents: 99},
	} {
		e := e
		if err := store.Expenses.Create(ctx, &e); err != nil {
			t.Fatalf("expense: %v", err)
		}
	}

	tests := []struct {
		name string
		id   int64
		want int64
	}{
		{"finance", finance.ID, 1250},
		{"payroll", payroll.ID, 99},
		{"no expenses", 404, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Expenses.TotalByDepartment(ctx, tt.id)
			if err != nil || got != tt.want {
				t.Fatalf("total: got %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}
