package service

import (
	"context"
	"testing"

	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/repository/memory"
	apperrors "github.com/spec-kit/finance-service/pkg/util/errorutil"
)

var (
	admin  = &domain.User{ID: 1, Username: "root", Role: domain.UserRoleAdmin}
	member = &domain.User{ID: 2, Username: "ana", Role: domain.UserRoleMember}
)

func seedDepartment(t *testing.T, store *memory.Store, name string) int64 {
	t.Helper()
	dept := &domain.Department{Name: name}
	if err := store.Departments.Create(context.Background(), dept); err != nil {
		t.Fatalf("department: %v", err)
	}
	return dept.ID
}

func TestBudgetLifecycle(t *testing.T) {
	store := memory.New()
	svc := NewBudgetService(store.Budgets, store.Departments)
	ctx := context.Background()
	dept := seedDepartment(t, store, "Finance")

	_, err := svc.Create(ctx, member, BudgetInput{DepartmentID: dept, Year: 2024, AmountCents: 100})
	wantCode(t, err, apperrors.CodeForbidden)

	budget, err := svc.Create(ctx, admin, BudgetInput{DepartmentID: dept, Year: 2024, AmountCents: 150000, Description: " yearly "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if budget.UserID != admin.ID || budget.Description != "yearly" {
		t.Fatalf("unexpected budget %+v", budget)
	}

	_, err = svc.Create(ctx, admin, BudgetInput{DepartmentID: dept, Year: 2024, AmountCents: 1})
	wantCode(t, err, apperrors.CodeConflict)

	_, err = svc.Create(ctx, admin, BudgetInput{DepartmentID: 404, Year: 2024, AmountCents: 1})
	wantCode(t, err, apperrors.CodeNotFound)

	_, err = svc.Create(ctx, admin, BudgetInput{DepartmentID: dept, Year: 12, AmountCents: 1})
	wantCode(t, err, apperrors.CodeValidation)

	_, err = svc.Create(ctx, admin, BudgetInput{DepartmentID: dept, Year: 2025, AmountCents: -1})
	wantCode(t, err, apperrors.CodeValidation)

	amount := int64(200000)
	updated, err := svc.Update(ctx, admin, budget.ID, BudgetPatch{AmountCents: &amount})
	if err != nil || updated.AmountCents != amount || updated.Description != "yearly" {
		t.Fatalf("update: %v %+v", err, updated)
	}
	_, err = svc.Update(ctx, member, budget.ID, BudgetPatch{AmountCents: &amount})
	wantCode(t, err, apperrors.CodeForbidden)

	if _, err := svc.Create(ctx, admin, BudgetInput{DepartmentID: dept, Year: 2025, AmountCents: 1}); err != nil {
		t.Fatalf("next year: %v", err)
	}
	list, err := svc.List(ctx, &dept)
	if err != nil || len(list) != 2 || list[0].Year != 2025 {
		t.Fatalf("list: %v %+v", err, list)
	}
}

func TestCatalog(t *testing.T) {
	store := memory.New()
	svc := NewCatalogService(store.Elements)
	ctx := context.Background()

	el, err := svc.CreateElement(ctx, ElementInput{Code: "3390", Description: "services"})
	if err != nil {
		t.Fatalf("element: %v", err)
	}
	_, err = svc.CreateElement(ctx, ElementInput{Code: "3390"})
	wantCode(t, err, apperrors.CodeConflict)
	_, err = svc.CreateElement(ctx, ElementInput{Code: " "})
	wantCode(t, err, apperrors.CodeValidation)

	if _, err := svc.CreateExpenseType(ctx, ExpenseTypeInput{ElementID: &el.ID, Name: "Travel"}); err != nil {
		t.Fatalf("type: %v", err)
	}
	if _, err := svc.CreateExpenseType(ctx, ExpenseTypeInput{Name: "Misc"}); err != nil {
		t.Fatalf("unscoped type: %v", err)
	}
	missing := int64(404)
	_, err = svc.CreateExpenseType(ctx, ExpenseTypeInput{ElementID: &missing, Name: "Ghost"})
	wantCode(t, err, apperrors.CodeNotFound)

	scoped, _ := svc.ListExpenseTypes(ctx, &el.ID)
	if len(scoped) != 1 || scoped[0].Name != "Travel" {
		t.Fatalf("scoped list: %+v", scoped)
	}
	all, _ := svc.ListExpenseTypes(ctx, nil)
	if len(all) != 2 {
		t.Fatalf("full list: %+v", all)
	}

	_, err = svc.UpdateElement(ctx, 404, ElementInput{Code: "1"})
	wantCode(t, err, apperrors.CodeNotFound)
}

func TestExpenses(t *testing.T) {
	store := memory.New()
	catalog := NewCatalogService(store.Elements)
	svc := NewExpenseService(store.Expenses, store.Departments, store.Elements)
	ctx := context.Background()

	dept := seedDepartment(t, store, "Finance")
	other := seedDepartment(t, store, "Payroll")
	el, _ := catalog.CreateElement(ctx, ElementInput{Code: "3390"})
	el2, _ := catalog.CreateElement(ctx, ElementInput{Code: "4490"})
	travel, _ := catalog.CreateExpenseType(ctx, ExpenseTypeInput{ElementID: &el.ID, Name: "Travel"})

	valid := ExpenseInput{DepartmentID: dept, ElementID: el.ID, ExpenseTypeID: travel.ID, AmountCents: 1250}

	tests := []struct {
		name   string
		mutate func(*ExpenseInput)
		code   string
	}{
		{"zero amount", func(in *ExpenseInput) { in.AmountCents = 0 }, apperrors.CodeValidation},
		{"unknown element", func(in *ExpenseInput) { in.ElementID = 404 }, apperrors.CodeNotFound},
		{"unknown type", func(in *ExpenseInput) { in.ExpenseTypeID = 404 }, apperrors.CodeNotFound},
		{"type of another element", func(in *ExpenseInput) { in.ElementID = el2.ID }, apperrors.CodeValidation},
		{"unknown department", func(in *ExpenseInput) { in.DepartmentID = 404 }, apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.Create(ctx, member, in)
			wantCode(t, err, tt.code)
		})
	}

	for i := 0; i < 12; i++ {
		if _, err := svc.Create(ctx, member, valid); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	otherInput := valid
	otherInput.DepartmentID = other
	if _, err := svc.Create(ctx, member, otherInput); err != nil {
		t.Fatalf("create other: %v", err)
	}

	page, err := svc.List(ctx, ExpenseListFilter{DepartmentID: &dept, Page: 2, PageSize: 5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 12 || len(page.Items) != 5 || page.Page != 2 {
		t.Fatalf("unexpected page: total=%d items=%d page=%d", page.Total, len(page.Items), page.Page)
	}

	last, _ := svc.List(ctx, ExpenseListFilter{DepartmentID: &dept, Page: 3, PageSize: 5})
	if len(last.Items) != 2 {
		t.Fatalf("last page has %d items", len(last.Items))
	}

	defaults, _ := svc.List(ctx, ExpenseListFilter{PageSize: 1000})
	if defaults.Page != 1 || defaults.PageSize != 100 || defaults.Total != 13 {
		t.Fatalf("unexpected defaults: %+v", defaults)
	}

	first := page.Items[0]
	in := valid
	in.AmountCents = 999
	in.Justification = "corrected"
	updated, err := svc.Update(ctx, first.ID, in)
	if err != nil || updated.AmountCents != 999 || updated.DepartmentID != dept {
		t.Fatalf("update: %v %+v", err, updated)
	}
	_, err = svc.Update(ctx, 404, in)
	wantCode(t, err, apperrors.CodeNotFound)
}

func TestResponsibilities(t *testing.T) {
	store := memory.New()
	svc := NewResponsibilityService(store.Responsibilities, store.Users, store.Departments)
	ctx := context.Background()

	dept := seedDepartment(t, store, "Finance")
	user := &domain.User{Username: "ana", Email: "ana@example.com", Role: domain.UserRoleMember}
	if err := store.Users.Create(ctx, user); err != nil {
		t.Fatalf("user: %v", err)
	}

	tests := []struct {
		name  string
		actor *domain.User
		input ResponsibilityInput
		code  string
	}{
		{"anonymous", nil, ResponsibilityInput{UserID: user.ID, DepartmentID: dept}, apperrors.CodeUnauthorized},
		{"unknown user", member, ResponsibilityInput{UserID: 404, DepartmentID: dept}, apperrors.CodeNotFound},
		{"unknown department", member, ResponsibilityInput{UserID: user.ID, DepartmentID: 404}, apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tt.actor, tt.input)
			wantCode(t, err, tt.code)
		})
	}

	resp, err := svc.Add(ctx, member, ResponsibilityInput{UserID: user.ID, DepartmentID: dept, Observation: " head "})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if resp.Username != "ana" || resp.DepartmentName != "Finance" || resp.Observation != "head" {
		t.Fatalf("unexpected responsibility %+v", resp)
	}

	_, err = svc.Add(ctx, member, ResponsibilityInput{UserID: user.ID, DepartmentID: dept})
	wantCode(t, err, apperrors.CodeConflict)

	unchanged, err := svc.Update(ctx, resp.ID, nil)
	if err != nil || unchanged.Observation != "head" {
		t.Fatalf("nil patch: %v %+v", err, unchanged)
	}
	note := "acting head"
	updated, err := svc.Update(ctx, resp.ID, &note)
	if err != nil || updated.Observation != note {
		t.Fatalf("update: %v %+v", err, updated)
	}
	_, err = svc.Update(ctx, 404, &note)
	wantCode(t, err, apperrors.CodeNotFound)

	list, err := svc.List(ctx, &dept)
	if err != nil || len(list) != 1 || list[0].Observation != note {
		t.Fatalf("list: %v %+v", err, list)
	}
	other := int64(404)
	empty, err := svc.List(ctx, &other)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty list: %v %+v", err, empty)
	}
}

func TestExpenseTotalForDepartment(t *testing.T) {
	store := memory.New()
	catalog := NewCatalogService(store.Elements)
	svc := NewExpenseService(store.Expenses, store.Departments, store.Elements)
	ctx := context.Background()

	dept := seedDepartment(t, store, "Finance")
	idle := seedDepartment(t, store, "Archive")
	el, _ := catalog.CreateElement(ctx, ElementInput{Code: "3390"})
	travel, _ := catalog.CreateExpenseType(ctx, ExpenseTypeInput{ElementID: &el.ID, Name: "Travel"})

	for _, amount := range []int64{1250, 750, 1} {
		if _, err := svc.Create(ctx, member, ExpenseInput{DepartmentID: dept, ElementID: el.ID, ExpenseTypeID: travel.ID, AmountCents: amount}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tests := []struct {
		name string
		id   int64
		want int64
		code string
	}{
		{"with expenses", dept, 2001, ""},
		{"without expenses", idle, 0, ""},
		{"unknown department", 404, 0, apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := svc.TotalForDepartment(ctx, tt.id)
			if tt.code != "" {
				wantCode(t, err, tt.code)
				return
			}
			if err != nil || total.TotalCents != tt.want || total.DepartmentID != tt.id {
				t.Fatalf("total: %v %+v", err, total)
			}
		})
	}
}
