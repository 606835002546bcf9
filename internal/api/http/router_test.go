package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/finance-service/internal/api/http/handlers"
	"github.com/spec-kit/finance-service/internal/auth"
	"github.com/spec-kit/finance-service/internal/config"
	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/events"
	"github.com/spec-kit/finance-service/internal/observability"
	"github.com/spec-kit/finance-service/internal/repository/memory"
	"github.com/spec-kit/finance-service/internal/service"
)

type testServer struct {
	t       *testing.T
	app     *fiber.App
	authSvc *service.AuthService
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Page     int `json:"page"`
		PageSize int `json:"page_size"`
		Total    int `json:"total"`
	} `json:"pagination"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 10}}
	authSvc := service.NewAuthService(cfg, store.Users, logger)

	deps := service.HierarchyDependencies{
		DepartmentRepo:    store.Departments,
		SubordinationRepo: store.Subordinations,
		Dispatcher:        events.NewInMemoryDispatcher(),
		Metrics:           metrics,
		Logger:            logger,
	}
	subordinations := service.NewSubordinationService(deps)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:           handlers.NewHealthHandler("finance-service", "test", nil),
		Users:            handlers.NewUsersHandler(authSvc),
		Departments:      handlers.NewDepartmentsHandler(service.NewDepartmentService(deps), subordinations),
		Subordinations:   handlers.NewSubordinationsHandler(subordinations),
		Catalog:          handlers.NewCatalogHandler(service.NewCatalogService(store.Elements)),
		Budgets:          handlers.NewBudgetsHandler(service.NewBudgetService(store.Budgets, store.Departments)),
		Expenses:         handlers.NewExpensesHandler(service.NewExpenseService(store.Expenses, store.Departments, store.Elements)),
		Responsibilities: handlers.NewResponsibilitiesHandler(service.NewResponsibilityService(store.Responsibilities, store.Users, store.Departments)),
		AuthMiddleware:   auth.NewAuthMiddleware(authSvc.TokenManager(), store.Users),
		Metrics:          metrics,
	})
	return &testServer{t: t, app: app, authSvc: authSvc}
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, env
}

func (s *testServer) register(username string) string {
	s.t.Helper()
	status, env := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct-horse",
	})
	if status != http.StatusCreated {
		s.t.Fatalf("register %s: status %d %+v", username, status, env.Error)
	}
	var out struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil || out.Auth.Token == "" {
		s.t.Fatalf("register %s: no token in %s", username, env.Data)
	}
	return out.Auth.Token
}

func (s *testServer) admin(username string) string {
	s.t.Helper()
	s.register(username)
	user, err := s.authSvc.SetRole(context.Background(), username, domain.UserRoleAdmin)
	if err != nil {
		s.t.Fatalf("promote: %v", err)
	}
	token, _, err := s.authSvc.TokenManager().GenerateToken(user)
	if err != nil {
		s.t.Fatalf("token: %v", err)
	}
	return token
}

func (s *testServer) createDepartment(token, name string) int64 {
	s.t.Helper()
	status, env := s.do(http.MethodPost, "/api/departments", token, map[string]any{"name": name})
	if status != http.StatusCreated {
		s.t.Fatalf("create department %s: status %d %+v", name, status, env.Error)
	}
	var dept struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &dept)
	return dept.ID
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	if status, _ := srv.do(http.MethodGet, "/health/live", "", nil); status != http.StatusOK {
		t.Fatalf("live: status %d", status)
	}
	if status, _ := srv.do(http.MethodGet, "/health/ready", "", nil); status != http.StatusOK {
		t.Fatalf("ready: status %d", status)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "finance_http_requests_total") {
		t.Fatalf("metrics: status %d body %.200s", resp.StatusCode, body)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "garbage", token: "not-a-jwt"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, env := srv.do(http.MethodGet, "/api/departments", tc.token, nil)
			if status != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
				t.Fatalf("expected 401 UNAUTHORIZED, got %d %+v", status, env.Error)
			}
		})
	}
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	srv := newTestServer(t)
	srv.register("ana")

	for _, login := range []string{"ana", "ANA@example.com"} {
		status, env := srv.do(http.MethodPost, "/auth/login", "", map[string]string{"login": login, "password": "correct-horse"})
		if status != http.StatusOK {
			t.Fatalf("login %s: status %d %+v", login, status, env.Error)
		}
	}
	status, env := srv.do(http.MethodPost, "/auth/login", "", map[string]string{"login": "ana", "password": "wrong-password"})
	if status != http.StatusUnauthorized || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("bad password: got %d %+v", status, env.Error)
	}
}

func TestHierarchyOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register("ana")

	board := srv.createDepartment(token, "Board")
	finance := srv.createDepartment(token, "Finance")
	payroll := srv.createDepartment(token, "Payroll")

	edge := func(sup, sub int64) map[string]any {
		return map[string]any{"superior_id": sup, "subordinate_id": sub}
	}

	status, env := srv.do(http.MethodPost, "/api/subordinations", token, edge(board, finance))
	if status != http.StatusCreated {
		t.Fatalf("board->finance: %d %+v", status, env.Error)
	}
	var created struct {
		ID       int64 `json:"id"`
		Superior struct {
			Name string `json:"name"`
		} `json:"superior"`
	}
	_ = json.Unmarshal(env.Data, &created)
	if created.Superior.Name != "Board" {
		t.Fatalf("expected superior name Board, got %s", env.Data)
	}
	if status, env := srv.do(http.MethodPost, "/api/subordinations", token, edge(finance, payroll)); status != http.StatusCreated {
		t.Fatalf("finance->payroll: %d %+v", status, env.Error)
	}

	rejections := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"self", edge(board, board), http.StatusUnprocessableEntity, "INVALID_SELF_REFERENCE"},
		{"duplicate", edge(board, finance), http.StatusConflict, "DUPLICATE_EDGE"},
		{"second superior", edge(board, payroll), http.StatusConflict, "MULTIPLE_SUPERIORS"},
		{"cycle", edge(payroll, board), http.StatusConflict, "CYCLE_DETECTED"},
		{"unknown department", edge(board, 999), http.StatusNotFound, "NOT_FOUND"},
		{"missing ids", map[string]any{"superior_id": board}, http.StatusBadRequest, "VALIDATION_FAILED"},
	}
	for _, tc := range rejections {
		t.Run(tc.name, func(t *testing.T) {
			status, env := srv.do(http.MethodPost, "/api/subordinations", token, tc.body)
			if status != tc.status || env.Error == nil || env.Error.Code != tc.code {
				t.Fatalf("expected %d %s, got %d %+v", tc.status, tc.code, status, env.Error)
			}
			if tc.code == "CYCLE_DETECTED" {
				if _, ok := env.Error.Details["path"]; !ok {
					t.Fatalf("cycle error without path: %+v", env.Error.Details)
				}
			}
		})
	}

	status, env = srv.do(http.MethodGet, fmt.Sprintf("/api/departments/%d/subordinates", board), token, nil)
	var subs []struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &subs)
	if status != http.StatusOK || len(subs) != 2 {
		t.Fatalf("subordinates of board: %d %s", status, env.Data)
	}

	status, env = srv.do(http.MethodGet, fmt.Sprintf("/api/departments/%d/chain", payroll), token, nil)
	var chain []struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(env.Data, &chain)
	if status != http.StatusOK || len(chain) != 2 || chain[0].Name != "Finance" || chain[1].Name != "Board" {
		t.Fatalf("chain of payroll: %d %s", status, env.Data)
	}

	status, env = srv.do(http.MethodDelete, fmt.Sprintf("/api/subordinations/%d", created.ID), token, nil)
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"deleted":true`) {
		t.Fatalf("delete edge: %d %s", status, env.Data)
	}
	if status, env := srv.do(http.MethodPost, "/api/subordinations", token, edge(payroll, board)); status != http.StatusCreated {
		t.Fatalf("payroll->board after delete: %d %+v", status, env.Error)
	}
}

func TestAuditIsAdminOnly(t *testing.T) {
	srv := newTestServer(t)
	member := srv.register("ana")
	admin := srv.admin("root")

	if status, _ := srv.do(http.MethodGet, "/api/subordinations/audit", member, nil); status != http.StatusForbidden {
		t.Fatalf("member audit: expected 403, got %d", status)
	}
	status, env := srv.do(http.MethodGet, "/api/subordinations/audit", admin, nil)
	if status != http.StatusOK || string(env.Data) != "[]" {
		t.Fatalf("admin audit: %d %s", status, env.Data)
	}
}

func TestInvalidIDAndUnknownRoute(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register("ana")

	status, env := srv.do(http.MethodGet, "/api/departments/abc", token, nil)
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Message != "invalid id" {
		t.Fatalf("invalid id: %d %+v", status, env.Error)
	}
	status, env = srv.do(http.MethodGet, "/api/departments/42", token, nil)
	if status != http.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("missing department: %d %+v", status, env.Error)
	}
	status, env = srv.do(http.MethodGet, "/nowhere", "", nil)
	if status != http.StatusNotFound || env.Error == nil {
		t.Fatalf("unknown route: %d %+v", status, env.Error)
	}
}

func TestBudgetWritesRequireAdmin(t *testing.T) {
	srv := newTestServer(t)
	member := srv.register("ana")
	admin := srv.admin("root")
	dept := srv.createDepartment(member, "Finance")

	body := map[string]any{"department_id": dept, "year": 2025, "amount_cents": 150000}
	if status, _ := srv.do(http.MethodPost, "/api/budgets", member, body); status != http.StatusForbidden {
		t.Fatalf("member create: expected 403, got %d", status)
	}
	status, env := srv.do(http.MethodPost, "/api/budgets", admin, body)
	if status != http.StatusCreated {
		t.Fatalf("admin create: %d %+v", status, env.Error)
	}
	status, env = srv.do(http.MethodPost, "/api/budgets", admin, body)
	if status != http.StatusConflict {
		t.Fatalf("duplicate year: expected 409, got %d %+v", status, env.Error)
	}

	status, env = srv.do(http.MethodGet, fmt.Sprintf("/api/budgets?department_id=%d", dept), member, nil)
	var budgets []struct {
		Year int `json:"year"`
	}
	_ = json.Unmarshal(env.Data, &budgets)
	if status != http.StatusOK || len(budgets) != 1 || budgets[0].Year != 2025 {
		t.Fatalf("list budgets: %d %s", status, env.Data)
	}
	if status, _ := srv.do(http.MethodGet, "/api/budgets?department_id=x", member, nil); status != http.StatusBadRequest {
		t.Fatalf("bad filter: expected 400, got %d", status)
	}
}

func TestExpensesPagination(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register("ana")
	dept := srv.createDepartment(token, "Finance")

	status, env := srv.do(http.MethodPost, "/api/elements", token, map[string]any{"code": "20", "description": "Services"})
	if status != http.StatusCreated {
		t.Fatalf("element: %d %+v", status, env.Error)
	}
	var element struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &element)

	status, env = srv.do(http.MethodPost, "/api/expense-types", token, map[string]any{"element_id": element.ID, "name": "Travel"})
	if status != http.StatusCreated {
		t.Fatalf("expense type: %d %+v", status, env.Error)
	}
	var expenseType struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &expenseType)

	for i := 0; i < 3; i++ {
		status, env := srv.do(http.MethodPost, "/api/expenses", token, map[string]any{
			"department_id":   dept,
			"element_id":      element.ID,
			"expense_type_id": expenseType.ID,
			"amount_cents":    1000 + i,
		})
		if status != http.StatusCreated {
			t.Fatalf("expense %d: %d %+v", i, status, env.Error)
		}
	}

	status, env = srv.do(http.MethodGet, fmt.Sprintf("/api/expenses?department_id=%d&page=2&page_size=2", dept), token, nil)
	var items []struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &items)
	if status != http.StatusOK || len(items) != 1 {
		t.Fatalf("page 2: %d %s", status, env.Data)
	}
	if env.Pagination == nil || env.Pagination.Total != 3 || env.Pagination.Page != 2 || env.Pagination.PageSize != 2 {
		t.Fatalf("unexpected pagination: %+v", env.Pagination)
	}

	status, env = srv.do(http.MethodPost, "/api/expenses", token, map[string]any{
		"department_id":   dept,
		"element_id":      element.ID,
		"expense_type_id": expenseType.ID,
		"amount_cents":    0,
	})
	if status != http.StatusBadRequest || env.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("zero amount: %d %+v", status, env.Error)
	}
}

func TestWhoAmIAndUserList(t *testing.T) {
	srv := newTestServer(t)
	member := srv.register("ana")
	admin := srv.admin("root")

	if status, _ := srv.do(http.MethodGet, "/auth/me", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous whoami: expected 401, got %d", status)
	}
	status, env := srv.do(http.MethodGet, "/auth/me", member, nil)
	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	_ = json.Unmarshal(env.Data, &me)
	if status != http.StatusOK || me.Username != "ana" || me.Role != "MEMBER" {
		t.Fatalf("whoami: %d %s", status, env.Data)
	}

	if status, _ := srv.do(http.MethodGet, "/api/users", member, nil); status != http.StatusForbidden {
		t.Fatalf("member list users: expected 403, got %d", status)
	}
	status, env = srv.do(http.MethodGet, "/api/users", admin, nil)
	var users []struct {
		Username string `json:"username"`
	}
	_ = json.Unmarshal(env.Data, &users)
	if status != http.StatusOK || len(users) != 2 {
		t.Fatalf("admin list users: %d %s", status, env.Data)
	}
}

func TestResponsibilitiesOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register("ana")
	dept := srv.createDepartment(token, "Finance")

	_, env := srv.do(http.MethodGet, "/auth/me", token, nil)
	var me struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &me)

	body := map[string]any{"user_id": me.ID, "department_id": dept, "observation": "head"}
	status, env := srv.do(http.MethodPost, "/api/responsibilities", token, body)
	if status != http.StatusCreated {
		t.Fatalf("create: %d %+v", status, env.Error)
	}
	var created struct {
		ID   int64 `json:"id"`
		User struct {
			Username string `json:"username"`
		} `json:"user"`
		Department struct {
			Name string `json:"name"`
		} `json:"department"`
	}
	_ = json.Unmarshal(env.Data, &created)
	if created.User.Username != "ana" || created.Department.Name != "Finance" {
		t.Fatalf("unexpected body %s", env.Data)
	}

	status, env = srv.do(http.MethodPost, "/api/responsibilities", token, body)
	if status != http.StatusConflict || env.Error == nil || env.Error.Code != "CONFLICT" {
		t.Fatalf("duplicate: expected 409 CONFLICT, got %d %+v", status, env.Error)
	}

	status, env = srv.do(http.MethodPut, fmt.Sprintf("/api/responsibilities/%d", created.ID), token, map[string]any{"observation": "acting head"})
	var updated struct {
		Observation string `json:"observation"`
	}
	_ = json.Unmarshal(env.Data, &updated)
	if status != http.StatusOK || updated.Observation != "acting head" {
		t.Fatalf("update: %d %s", status, env.Data)
	}

	status, env = srv.do(http.MethodGet, fmt.Sprintf("/api/responsibilities?department_id=%d", dept), token, nil)
	var list []json.RawMessage
	_ = json.Unmarshal(env.Data, &list)
	if status != http.StatusOK || len(list) != 1 {
		t.Fatalf("list: %d %s", status, env.Data)
	}

	if status, _ := srv.do(http.MethodPut, "/api/responsibilities/999", token, map[string]any{"observation": "x"}); status != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", status)
	}
}

func TestDepartmentExpenseTotal(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register("ana")
	dept := srv.createDepartment(token, "Finance")

	_, env := srv.do(http.MethodPost, "/api/elements", token, map[string]any{"code": "20"})
	var element struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &element)
	_, env = srv.do(http.MethodPost, "/api/expense-types", token, map[string]any{"element_id": element.ID, "name": "Travel"})
	var expenseType struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &expenseType)

	for _, amount := range []int{1500, 500} {
		status, env := srv.do(http.MethodPost, "/api/expenses", token, map[string]any{
			"department_id":   dept,
			"element_id":      element.ID,
			"expense_type_id": expenseType.ID,
			"amount_cents":    amount,
		})
		if status != http.StatusCreated {
			t.Fatalf("expense: %d %+v", status, env.Error)
		}
	}

	status, env := srv.do(http.MethodGet, fmt.Sprintf("/api/departments/%d/expenses/total", dept), token, nil)
	var total struct {
		DepartmentID int64 `json:"department_id"`
		TotalCents   int64 `json:"total_cents"`
	}
	_ = json.Unmarshal(env.Data, &total)
	if status != http.StatusOK || total.DepartmentID != dept || total.TotalCents != 2000 {
		t.Fatalf("total: %d %s", status, env.Data)
	}

	if status, _ := srv.do(http.MethodGet, "/api/departments/999/expenses/total", token, nil); status != http.StatusNotFound {
		t.Fatalf("unknown department: expected 404, got %d", status)
	}
}
