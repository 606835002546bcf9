package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/finance-service/internal/api/http/handlers"
	"github.com/spec-kit/finance-service/internal/auth"
	"github.com/spec-kit/finance-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Users            *handlers.UsersHandler
	Departments      *handlers.DepartmentsHandler
	Subordinations   *handlers.SubordinationsHandler
	Catalog          *handlers.CatalogHandler
	Budgets          *handlers.BudgetsHandler
	Expenses         *handlers.ExpensesHandler
	Responsibilities *handlers.ResponsibilitiesHandler
	AuthMiddleware   *auth.AuthMiddleware
	Metrics          *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	api.Get("/users", auth.RequireAdmin(), cfg.Users.List)

	departments := api.Group("/departments")
	departments.Post("/", cfg.Departments.Create)
	departments.Get("/", cfg.Departments.List)
	departments.Get("/:id", cfg.Departments.Get)
	departments.Patch("/:id", cfg.Departments.Update)
	departments.Delete("/:id", cfg.Departments.Delete)
	departments.Get("/:id/subordinates", cfg.Departments.Subordinates)
	departments.Get("/:id/chain", cfg.Departments.Chain)
	departments.Get("/:id/expenses/total", cfg.Expenses.DepartmentTotal)

	subordinations := api.Group("/subordinations")
	subordinations.Post("/", cfg.Subordinations.Create)
	subordinations.Get("/", cfg.Subordinations.List)
	subordinations.Get("/audit", auth.RequireAdmin(), cfg.Subordinations.Audit)
	subordinations.Get("/:id", cfg.Subordinations.Get)
	subordinations.Put("/:id", cfg.Subordinations.Update)
	subordinations.Delete("/:id", cfg.Subordinations.Delete)

	api.Get("/elements", cfg.Catalog.ListElements)
	api.Post("/elements", cfg.Catalog.CreateElement)
	api.Put("/elements/:id", cfg.Catalog.UpdateElement)
	api.Get("/expense-types", cfg.Catalog.ListExpenseTypes)
	api.Post("/expense-types", cfg.Catalog.CreateExpenseType)
	api.Put("/expense-types/:id", cfg.Catalog.UpdateExpenseType)

	budgets := api.Group("/budgets")
	budgets.Get("/", cfg.Budgets.List)
	budgets.Get("/:id", cfg.Budgets.Get)
	budgets.Post("/", auth.RequireAdmin(), cfg.Budgets.Create)
	budgets.Put("/:id", auth.RequireAdmin(), cfg.Budgets.Update)

	expenses := api.Group("/expenses")
	expenses.Post("/", cfg.Expenses.Create)
	expenses.Get("/", cfg.Expenses.List)
	expenses.Get("/:id", cfg.Expenses.Get)
	expenses.Put("/:id", cfg.Expenses.Update)

	responsibilities := api.Group("/responsibilities")
	responsibilities.Post("/", cfg.Responsibilities.Create)
	responsibilities.Get("/", cfg.Responsibilities.List)
	responsibilities.Get("/:id", cfg.Responsibilities.Get)
	responsibilities.Put("/:id", cfg.Responsibilities.Update)
}
