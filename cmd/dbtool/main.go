package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/spec-kit/finance-service/internal/config"
	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/hierarchy"
	"github.com/spec-kit/finance-service/internal/observability"
	"github.com/spec-kit/finance-service/internal/persistence"
	"github.com/spec-kit/finance-service/internal/repository"
	"github.com/spec-kit/finance-service/internal/service"
)

// cmdEnv is bound into every command's Run method.
type cmdEnv struct {
	ctx    context.Context
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

// CLI is the top-level command structure for dbtool.
type CLI struct {
	Migrate        MigrateCmd        `cmd:"" help:"Manage schema migrations."`
	AuditHierarchy AuditHierarchyCmd `cmd:"" name:"audit-hierarchy" help:"Report hierarchy rule violations in stored data."`
	Promote        PromoteCmd        `cmd:"" help:"Change a user's role."`
}

// MigrateCmd groups the migration subcommands.
type MigrateCmd struct {
	Up      MigrateUpCmd      `cmd:"" help:"Apply all pending migrations."`
	Down    MigrateDownCmd    `cmd:"" help:"Roll back migrations."`
	Version MigrateVersionCmd `cmd:"" help:"Print the current schema version."`
}

type MigrateUpCmd struct{}

func (cmd *MigrateUpCmd) Run(rt *cmdEnv) error {
	return persistence.RunMigrations(rt.cfg.Postgres.DSN, rt.logger)
}

type MigrateDownCmd struct {
	Steps int `help:"Number of migrations to roll back; 0 rolls back all." default:"1"`
}

func (cmd *MigrateDownCmd) Run(rt *cmdEnv) error {
	mg, err := persistence.NewMigrator(rt.cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer mg.Close()
	if err := mg.Down(cmd.Steps); err != nil {
		return err
	}
	rt.logger.Info("migrations rolled back", zap.Int("steps", cmd.Steps))
	return nil
}

type MigrateVersionCmd struct{}

func (cmd *MigrateVersionCmd) Run(rt *cmdEnv) error {
	mg, err := persistence.NewMigrator(rt.cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer mg.Close()
	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "version %d dirty=%t\n", version, dirty)
	return nil
}

// AuditHierarchyCmd exits non-zero when any violation is found.
type AuditHierarchyCmd struct{}

func (cmd *AuditHierarchyCmd) Run(rt *cmdEnv) error {
	pg, err := persistence.NewPostgres(rt.ctx, rt.cfg.Postgres, rt.logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	svc := service.NewSubordinationService(service.HierarchyDependencies{
		DepartmentRepo:    repository.NewDepartmentRepository(pg.Pool),
		SubordinationRepo: repository.NewSubordinationRepository(pg.Pool),
		Logger:            rt.logger,
	})
	violations, err := svc.Audit(rt.ctx)
	if err != nil {
		return err
	}
	return printViolations(rt.out, violations)
}

type PromoteCmd struct {
	Username string `required:"" help:"User to change."`
	Role     string `default:"ADMIN" enum:"ADMIN,MEMBER" help:"Role to assign."`
}

func (cmd *PromoteCmd) Run(rt *cmdEnv) error {
	pg, err := persistence.NewPostgres(rt.ctx, rt.cfg.Postgres, rt.logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	authService := service.NewAuthService(*rt.cfg, repository.NewUserRepository(pg.Pool), rt.logger)
	user, err := authService.SetRole(rt.ctx, cmd.Username, domain.UserRole(cmd.Role))
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "%s is now %s\n", user.Username, user.Role)
	return nil
}

func printViolations(w io.Writer, violations []hierarchy.Violation) error {
	if len(violations) == 0 {
		fmt.Fprintln(w, "hierarchy ok")
		return nil
	}
	for _, v := range violations {
		fmt.Fprintf(w, "%s\tedges=%s\tdepartments=%s\n", v.Kind, joinIDs(v.EdgeIDs), joinIDs(v.Departments))
	}
	return fmt.Errorf("%d hierarchy violation(s) found", len(violations))
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}

func main() {
	cli := CLI{}
	parser, err := kong.New(&cli,
		kong.Name("dbtool"),
		kong.Description("Maintenance commands for the finance service database."),
		kong.UsageOnError(),
	)
	if err != nil {
		log.Fatalf("dbtool: %v", err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	err = kctx.Run(&cmdEnv{ctx: context.Background(), cfg: cfg, logger: logger, out: os.Stdout})
	kctx.FatalIfErrorf(err)
}
