package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/spec-kit/finance-service/internal/hierarchy"
)

func TestPrintViolations(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		var buf bytes.Buffer
		if err := printViolations(&buf, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.TrimSpace(buf.String()) != "hierarchy ok" {
			t.Fatalf("unexpected output %q", buf.String())
		}
	})

	t.Run("violations", func(t *testing.T) {
		var buf bytes.Buffer
		err := printViolations(&buf, []hierarchy.Violation{
			{Kind: hierarchy.ViolationCycle, EdgeIDs: []int64{4, 5}, Departments: []int64{1, 2}},
			{Kind: hierarchy.ViolationSelfReference, EdgeIDs: []int64{9}, Departments: []int64{3}},
		})
		if err == nil || !strings.Contains(err.Error(), "2 hierarchy violation") {
			t.Fatalf("expected violation error, got %v", err)
		}
		if !strings.Contains(buf.String(), "cycle\tedges=4,5\tdepartments=1,2") {
			t.Fatalf("unexpected output %q", buf.String())
		}
	})
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		args    []string
		command string
		wantErr bool
	}{
		{args: []string{"migrate", "up"}, command: "migrate up"},
		{args: []string{"migrate", "down", "--steps", "2"}, command: "migrate down"},
		{args: []string{"audit-hierarchy"}, command: "audit-hierarchy"},
		{args: []string{"promote", "--username", "ana"}, command: "promote"},
		{args: []string{"promote", "--username", "ana", "--role", "OWNER"}, wantErr: true},
		{args: []string{"promote"}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			var cli CLI
			parser, err := kong.New(&cli, kong.Name("dbtool"), kong.Exit(func(int) {}))
			if err != nil {
				t.Fatalf("new parser: %v", err)
			}
			kctx, err := parser.Parse(tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if kctx.Command() != tc.command {
				t.Fatalf("expected command %q, got %q", tc.command, kctx.Command())
			}
		})
	}
	var cli CLI
	parser, _ := kong.New(&cli, kong.Name("dbtool"))
	if _, err := parser.Parse([]string{"migrate", "down"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cli.Migrate.Down.Steps != 1 {
		t.Fatalf("expected default steps 1, got %d", cli.Migrate.Down.Steps)
	}
}
