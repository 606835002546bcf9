package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReady(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		deps       map[string]Pinger
		wantStatus int
	}{
		{name: "no dependencies", deps: nil, wantStatus: http.StatusOK},
		{name: "all up", deps: map[string]Pinger{"postgres": ok, "redis": ok}, wantStatus: http.StatusOK},
		{name: "disabled redis skipped", deps: map[string]Pinger{"postgres": ok, "redis": nil}, wantStatus: http.StatusOK},
		{name: "postgres down", deps: map[string]Pinger{"postgres": down, "redis": ok}, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health/ready", NewHealthHandler("finance-service", "test", tc.deps).Ready)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
			if tc.wantStatus != http.StatusServiceUnavailable {
				return
			}
			var body struct {
				Error struct {
					Code    string            `json:"code"`
					Details map[string]string `json:"details"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != "DEPENDENCY_UNAVAILABLE" || body.Error.Details["postgres"] != "connection refused" || body.Error.Details["redis"] != "ok" {
				t.Fatalf("unexpected body: %+v", body)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	app := fiber.New()
	app.Get("/:id", func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id})
	})

	for path, want := range map[string]int{"/7": http.StatusOK, "/0": http.StatusBadRequest, "/-3": http.StatusBadRequest, "/x": http.StatusBadRequest} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("%s: expected %d, got %d", path, want, resp.StatusCode)
		}
	}
}
