package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rayarayu/checkin/internal/handler/health"
)

func TestHandler(t *testing.T) {
	ok := health.CheckerFunc(func(context.Context) error { return nil })
	down := func(msg string) health.Checker {
		return health.CheckerFunc(func(context.Context) error { return errors.New(msg) })
	}

	tests := []struct {
		name       string
		checks     map[string]health.Checker
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{},
		},
		{
			name:       "directory reachable",
			checks:     map[string]health.Checker{"directory": ok},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"directory": "ok"},
		},
		{
			name:       "directory down",
			checks:     map[string]health.Checker{"directory": down("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"directory": "error"},
		},
		{
			name: "one of two down",
			checks: map[string]health.Checker{
				"sqlite":    ok,
				"directory": down("timeout"),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"sqlite": "ok", "directory": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), tt.checks)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]struct{ Status, Error string }
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if len(body) != len(tt.wantBody) {
				t.Errorf("body = %+v, want %d entries", body, len(tt.wantBody))
			}
			for name, want := range tt.wantBody {
				if got := body[name].Status; got != want {
					t.Errorf("%s status = %q, want %q", name, got, want)
				}
				if want == "error" && body[name].Error == "" {
					t.Errorf("%s missing error detail", name)
				}
			}
		})
	}
}
