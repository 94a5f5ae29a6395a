package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hacknet/portal/internal/handler/health"
)

type mockChecker struct{ err error }

func (m mockChecker) Check(_ context.Context) error { return m.err }

func TestHandler(t *testing.T) {
	down := health.CheckerFunc(func(context.Context) error { return errors.New("unreachable") })

	tests := []struct {
		name       string
		checks     map[string]health.Checker
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name: "all healthy",
			checks: map[string]health.Checker{
				"sessions": mockChecker{},
				"backend":  mockChecker{},
			},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"sessions": "ok", "backend": "ok"},
		},
		{
			name: "session store down",
			checks: map[string]health.Checker{
				"sessions": mockChecker{err: errors.New("database is locked")},
				"backend":  mockChecker{},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"sessions": "error", "backend": "ok"},
		},
		{
			name: "backend down",
			checks: map[string]health.Checker{
				"sessions": mockChecker{},
				"backend":  mockChecker{err: errors.New("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"sessions": "ok", "backend": "error"},
		},
		{
			name: "both down",
			checks: map[string]health.Checker{
				"sessions": mockChecker{err: errors.New("db")},
				"backend":  down,
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"sessions": "error", "backend": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(slog.Default(), tt.checks)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]struct{ Status string }
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}

			for name, want := range tt.wantBody {
				if got := body[name].Status; got != want {
					t.Errorf("%s status = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestRunSlowCheckTimesOut(t *testing.T) {
	slow := health.CheckerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	h := health.NewHandler(slog.Default(), map[string]health.Checker{
		"backend":  slow,
		"sessions": mockChecker{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, ok := h.Run(ctx)
	if ok {
		t.Fatal("Run reported healthy with a failing check")
	}
	if report["backend"].Status != "error" || report["sessions"].Status != "ok" {
		t.Errorf("report = %+v", report)
	}
}
