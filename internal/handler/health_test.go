package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubChecker implements HealthChecker with a fixed result.
type stubChecker struct {
	err error
}

func (s *stubChecker) Ping(ctx context.Context) error {
	return s.err
}

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Healthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	tests := []struct {
		name         string
		db           HealthChecker
		cache        HealthChecker
		wantCode     int
		wantStatus   string
		wantPostgres string
		wantRedis    string
	}{
		{
			name:         "all_healthy",
			db:           &stubChecker{},
			cache:        &stubChecker{},
			wantCode:     http.StatusOK,
			wantStatus:   "ok",
			wantPostgres: "ok",
			wantRedis:    "ok",
		},
		{
			name:         "database_unhealthy",
			db:           &stubChecker{err: errors.New("connection refused")},
			cache:        &stubChecker{},
			wantCode:     http.StatusServiceUnavailable,
			wantStatus:   "unhealthy",
			wantPostgres: "error: connection refused",
			wantRedis:    "ok",
		},
		{
			name:         "redis_unhealthy",
			db:           &stubChecker{},
			cache:        &stubChecker{err: errors.New("pool exhausted")},
			wantCode:     http.StatusServiceUnavailable,
			wantStatus:   "unhealthy",
			wantPostgres: "ok",
			wantRedis:    "error: pool exhausted",
		},
		{
			name:         "nothing_configured",
			db:           nil,
			cache:        nil,
			wantCode:     http.StatusOK,
			wantStatus:   "ok",
			wantPostgres: "not configured",
			wantRedis:    "not configured",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := NewHealthHandler(test.db, test.cache)

			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			rec := httptest.NewRecorder()

			h.Readyz(rec, req)

			if rec.Code != test.wantCode {
				t.Errorf("expected status %d, got %d", test.wantCode, rec.Code)
			}

			var response HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Status != test.wantStatus {
				t.Errorf("expected status %q, got %q", test.wantStatus, response.Status)
			}
			if response.Checks["postgres"] != test.wantPostgres {
				t.Errorf("unexpected postgres check: %q", response.Checks["postgres"])
			}
			if response.Checks["redis"] != test.wantRedis {
				t.Errorf("unexpected redis check: %q", response.Checks["redis"])
			}
		})
	}
}
