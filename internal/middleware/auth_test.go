package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parley/parley/internal/auth"
	"github.com/parley/parley/internal/token"
)

func newAuthTestConfig(t *testing.T) (AuthConfig, *token.Manager) {
	t.Helper()
	tokens, err := token.NewManager("middleware-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return AuthConfig{Logger: logger, Tokens: tokens}, tokens
}

func TestAuth_MissingToken(t *testing.T) {
	cfg, _ := newAuthTestConfig(t)

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	cfg, _ := newAuthTestConfig(t)

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached with an invalid token")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"garbage", "Bearer not-a-jwt"},
		{"wrong_scheme", "Basic dXNlcjpwYXNz"},
		{"empty_bearer", "Bearer "},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/chats", nil)
			req.Header.Set("Authorization", test.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuth_ValidTokenInjectsIdentity(t *testing.T) {
	cfg, tokens := newAuthTestConfig(t)

	signed, err := tokens.Issue("user-42", "bob@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var called bool
	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		identity := auth.IdentityFromContext(r.Context())
		if identity == nil {
			t.Fatal("expected identity in context")
		}
		if identity.UserID != "user-42" {
			t.Errorf("expected user-42, got %s", identity.UserID)
		}
		if identity.Email != "bob@example.com" {
			t.Errorf("expected bob@example.com, got %s", identity.Email)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("handler was not called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"bearer", "Bearer abc123", "abc123"},
		{"no_scheme", "abc123", ""},
		{"basic", "Basic abc123", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}
			if got := extractBearerToken(req); got != test.want {
				t.Errorf("expected %q, got %q", test.want, got)
			}
		})
	}
}
