package reply

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parley/parley/internal/model"
)

func TestDelegated_Success(t *testing.T) {
	t.Parallel()

	var gotReq completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"The weather is fine."}}]}`))
	}))
	defer server.Close()

	s := NewDelegated(DelegatedConfig{
		Endpoint: server.URL,
		Model:    "test-model",
		Timeout:  5 * time.Second,
	})

	history := []*model.Message{
		{Role: model.RoleUser, Content: "Hi"},
		{Role: model.RoleAssistant, Content: "Hello!"},
	}

	text, err := s.Generate(context.Background(), "What is the weather?", history)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "The weather is fine." {
		t.Errorf("unexpected reply: %q", text)
	}

	if gotReq.Model != "test-model" {
		t.Errorf("expected model to be forwarded, got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 3 {
		t.Fatalf("expected 3 messages (history + user), got %d", len(gotReq.Messages))
	}
	last := gotReq.Messages[len(gotReq.Messages)-1]
	if last.Role != "user" || last.Content != "What is the weather?" {
		t.Errorf("expected user message last, got %+v", last)
	}
}

func TestDelegated_HistoryAlreadyEndsWithUserMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 1 {
			t.Errorf("expected no duplicate user message, got %d messages", len(req.Messages))
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	s := NewDelegated(DelegatedConfig{Endpoint: server.URL})

	history := []*model.Message{
		{Role: model.RoleUser, Content: "Hello"},
	}

	if _, err := s.Generate(context.Background(), "Hello", history); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestDelegated_UpstreamFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http_error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			},
		},
		{
			name: "malformed_body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
		{
			name: "error_payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
			},
		},
		{
			name: "empty_choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(test.handler)
			defer server.Close()

			s := NewDelegated(DelegatedConfig{Endpoint: server.URL})

			_, err := s.Generate(context.Background(), "hello", nil)
			if !errors.Is(err, ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
		})
	}
}

func TestDelegated_NetworkErrorFallsBackThroughGenerator(t *testing.T) {
	t.Parallel()

	// Closed server: connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	s := NewDelegated(DelegatedConfig{Endpoint: endpoint, Timeout: time.Second})
	g := NewGenerator(s, testLogger())

	text, fellBack := g.Generate(context.Background(), "hello", nil)
	if !fellBack {
		t.Error("expected fallback on network error")
	}
	if text != FallbackText {
		t.Errorf("expected fallback text, got %q", text)
	}
}
