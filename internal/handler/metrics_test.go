package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/parley/parley/internal/metrics"
)

func TestMetricsHandler_Snapshot(t *testing.T) {
	recorder := metrics.NewInMemory()
	recorder.IncChatCreated()
	recorder.IncChatCreated()
	recorder.IncMessageAppended("user")
	recorder.IncMessageAppended("assistant")
	recorder.IncReplyGenerated("ok")
	recorder.IncReplyGenerated("fallback")
	recorder.ObserveReplyDuration(250 * time.Millisecond)
	recorder.IncHistoryCacheHit()
	recorder.IncHistoryCacheMiss()

	h := NewMetricsHandler(recorder)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	h.Metrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	expected := []string{
		"parley_chats_created_total 2",
		`parley_messages_appended_total{role="user"} 1`,
		`parley_messages_appended_total{role="assistant"} 1`,
		`parley_replies_generated_total{status="ok"} 1`,
		`parley_replies_generated_total{status="fallback"} 1`,
		"parley_reply_duration_seconds_count 1",
		"parley_history_cache_hits_total 1",
		"parley_history_cache_misses_total 1",
	}
	for _, line := range expected {
		if !strings.Contains(body, line) {
			t.Errorf("expected metrics output to contain %q, got:\n%s", line, body)
		}
	}
}

func TestMetricsHandler_NotConfigured(t *testing.T) {
	h := NewMetricsHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	h.Metrics(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}
