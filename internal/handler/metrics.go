package handler

import (
	"fmt"
	"net/http"

	"github.com/parley/parley/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "parley_chats_created_total %d\n", snap.ChatsCreated)
	writeMetric(w, "parley_chats_deleted_total %d\n", snap.ChatsDeleted)

	writeMetric(w, "parley_messages_appended_total{role=\"user\"} %d\n", snap.UserMessages)
	writeMetric(w, "parley_messages_appended_total{role=\"assistant\"} %d\n", snap.AssistantMessages)

	writeMetric(w, "parley_replies_generated_total{status=\"ok\"} %d\n", snap.RepliesOK)
	writeMetric(w, "parley_replies_generated_total{status=\"fallback\"} %d\n", snap.RepliesFallback)
	writeMetric(w, "parley_reply_duration_seconds_count %d\n", snap.ReplyDurationCount)
	writeMetric(w, "parley_reply_duration_seconds_sum %.6f\n", float64(snap.ReplyDurationTotalNs)/1e9)

	writeMetric(w, "parley_history_cache_hits_total %d\n", snap.HistoryCacheHits)
	writeMetric(w, "parley_history_cache_misses_total %d\n", snap.HistoryCacheMisses)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
