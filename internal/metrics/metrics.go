// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Chat lifecycle metrics
	IncChatCreated()
	IncChatDeleted()

	// Message ledger metrics
	IncMessageAppended(role string) // role: "user" or "assistant"

	// Reply generation metrics
	IncReplyGenerated(status string) // status: "ok" or "fallback"
	ObserveReplyDuration(duration time.Duration)

	// History cache metrics
	IncHistoryCacheHit()
	IncHistoryCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
