package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncChatCreated is a no-op.
func (n *NoopRecorder) IncChatCreated() {}

// IncChatDeleted is a no-op.
func (n *NoopRecorder) IncChatDeleted() {}

// IncMessageAppended is a no-op.
func (n *NoopRecorder) IncMessageAppended(role string) {}

// IncReplyGenerated is a no-op.
func (n *NoopRecorder) IncReplyGenerated(status string) {}

// ObserveReplyDuration is a no-op.
func (n *NoopRecorder) ObserveReplyDuration(duration time.Duration) {}

// IncHistoryCacheHit is a no-op.
func (n *NoopRecorder) IncHistoryCacheHit() {}

// IncHistoryCacheMiss is a no-op.
func (n *NoopRecorder) IncHistoryCacheMiss() {}
