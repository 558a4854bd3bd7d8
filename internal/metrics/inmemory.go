package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ChatsCreated         uint64
	ChatsDeleted         uint64
	UserMessages         uint64
	AssistantMessages    uint64
	RepliesOK            uint64
	RepliesFallback      uint64
	ReplyDurationCount   uint64
	ReplyDurationTotalNs int64
	HistoryCacheHits     uint64
	HistoryCacheMisses   uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	chatsCreated         uint64
	chatsDeleted         uint64
	userMessages         uint64
	assistantMessages    uint64
	repliesOK            uint64
	repliesFallback      uint64
	replyDurationCount   uint64
	replyDurationTotalNs int64
	historyCacheHits     uint64
	historyCacheMisses   uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ChatsCreated:         atomic.LoadUint64(&m.chatsCreated),
		ChatsDeleted:         atomic.LoadUint64(&m.chatsDeleted),
		UserMessages:         atomic.LoadUint64(&m.userMessages),
		AssistantMessages:    atomic.LoadUint64(&m.assistantMessages),
		RepliesOK:            atomic.LoadUint64(&m.repliesOK),
		RepliesFallback:      atomic.LoadUint64(&m.repliesFallback),
		ReplyDurationCount:   atomic.LoadUint64(&m.replyDurationCount),
		ReplyDurationTotalNs: atomic.LoadInt64(&m.replyDurationTotalNs),
		HistoryCacheHits:     atomic.LoadUint64(&m.historyCacheHits),
		HistoryCacheMisses:   atomic.LoadUint64(&m.historyCacheMisses),
	}
}

// IncChatCreated increments the chats created counter.
func (m *InMemoryRecorder) IncChatCreated() {
	atomic.AddUint64(&m.chatsCreated, 1)
}

// IncChatDeleted increments the chats deleted counter.
func (m *InMemoryRecorder) IncChatDeleted() {
	atomic.AddUint64(&m.chatsDeleted, 1)
}

// IncMessageAppended increments the appended-message counter for a role.
func (m *InMemoryRecorder) IncMessageAppended(role string) {
	if role == "assistant" {
		atomic.AddUint64(&m.assistantMessages, 1)
		return
	}
	atomic.AddUint64(&m.userMessages, 1)
}

// IncReplyGenerated increments the reply counter for a status.
func (m *InMemoryRecorder) IncReplyGenerated(status string) {
	if status == "fallback" {
		atomic.AddUint64(&m.repliesFallback, 1)
		return
	}
	atomic.AddUint64(&m.repliesOK, 1)
}

// ObserveReplyDuration records reply generation duration.
func (m *InMemoryRecorder) ObserveReplyDuration(duration time.Duration) {
	atomic.AddUint64(&m.replyDurationCount, 1)
	atomic.AddInt64(&m.replyDurationTotalNs, duration.Nanoseconds())
}

// IncHistoryCacheHit increments the history cache hit counter.
func (m *InMemoryRecorder) IncHistoryCacheHit() {
	atomic.AddUint64(&m.historyCacheHits, 1)
}

// IncHistoryCacheMiss increments the history cache miss counter.
func (m *InMemoryRecorder) IncHistoryCacheMiss() {
	atomic.AddUint64(&m.historyCacheMisses, 1)
}
