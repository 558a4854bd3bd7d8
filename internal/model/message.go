package model

import "time"

// Role identifies the author of a message turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid checks if the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one immutable turn in a chat. Ordering within a chat is by
// CreatedAt ascending with Seq as the monotonic tie-break, so the ledger
// never reorders on replay.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Seq       int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
