package model

import "time"

// Chat represents a titled conversation thread owned by one user.
// OwnerID never changes after creation; every query and mutation filters
// by the caller's identity.
type Chat struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Title         string    `json:"title"`
	IsArchived    bool      `json:"is_archived"`
	IsVoice       bool      `json:"is_voice"`
	VoiceDuration *string   `json:"voice_duration,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	// LastUpdatedAt is the sole ordering key for chat listings (descending).
	// Bumped on every message append and on rename, but not on archive toggle.
	LastUpdatedAt time.Time `json:"last_updated_at"`
}
