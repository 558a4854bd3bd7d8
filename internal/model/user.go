// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account.
// Email is stored lowercased and is unique across users.
type User struct {
	ID           string     `json:"id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Identity is the minimal authenticated caller record resolved from a
// session token. It scopes every chat and message operation; it does not
// carry the full profile.
type Identity struct {
	UserID string
	Email  string
}
