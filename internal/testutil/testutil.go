// Package testutil provides helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/parley/parley/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates every table for tests. Messages go
// first on the way down because they reference chats.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	down := []string{"000003_messages", "000002_chats", "000001_users"}
	up := []string{"000001_users", "000002_chats", "000003_messages"}

	for _, name := range down {
		if err := applyMigration(ctx, pool, name+".down.sql"); err != nil {
			return err
		}
	}
	for _, name := range up {
		if err := applyMigration(ctx, pool, name+".up.sql"); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, file string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	sql, err := os.ReadFile(filepath.Join(root, "migrations", file))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", file, err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// ============================================================================
// Test Data Factories
// ============================================================================

// Timestamps are truncated to microseconds so values compare equal
// after a round trip through a timestamptz column.

// NewTestUser creates a test user with sensible defaults. The password
// hash is a valid PHC string but does not correspond to any password.
func NewTestUser(t testing.TB, id, email string) *model.User {
	t.Helper()
	return &model.User{
		ID:           id,
		FullName:     "Test User",
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$dGVzdHNhbHQxMjM0NTY$dGVzdGhhc2h0ZXN0aGFzaHRlc3RoYXNodGVzdGhhc2g",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestChat creates a test chat with sensible defaults.
func NewTestChat(t testing.TB, id, ownerID string) *model.Chat {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Chat{
		ID:            id,
		OwnerID:       ownerID,
		Title:         "Test chat",
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// NewTestMessage creates a test message with sensible defaults.
func NewTestMessage(t testing.TB, id, chatID string, role model.Role, content string) *model.Message {
	t.Helper()
	return &model.Message{
		ID:        id,
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}
