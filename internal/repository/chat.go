package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/parley/parley/internal/model"
)

// Common errors for chat repository operations.
// A chat owned by another user is indistinguishable from a missing one.
var (
	ErrChatNotFound = errors.New("chat not found")
)

const chatColumns = `id, owner_id, title, is_archived, is_voice, voice_duration, created_at, last_updated_at`

// CreateChat inserts a new chat into the database.
func (r *Repository) CreateChat(ctx context.Context, chat *model.Chat) error {
	query := `
		INSERT INTO chats (id, owner_id, title, is_archived, is_voice, voice_duration, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		chat.ID,
		chat.OwnerID,
		chat.Title,
		chat.IsArchived,
		chat.IsVoice,
		chat.VoiceDuration,
		chat.CreatedAt,
		chat.LastUpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	return nil
}

// GetChat retrieves a chat by ID, scoped to its owner.
func (r *Repository) GetChat(ctx context.Context, ownerID, chatID string) (*model.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE id = $1 AND owner_id = $2
	`

	chat, err := scanChat(r.pool.QueryRow(ctx, query, chatID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	return chat, nil
}

// ListChats retrieves all chats for an owner with the given archive state,
// ordered by last activity, most recent first.
func (r *Repository) ListChats(ctx context.Context, ownerID string, archived bool) ([]*model.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE owner_id = $1 AND is_archived = $2
		ORDER BY last_updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID, archived)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]*model.Chat, 0)
	for rows.Next() {
		chat, err := scanChatFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}

	return chats, nil
}

// RenameChat sets a new title and touches last_updated_at.
func (r *Repository) RenameChat(ctx context.Context, ownerID, chatID, title string, at time.Time) (*model.Chat, error) {
	query := `
		UPDATE chats
		SET title = $3, last_updated_at = GREATEST(last_updated_at, $4)
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + chatColumns

	chat, err := scanChat(r.pool.QueryRow(ctx, query, chatID, ownerID, title, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to rename chat: %w", err)
	}

	return chat, nil
}

// SetChatArchived toggles the archive flag.
// Archiving is a metadata change, not activity: last_updated_at is untouched.
func (r *Repository) SetChatArchived(ctx context.Context, ownerID, chatID string, archived bool) (*model.Chat, error) {
	query := `
		UPDATE chats
		SET is_archived = $3
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + chatColumns

	chat, err := scanChat(r.pool.QueryRow(ctx, query, chatID, ownerID, archived))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to set archive state: %w", err)
	}

	return chat, nil
}

// DeleteChat removes a chat and all of its messages in one transaction.
// The chat row goes first so the ownership check and the cascade cannot
// interleave with a concurrent append.
func (r *Repository) DeleteChat(ctx context.Context, ownerID, chatID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx, `DELETE FROM chats WHERE id = $1 AND owner_id = $2`, chatID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrChatNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chat delete: %w", err)
	}

	return nil
}

// DeleteAllChats removes every chat owned by ownerID and all their messages.
func (r *Repository) DeleteAllChats(ctx context.Context, ownerID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		DELETE FROM messages
		USING chats
		WHERE messages.chat_id = chats.id AND chats.owner_id = $1
	`
	if _, err := tx.Exec(ctx, query, ownerID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM chats WHERE owner_id = $1`, ownerID); err != nil {
		return fmt.Errorf("failed to delete chats: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	return nil
}

// scanChat scans a single row into a Chat model.
func scanChat(row pgx.Row) (*model.Chat, error) {
	var chat model.Chat
	err := row.Scan(
		&chat.ID,
		&chat.OwnerID,
		&chat.Title,
		&chat.IsArchived,
		&chat.IsVoice,
		&chat.VoiceDuration,
		&chat.CreatedAt,
		&chat.LastUpdatedAt,
	)
	return &chat, err
}

// scanChatFromRows scans a row from pgx.Rows into a Chat model.
func scanChatFromRows(rows pgx.Rows) (*model.Chat, error) {
	var chat model.Chat
	err := rows.Scan(
		&chat.ID,
		&chat.OwnerID,
		&chat.Title,
		&chat.IsArchived,
		&chat.IsVoice,
		&chat.VoiceDuration,
		&chat.CreatedAt,
		&chat.LastUpdatedAt,
	)
	return &chat, err
}
