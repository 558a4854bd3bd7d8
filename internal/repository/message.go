package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/parley/parley/internal/model"
)

// Common errors for message repository operations.
var (
	ErrMessageNotFound = errors.New("message not found")
)

// AppendMessage inserts a message and bumps the owning chat's
// last_updated_at in a single transaction. The chat row is updated first
// with an ownership filter, which doubles as the ownership check and
// serializes concurrent appends on the same chat.
//
// GREATEST keeps last_updated_at monotonically non-decreasing even when
// two near-simultaneous appends race.
func (r *Repository) AppendMessage(ctx context.Context, ownerID string, msg *model.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin append transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	touch := `
		UPDATE chats
		SET last_updated_at = GREATEST(last_updated_at, $3)
		WHERE id = $1 AND owner_id = $2
	`
	result, err := tx.Exec(ctx, touch, msg.ChatID, ownerID, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrChatNotFound
	}

	insert := `
		INSERT INTO messages (id, chat_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`
	err = tx.QueryRow(ctx, insert,
		msg.ID,
		msg.ChatID,
		msg.Role,
		msg.Content,
		msg.CreatedAt,
	).Scan(&msg.Seq)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}

	return nil
}

// ListMessages retrieves all messages for a chat in ledger order:
// created_at ascending, seq breaking ties.
func (r *Repository) ListMessages(ctx context.Context, chatID string) ([]*model.Message, error) {
	query := `
		SELECT id, chat_id, role, content, seq, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, seq ASC
	`

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*model.Message, 0)
	for rows.Next() {
		var msg model.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.Role,
			&msg.Content,
			&msg.Seq,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// GetMessage retrieves a message by ID without an ownership filter.
// The caller resolves the owning chat before acting on it.
func (r *Repository) GetMessage(ctx context.Context, messageID string) (*model.Message, error) {
	query := `
		SELECT id, chat_id, role, content, seq, created_at
		FROM messages
		WHERE id = $1
	`

	var msg model.Message
	err := r.pool.QueryRow(ctx, query, messageID).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.Role,
		&msg.Content,
		&msg.Seq,
		&msg.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &msg, nil
}

// DeleteMessage removes a single message.
func (r *Repository) DeleteMessage(ctx context.Context, messageID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// CountMessages returns the number of messages in a chat.
// Used to detect a chat's first message for title derivation.
func (r *Repository) CountMessages(ctx context.Context, chatID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE chat_id = $1`, chatID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
