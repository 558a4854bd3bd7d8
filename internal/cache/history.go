package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/parley/parley/internal/model"
)

const (
	// historyKeyPrefix is the Redis key prefix for per-chat message history.
	historyKeyPrefix = "chat:history:"
	// historyTTL is the time-to-live for cached histories.
	historyTTL = 24 * time.Hour
)

// cachedMessage is the wire shape for messages stored in the history list.
type cachedMessage struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

func historyKey(chatID string) string {
	return historyKeyPrefix + chatID
}

// GetHistory returns the cached message list for a chat, oldest first.
// A miss or a corrupted entry returns (nil, nil); the caller falls back
// to the repository.
func (c *Cache) GetHistory(ctx context.Context, chatID string) ([]*model.Message, error) {
	raw, err := c.client.LRange(ctx, historyKey(chatID), 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, nil //nolint:nilerr
	}

	messages := make([]*model.Message, 0, len(raw))
	for _, item := range raw {
		var cached cachedMessage
		if err := json.Unmarshal([]byte(item), &cached); err != nil {
			// Corrupted entry - drop the whole list and treat as miss
			_ = c.client.Del(ctx, historyKey(chatID)).Err()
			return nil, nil //nolint:nilerr
		}
		messages = append(messages, &model.Message{
			ID:        cached.ID,
			ChatID:    cached.ChatID,
			Role:      model.Role(cached.Role),
			Content:   cached.Content,
			Seq:       cached.Seq,
			CreatedAt: cached.CreatedAt,
		})
	}

	return messages, nil
}

// AppendHistory pushes one message onto the end of a chat's cached history.
// Only appends when the list already exists; a missing list stays missing
// so the next read repopulates it from the repository in full.
func (c *Cache) AppendHistory(ctx context.Context, msg *model.Message) error {
	key := historyKey(msg.ChatID)

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return nil //nolint:nilerr
	}

	data, err := json.Marshal(cachedMessage{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Seq:       msg.Seq,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	return nil
}

// SetHistory replaces a chat's cached history with the given messages.
func (c *Cache) SetHistory(ctx context.Context, chatID string, messages []*model.Message) error {
	key := historyKey(chatID)

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)

	for _, msg := range messages {
		data, err := json.Marshal(cachedMessage{
			ID:        msg.ID,
			ChatID:    msg.ChatID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			Seq:       msg.Seq,
			CreatedAt: msg.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		pipe.RPush(ctx, key, data)
	}

	pipe.Expire(ctx, key, historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set history: %w", err)
	}

	return nil
}

// InvalidateHistory drops the cached history for one or more chats.
// Called after message or chat deletion.
func (c *Cache) InvalidateHistory(ctx context.Context, chatIDs ...string) error {
	if len(chatIDs) == 0 {
		return nil
	}

	keys := make([]string, len(chatIDs))
	for i, id := range chatIDs {
		keys[i] = historyKey(id)
	}

	return c.client.Del(ctx, keys...).Err()
}
