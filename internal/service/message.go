package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/parley/parley/internal/cache"
	"github.com/parley/parley/internal/metrics"
	"github.com/parley/parley/internal/model"
	"github.com/parley/parley/internal/repository"
)

// Message service errors.
var (
	ErrEmptyContent     = errors.New("message content is required")
	ErrContentTooLong   = errors.New("message content too long")
	ErrInvalidRole      = errors.New("invalid message role")
	ErrMessageNotFound  = errors.New("message not found")
	ErrMessageForbidden = errors.New("message belongs to another user")
)

const maxContentLength = 16384

// MessageService handles message business logic.
type MessageService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	metrics metrics.Recorder
}

// NewMessageService creates a new MessageService.
func NewMessageService(repo *repository.Repository, cache *cache.Cache, recorder metrics.Recorder) *MessageService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &MessageService{
		repo:    repo,
		cache:   cache,
		metrics: recorder,
	}
}

// AppendInput defines input for appending a message to a chat.
type AppendInput struct {
	OwnerID string
	ChatID  string
	Role    model.Role
	Content string
}

// Append validates and stores a message at the end of a chat's ledger,
// bumping the chat's last_updated_at in the same transaction.
func (s *MessageService) Append(ctx context.Context, input AppendInput) (*model.Message, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrEmptyContent
	}
	if len(input.Content) > maxContentLength {
		return nil, ErrContentTooLong
	}
	if !input.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	msg := &model.Message{
		ID:        newID(),
		ChatID:    input.ChatID,
		Role:      input.Role,
		Content:   input.Content,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.AppendMessage(ctx, input.OwnerID, msg); err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	s.metrics.IncMessageAppended(string(msg.Role))

	// Keep the cached history warm. AppendHistory only extends lists that
	// already exist, so a cold cache stays cold until the next List fill.
	if err := s.cache.AppendHistory(ctx, msg); err != nil {
		_ = err
	}

	return msg, nil
}

// List returns a chat's messages oldest first, serving from the history
// cache when it is warm.
func (s *MessageService) List(ctx context.Context, ownerID, chatID string) ([]*model.Message, error) {
	// Ownership gate before any cache read.
	if _, err := s.repo.GetChat(ctx, ownerID, chatID); err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}

	cached, err := s.cache.GetHistory(ctx, chatID)
	if err == nil && cached != nil {
		s.metrics.IncHistoryCacheHit()
		return cached, nil
	}
	s.metrics.IncHistoryCacheMiss()

	messages, err := s.repo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetHistory(ctx, chatID, messages); err != nil {
		_ = err // Best effort backfill.
	}

	return messages, nil
}

// Delete removes a single message after checking that the caller owns the
// chat it belongs to.
func (s *MessageService) Delete(ctx context.Context, ownerID, messageID string) error {
	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	if _, err := s.repo.GetChat(ctx, ownerID, msg.ChatID); err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return ErrMessageForbidden
		}
		return err
	}

	if err := s.repo.DeleteMessage(ctx, messageID); err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	// The cached list no longer matches the ledger.
	if err := s.cache.InvalidateHistory(ctx, msg.ChatID); err != nil {
		_ = err
	}

	return nil
}
