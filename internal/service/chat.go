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

// Chat service errors.
var (
	ErrChatNotFound = errors.New("chat not found")
	ErrInvalidTitle = errors.New("invalid chat title")
)

const (
	// DefaultChatTitle is assigned to chats created without an explicit title.
	DefaultChatTitle = "New conversation"

	maxTitleLength = 255
)

// ChatService handles chat business logic.
type ChatService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	metrics metrics.Recorder
}

// NewChatService creates a new ChatService.
func NewChatService(repo *repository.Repository, cache *cache.Cache, recorder metrics.Recorder) *ChatService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ChatService{
		repo:    repo,
		cache:   cache,
		metrics: recorder,
	}
}

// CreateChatInput defines input for creating a chat.
type CreateChatInput struct {
	OwnerID       string
	Title         string
	IsVoice       bool
	VoiceDuration *string
}

// Create creates a new chat. An empty title falls back to DefaultChatTitle.
func (s *ChatService) Create(ctx context.Context, input CreateChatInput) (*model.Chat, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = DefaultChatTitle
	}
	if len(title) > maxTitleLength {
		return nil, ErrInvalidTitle
	}

	now := time.Now().UTC()
	chat := &model.Chat{
		ID:            newID(),
		OwnerID:       input.OwnerID,
		Title:         title,
		IsVoice:       input.IsVoice,
		VoiceDuration: input.VoiceDuration,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if err := s.repo.CreateChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	s.metrics.IncChatCreated()

	return chat, nil
}

// Get retrieves one of the owner's chats.
func (s *ChatService) Get(ctx context.Context, ownerID, chatID string) (*model.Chat, error) {
	chat, err := s.repo.GetChat(ctx, ownerID, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return chat, nil
}

// ListActive returns the owner's non-archived chats, most recently
// updated first.
func (s *ChatService) ListActive(ctx context.Context, ownerID string) ([]*model.Chat, error) {
	return s.repo.ListChats(ctx, ownerID, false)
}

// ListArchived returns the owner's archived chats, most recently
// updated first.
func (s *ChatService) ListArchived(ctx context.Context, ownerID string) ([]*model.Chat, error) {
	return s.repo.ListChats(ctx, ownerID, true)
}

// Rename sets a chat's title. Renaming counts as activity and bumps
// last_updated_at.
func (s *ChatService) Rename(ctx context.Context, ownerID, chatID, title string) (*model.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLength {
		return nil, ErrInvalidTitle
	}

	chat, err := s.repo.RenameChat(ctx, ownerID, chatID, title, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return chat, nil
}

// SetArchived toggles a chat's archived flag. Archiving is not activity,
// so last_updated_at is left alone and the chat keeps its position when
// it is restored.
func (s *ChatService) SetArchived(ctx context.Context, ownerID, chatID string, archived bool) (*model.Chat, error) {
	chat, err := s.repo.SetChatArchived(ctx, ownerID, chatID, archived)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return chat, nil
}

// Delete removes a chat and its messages.
func (s *ChatService) Delete(ctx context.Context, ownerID, chatID string) error {
	if err := s.repo.DeleteChat(ctx, ownerID, chatID); err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return ErrChatNotFound
		}
		return err
	}

	s.metrics.IncChatDeleted()

	if err := s.cache.InvalidateHistory(ctx, chatID); err != nil {
		_ = err // Best effort; entry expires on its own.
	}

	return nil
}

// DeleteAll removes every chat the owner has, archived included.
func (s *ChatService) DeleteAll(ctx context.Context, ownerID string) error {
	var chatIDs []string
	for _, archived := range []bool{false, true} {
		chats, err := s.repo.ListChats(ctx, ownerID, archived)
		if err != nil {
			return fmt.Errorf("failed to list chats: %w", err)
		}
		for _, chat := range chats {
			chatIDs = append(chatIDs, chat.ID)
		}
	}

	if err := s.repo.DeleteAllChats(ctx, ownerID); err != nil {
		return fmt.Errorf("failed to delete chats: %w", err)
	}

	for range chatIDs {
		s.metrics.IncChatDeleted()
	}

	if len(chatIDs) > 0 {
		_ = s.cache.InvalidateHistory(ctx, chatIDs...)
	}

	return nil
}
