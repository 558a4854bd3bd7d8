package service

import (
	"context"
	"strings"
	"time"

	"github.com/parley/parley/internal/metrics"
	"github.com/parley/parley/internal/model"
	"github.com/parley/parley/internal/reply"
)

const (
	// historyLimit caps how many prior messages are handed to the reply
	// generator as conversational context.
	historyLimit = 10

	maxDerivedTitleRunes = 30
	derivedTitlePrefix   = 27
)

// ConversationService orchestrates a conversation turn: persist the user
// message, generate the assistant reply, persist that too.
type ConversationService struct {
	chats     *ChatService
	messages  *MessageService
	generator *reply.Generator
	metrics   metrics.Recorder
}

// NewConversationService creates a new ConversationService.
func NewConversationService(chats *ChatService, messages *MessageService, generator *reply.Generator, recorder metrics.Recorder) *ConversationService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ConversationService{
		chats:     chats,
		messages:  messages,
		generator: generator,
		metrics:   recorder,
	}
}

// SendInput defines input for a conversation turn.
type SendInput struct {
	OwnerID string
	ChatID  string
	Content string
}

// SendResult is the outcome of a conversation turn.
type SendResult struct {
	Chat             *model.Chat
	UserMessage      *model.Message
	AssistantMessage *model.Message
	FellBack         bool
}

// Send runs one conversation turn. With an empty ChatID a fresh chat is
// created first. The chat's title is derived from its first message ever,
// whatever title the chat was created with.
func (s *ConversationService) Send(ctx context.Context, input SendInput) (*SendResult, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrEmptyContent
	}

	chat, history, err := s.resolveChat(ctx, input.OwnerID, input.ChatID)
	if err != nil {
		return nil, err
	}

	userMsg, err := s.messages.Append(ctx, AppendInput{
		OwnerID: input.OwnerID,
		ChatID:  chat.ID,
		Role:    model.RoleUser,
		Content: input.Content,
	})
	if err != nil {
		return nil, err
	}

	if len(history) == 0 {
		renamed, err := s.chats.Rename(ctx, input.OwnerID, chat.ID, DeriveTitle(input.Content))
		if err != nil {
			return nil, err
		}
		chat = renamed
	}

	start := time.Now()
	text, fellBack := s.generator.Generate(ctx, input.Content, tail(history, historyLimit))
	s.metrics.ObserveReplyDuration(time.Since(start))
	if fellBack {
		s.metrics.IncReplyGenerated("fallback")
	} else {
		s.metrics.IncReplyGenerated("ok")
	}

	assistantMsg, err := s.messages.Append(ctx, AppendInput{
		OwnerID: input.OwnerID,
		ChatID:  chat.ID,
		Role:    model.RoleAssistant,
		Content: text,
	})
	if err != nil {
		return nil, err
	}

	return &SendResult{
		Chat:             chat,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		FellBack:         fellBack,
	}, nil
}

// GenerateReply produces and stores an assistant reply for an existing
// chat, using the chat's recent history plus the given prompt as context.
// The prompt itself is not stored; callers append the user message first.
func (s *ConversationService) GenerateReply(ctx context.Context, ownerID, chatID, prompt string) (*model.Message, bool, error) {
	history, err := s.messages.List(ctx, ownerID, chatID)
	if err != nil {
		return nil, false, err
	}

	if strings.TrimSpace(prompt) == "" && len(history) > 0 {
		// Default to the latest user message in the ledger.
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Role == model.RoleUser {
				prompt = history[i].Content
				break
			}
		}
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, false, ErrEmptyContent
	}

	start := time.Now()
	text, fellBack := s.generator.Generate(ctx, prompt, tail(history, historyLimit))
	s.metrics.ObserveReplyDuration(time.Since(start))
	if fellBack {
		s.metrics.IncReplyGenerated("fallback")
	} else {
		s.metrics.IncReplyGenerated("ok")
	}

	msg, err := s.messages.Append(ctx, AppendInput{
		OwnerID: ownerID,
		ChatID:  chatID,
		Role:    model.RoleAssistant,
		Content: text,
	})
	if err != nil {
		return nil, false, err
	}

	return msg, fellBack, nil
}

// resolveChat returns the target chat and its existing messages, creating
// the chat when no ID was supplied.
func (s *ConversationService) resolveChat(ctx context.Context, ownerID, chatID string) (*model.Chat, []*model.Message, error) {
	if chatID == "" {
		chat, err := s.chats.Create(ctx, CreateChatInput{OwnerID: ownerID})
		if err != nil {
			return nil, nil, err
		}
		return chat, nil, nil
	}

	chat, err := s.chats.Get(ctx, ownerID, chatID)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.messages.List(ctx, ownerID, chatID)
	if err != nil {
		return nil, nil, err
	}

	return chat, history, nil
}

// DeriveTitle shortens a first message into a chat title. Content up to
// 30 runes is used verbatim, whitespace and all; longer content is cut
// to its first 27 runes plus an ellipsis.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= maxDerivedTitleRunes {
		return content
	}
	return string(runes[:derivedTitlePrefix]) + "…"
}

// tail returns the last n elements of messages.
func tail(messages []*model.Message, n int) []*model.Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
