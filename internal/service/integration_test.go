//go:build integration

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/parley/parley/internal/cache"
	"github.com/parley/parley/internal/model"
	"github.com/parley/parley/internal/reply"
	"github.com/parley/parley/internal/repository"
	"github.com/parley/parley/internal/testutil"
)

// ============================================================================
// Conversation Orchestration Integration Tests
// ============================================================================

func TestIntegrationConversationSend_CreatesAndTitlesChat(t *testing.T) {
	ctx, env := newConversationEnv(t, reply.NewFixedSet())

	result, err := env.conversations.Send(ctx, SendInput{
		OwnerID: env.owner.ID,
		Content: "What is the weather?",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if result.Chat.ID == "" {
		t.Fatal("Send did not create a chat")
	}
	if result.Chat.Title != "What is the weather?" {
		t.Errorf("Title mismatch: got %q, want %q", result.Chat.Title, "What is the weather?")
	}

	messages, err := env.messages.List(ctx, env.owner.ID, result.Chat.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != model.RoleUser || messages[1].Role != model.RoleAssistant {
		t.Errorf("unexpected roles: %s, %s", messages[0].Role, messages[1].Role)
	}
	if messages[1].Content == "" {
		t.Error("assistant message is empty")
	}

	active, err := env.chats.ListActive(ctx, env.owner.ID)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) == 0 || active[0].ID != result.Chat.ID {
		t.Error("chat should be first in the active listing")
	}
}

func TestIntegrationConversationSend_RetitlesExplicitlyTitledChat(t *testing.T) {
	ctx, env := newConversationEnv(t, reply.NewFixedSet())

	chat, err := env.chats.Create(ctx, CreateChatInput{OwnerID: env.owner.ID, Title: "Test"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	result, err := env.conversations.Send(ctx, SendInput{
		OwnerID: env.owner.ID,
		ChatID:  chat.ID,
		Content: "What is the weather?",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// The first message ever always sets the title, even over one the
	// chat was created with.
	if result.Chat.Title != "What is the weather?" {
		t.Errorf("Title mismatch: got %q, want %q", result.Chat.Title, "What is the weather?")
	}

	stored, err := env.chats.Get(ctx, env.owner.ID, chat.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Title != "What is the weather?" {
		t.Errorf("stored title mismatch: got %q", stored.Title)
	}

	messages, err := env.messages.List(ctx, env.owner.ID, chat.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
}

func TestIntegrationConversationSend_SecondTurnKeepsTitle(t *testing.T) {
	ctx, env := newConversationEnv(t, reply.NewFixedSet())

	first, err := env.conversations.Send(ctx, SendInput{
		OwnerID: env.owner.ID,
		Content: "What is the weather?",
	})
	if err != nil {
		t.Fatalf("Send (first) failed: %v", err)
	}

	second, err := env.conversations.Send(ctx, SendInput{
		OwnerID: env.owner.ID,
		ChatID:  first.Chat.ID,
		Content: "And tomorrow?",
	})
	if err != nil {
		t.Fatalf("Send (second) failed: %v", err)
	}

	if second.Chat.Title != "What is the weather?" {
		t.Errorf("second turn changed the title: %q", second.Chat.Title)
	}

	messages, err := env.messages.List(ctx, env.owner.ID, first.Chat.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	for i, want := range []model.Role{model.RoleUser, model.RoleAssistant, model.RoleUser, model.RoleAssistant} {
		if messages[i].Role != want {
			t.Errorf("message %d role = %s, want %s", i, messages[i].Role, want)
		}
	}
}

func TestIntegrationConversationSend_TruncatesLongFirstMessage(t *testing.T) {
	ctx, env := newConversationEnv(t, reply.NewFixedSet())

	content := strings.Repeat("x", 31)
	result, err := env.conversations.Send(ctx, SendInput{
		OwnerID: env.owner.ID,
		Content: content,
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	want := strings.Repeat("x", 27) + "…"
	if result.Chat.Title != want {
		t.Errorf("Title mismatch: got %q, want %q", result.Chat.Title, want)
	}
}

func TestIntegrationConversationSend_FallbackStillAppendsReply(t *testing.T) {
	ctx, env := newConversationEnv(t, brokenStrategy{})

	result, err := env.conversations.Send(ctx, SendInput{
		OwnerID: env.owner.ID,
		Content: "Is anyone there?",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if !result.FellBack {
		t.Error("expected the fallback reply to be used")
	}
	if result.AssistantMessage.Content != reply.FallbackText {
		t.Errorf("unexpected assistant content: %q", result.AssistantMessage.Content)
	}

	messages, err := env.messages.List(ctx, env.owner.ID, result.Chat.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected exactly one assistant append, got %d messages", len(messages))
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

// brokenStrategy simulates an unreachable upstream generator.
type brokenStrategy struct{}

func (brokenStrategy) Generate(context.Context, string, []*model.Message) (string, error) {
	return "", errors.New("upstream unavailable")
}

type conversationEnv struct {
	owner         *model.User
	chats         *ChatService
	messages      *MessageService
	conversations *ConversationService
}

func newConversationEnv(t *testing.T, strategy reply.Strategy) (context.Context, *conversationEnv) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "TEST_DATABASE_URL")
	redisURL := testutil.RequireEnv(t, "TEST_REDIS_URL")

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	store, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := testutil.FlushRedis(ctx, store.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	generator := reply.NewGenerator(strategy, logger)

	env := &conversationEnv{
		chats:    NewChatService(repo, store, nil),
		messages: NewMessageService(repo, store, nil),
	}
	env.conversations = NewConversationService(env.chats, env.messages, generator, nil)

	env.owner = testutil.NewTestUser(t, testutil.UniqueID("user"), testutil.UniqueID("owner")+"@example.com")
	if err := repo.CreateUser(ctx, env.owner); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return ctx, env
}
