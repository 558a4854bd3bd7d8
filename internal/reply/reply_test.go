package reply

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/parley/parley/internal/model"
)

type failingStrategy struct {
	err error
}

func (s *failingStrategy) Generate(context.Context, string, []*model.Message) (string, error) {
	return "", s.err
}

type emptyStrategy struct{}

func (s *emptyStrategy) Generate(context.Context, string, []*model.Message) (string, error) {
	return "", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFixedSet_MembershipAndNonEmpty(t *testing.T) {
	t.Parallel()

	s := NewFixedSet()
	set := make(map[string]bool, len(s.Responses()))
	for _, r := range s.Responses() {
		set[r] = true
	}

	for i := 0; i < 50; i++ {
		text, err := s.Generate(context.Background(), "hello", nil)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if text == "" {
			t.Fatal("expected non-empty reply")
		}
		if !set[text] {
			t.Fatalf("reply %q is not in the fixed set", text)
		}
	}
}

func TestFixedSet_CustomResponses(t *testing.T) {
	t.Parallel()

	s := NewFixedSet("only answer")
	text, err := s.Generate(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "only answer" {
		t.Errorf("expected 'only answer', got %q", text)
	}
}

func TestGenerator_FallbackOnFailure(t *testing.T) {
	t.Parallel()

	g := NewGenerator(&failingStrategy{err: errors.New("network down")}, testLogger())

	text, fellBack := g.Generate(context.Background(), "hello", nil)
	if !fellBack {
		t.Error("expected fallback to be reported")
	}
	if text != FallbackText {
		t.Errorf("expected fallback text, got %q", text)
	}
	if text == "" {
		t.Error("fallback must be non-empty")
	}
}

func TestGenerator_FallbackOnEmptyReply(t *testing.T) {
	t.Parallel()

	g := NewGenerator(&emptyStrategy{}, testLogger())

	text, fellBack := g.Generate(context.Background(), "hello", nil)
	if !fellBack {
		t.Error("expected fallback for empty reply")
	}
	if text != FallbackText {
		t.Errorf("expected fallback text, got %q", text)
	}
}

func TestGenerator_PassthroughOnSuccess(t *testing.T) {
	t.Parallel()

	g := NewGenerator(NewFixedSet("pong"), testLogger())

	text, fellBack := g.Generate(context.Background(), "ping", nil)
	if fellBack {
		t.Error("did not expect fallback")
	}
	if text != "pong" {
		t.Errorf("expected 'pong', got %q", text)
	}
}
