// Package reply produces assistant-role message content in response to a
// user message. Strategies are pluggable: a fixed-set random responder and
// a delegated external text-generation service.
package reply

import (
	"context"
	"errors"
	"log/slog"

	"github.com/parley/parley/internal/model"
)

// FallbackText is appended to the ledger like a normal assistant message
// whenever the active strategy fails. The conversation is never left
// without an assistant reply.
const FallbackText = "I could not generate a response, please try again later."

// ErrEmptyReply indicates a strategy produced no text.
var ErrEmptyReply = errors.New("strategy produced empty reply")

// Strategy produces reply text given the user message and recent history.
// History is oldest-first and already trimmed by the caller.
type Strategy interface {
	Generate(ctx context.Context, userMessage string, history []*model.Message) (string, error)
}

// Generator wraps a Strategy with the fallback-on-failure contract:
// Generate always returns a non-empty string.
type Generator struct {
	strategy Strategy
	logger   *slog.Logger
}

// NewGenerator creates a Generator around the given strategy.
func NewGenerator(strategy Strategy, logger *slog.Logger) *Generator {
	return &Generator{
		strategy: strategy,
		logger:   logger,
	}
}

// Generate runs the strategy, converting any failure into the fallback
// sentence. The returned bool reports whether the fallback was used.
func (g *Generator) Generate(ctx context.Context, userMessage string, history []*model.Message) (string, bool) {
	text, err := g.strategy.Generate(ctx, userMessage, history)
	if err == nil && text == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		g.logger.Warn("reply generation failed, using fallback",
			slog.String("error", err.Error()),
		)
		return FallbackText, true
	}

	return text, false
}
