package reply

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/parley/parley/internal/model"
)

// defaultResponses is the canned sentence set for the fixed strategy.
var defaultResponses = []string{
	"I'm here to help. What can I assist you with today?",
	"Thanks for your message. What would you like to know?",
	"Hello! I'm your virtual assistant. How can I help?",
	"I'm sorry, I don't fully understand. Could you rephrase that?",
	"That's an interesting question. Let me help you with it.",
}

// FixedSet returns one entry chosen uniformly at random from a small
// fixed list. It ignores history and never fails; used as the default
// strategy and as the delegated strategy's stand-in in tests.
type FixedSet struct {
	responses []string
}

// NewFixedSet creates a FixedSet strategy.
// Passing no responses uses the default set.
func NewFixedSet(responses ...string) *FixedSet {
	if len(responses) == 0 {
		responses = defaultResponses
	}
	return &FixedSet{responses: responses}
}

// Generate picks a random canned response.
func (s *FixedSet) Generate(_ context.Context, _ string, _ []*model.Message) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(s.responses))))
	if err != nil {
		return "", fmt.Errorf("pick response: %w", err)
	}
	return s.responses[n.Int64()], nil
}

// Responses exposes the canned set for membership checks in tests.
func (s *FixedSet) Responses() []string {
	return s.responses
}
