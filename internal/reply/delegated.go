package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/parley/parley/internal/model"
)

// Delegated client timeouts.
const (
	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 15 * time.Second
)

// ErrUpstream indicates the external generation service failed.
// Never surfaced to the end user; the Generator converts it to fallback text.
var ErrUpstream = errors.New("upstream generation failed")

// DelegatedConfig configures the external text-generation strategy.
type DelegatedConfig struct {
	// Endpoint is the chat-completions URL of the external service.
	Endpoint string
	// Model is the model identifier forwarded with each request.
	Model string
	// APIKey, when set, is sent as a bearer credential.
	APIKey string
	// Timeout bounds the whole call. Single attempt, no retry.
	Timeout time.Duration
}

// Delegated forwards the user message and recent history to an external
// chat-completions endpoint and returns its text verbatim.
type Delegated struct {
	cfg    DelegatedConfig
	client *http.Client
}

// NewDelegated creates a Delegated strategy with a tuned HTTP client.
func NewDelegated(cfg DelegatedConfig) *Delegated {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Delegated{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   tlsHandshakeTimeout,
				ResponseHeaderTimeout: responseHeaderTimeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// chatMessage is one turn in the upstream request payload.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest is the upstream chat-completions request body.
type completionRequest struct {
	Model    string        `json:"model,omitempty"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// completionResponse is the upstream chat-completions response body.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate forwards the message plus history to the external service.
// History is mapped oldest-first; the user message is appended last when
// the history does not already end with it.
func (s *Delegated) Generate(ctx context.Context, userMessage string, history []*model.Message) (string, error) {
	messages := make([]chatMessage, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	if len(messages) == 0 || messages[len(messages)-1].Content != userMessage {
		messages = append(messages, chatMessage{Role: string(model.RoleUser), Content: userMessage})
	}

	body, err := json.Marshal(completionRequest{
		Model:    s.cfg.Model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrUpstream, parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUpstream)
	}

	return parsed.Choices[0].Message.Content, nil
}
