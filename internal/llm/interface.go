// Package llm defines the chat abstraction used to summarize analysis reports.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/newthinker/finscope/internal/core"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider defines the interface for LLM providers
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest holds the request parameters
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	JSONMode     bool
}

// Message represents a chat message
type Message struct {
	Role    string // RoleUser or RoleAssistant
	Content string
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// DefaultMaxTokens applies when a request leaves MaxTokens unset.
const DefaultMaxTokens = 1024

// Complete sends a single-turn prompt and returns the trimmed reply.
// An empty reply is reported as ErrLLMFailed.
func Complete(ctx context.Context, p Provider, system, prompt string, maxTokens int) (string, error) {
	resp, err := p.Chat(ctx, ChatRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:    maxTokens,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", core.WrapError(core.ErrLLMFailed, errors.New(p.Name()+" returned an empty reply"))
	}
	return text, nil
}

// Failed wraps a provider error as ErrLLMFailed.
func Failed(provider string, err error) error {
	e := core.WrapError(core.ErrLLMFailed, err)
	e.Message = provider + " request failed"
	return e
}
