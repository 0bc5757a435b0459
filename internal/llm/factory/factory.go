// Package factory builds the configured llm.Provider.
package factory

import (
	"context"
	"fmt"

	"github.com/newthinker/finscope/internal/config"
	"github.com/newthinker/finscope/internal/core"
	"github.com/newthinker/finscope/internal/llm"
	"github.com/newthinker/finscope/internal/llm/claude"
	"github.com/newthinker/finscope/internal/llm/gemini"
	"github.com/newthinker/finscope/internal/llm/ollama"
	"github.com/newthinker/finscope/internal/llm/openai"
)

// New creates an LLM provider based on configuration.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(claude.Config{APIKey: cfg.Claude.APIKey, Model: cfg.Claude.Model})
	case "openai":
		return openai.New(openai.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, BaseURL: cfg.OpenAI.BaseURL})
	case "gemini":
		return gemini.New(context.Background(), gemini.Config{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model})
	case "ollama":
		return ollama.New(ollama.Config{Endpoint: cfg.Ollama.Endpoint, Model: cfg.Ollama.Model})
	case "":
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("llm.provider not set"))
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown LLM provider: %s", cfg.Provider))
	}
}
