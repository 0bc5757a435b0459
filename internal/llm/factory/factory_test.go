package factory

import (
	"errors"
	"testing"

	"github.com/newthinker/finscope/internal/config"
	"github.com/newthinker/finscope/internal/core"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
		want string
	}{
		{
			name: "claude",
			cfg:  config.LLMConfig{Provider: "claude", Claude: config.ClaudeConfig{APIKey: "test-key"}},
			want: "claude",
		},
		{
			name: "openai",
			cfg:  config.LLMConfig{Provider: "openai", OpenAI: config.OpenAIConfig{APIKey: "test-key", Model: "gpt-4o"}},
			want: "openai",
		},
		{
			name: "gemini",
			cfg:  config.LLMConfig{Provider: "gemini", Gemini: config.GeminiConfig{APIKey: "test-key"}},
			want: "gemini",
		},
		{
			name: "ollama",
			cfg:  config.LLMConfig{Provider: "ollama", Ollama: config.OllamaConfig{Endpoint: "http://localhost:11434", Model: "llama3"}},
			want: "ollama",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("expected %s provider, got %s", tt.want, p.Name())
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
		want *core.Error
	}{
		{"unknown provider", config.LLMConfig{Provider: "unknown"}, core.ErrConfigInvalid},
		{"unset provider", config.LLMConfig{}, core.ErrConfigMissing},
		{"claude missing key", config.LLMConfig{Provider: "claude"}, core.ErrConfigMissing},
		{"openai missing key", config.LLMConfig{Provider: "openai"}, core.ErrConfigMissing},
		{"gemini missing key", config.LLMConfig{Provider: "gemini"}, core.ErrConfigMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %s, got %v", tt.want.Code, err)
			}
		})
	}
}
