package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newthinker/finscope/internal/core"
	"github.com/newthinker/finscope/internal/llm"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_Defaults(t *testing.T) {
	p, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.endpoint != DefaultEndpoint {
		t.Errorf("expected default endpoint %s, got %s", DefaultEndpoint, p.endpoint)
	}
	if p.model != DefaultModel {
		t.Errorf("expected default model %s, got %s", DefaultModel, p.model)
	}
	if p.client.Timeout != defaultTimeout {
		t.Errorf("expected default timeout, got %s", p.client.Timeout)
	}
}

func TestNew_CustomValues(t *testing.T) {
	p, err := New(Config{Endpoint: "http://custom:8080/", Model: "qwen2.5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.endpoint != "http://custom:8080" {
		t.Errorf("expected trailing slash trimmed, got %s", p.endpoint)
	}
	if p.model != "qwen2.5" {
		t.Errorf("expected custom model, got %s", p.model)
	}
}

func TestChat(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"Steady."},"done":true,"done_reason":"stop","prompt_eval_count":12,"eval_count":3}`))
	}))
	defer server.Close()

	p, _ := New(Config{Endpoint: server.URL})
	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		SystemPrompt: "be brief",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "IBM?"}},
		JSONMode:     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != "Steady." || resp.FinishReason != "stop" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 3 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}
	if got.Stream {
		t.Error("expected non-streaming request")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("expected system prompt first, got %+v", got.Messages)
	}
	if got.Format != "json" {
		t.Errorf("expected json format, got %q", got.Format)
	}
	if got.Options.NumPredict != llm.DefaultMaxTokens {
		t.Errorf("expected default num_predict, got %d", got.Options.NumPredict)
	}
}

func TestChat_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"llama3\" not found"}`))
	}))
	defer server.Close()

	p, _ := New(Config{Endpoint: server.URL})
	_, err := p.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
	if !errors.Is(err, core.ErrLLMFailed) {
		t.Fatalf("expected LLM_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected upstream message in error, got %v", err)
	}
}
