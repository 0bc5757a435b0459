package gemini

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{Model: "model"})
	assert.True(t, errors.Is(err, core.ErrConfigMissing))
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New(context.Background(), Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.model)
	assert.Equal(t, "gemini", p.Name())
}

func TestChat(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/"+DefaultModel+":generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "AAPL trades "}, {"text": "near its highs."}]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 42, "candidatesTokenCount": 7}
		}`))
	}))
	defer server.Close()

	p, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		SystemPrompt: "You are an equity analyst.",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "Summarize AAPL"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "AAPL trades near its highs.", resp.Content)
	assert.Equal(t, 42, resp.Usage.InputTokens)
	assert.Equal(t, 7, resp.Usage.OutputTokens)
	assert.Equal(t, "STOP", resp.FinishReason)

	contents, _ := got["contents"].([]any)
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].(map[string]any)["role"])
	assert.NotNil(t, got["systemInstruction"])
	genCfg, _ := got["generationConfig"].(map[string]any)
	assert.Equal(t, float64(llm.DefaultMaxTokens), genCfg["maxOutputTokens"])
}

func TestChat_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	p, err := New(context.Background(), Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	assert.True(t, errors.Is(err, core.ErrLLMFailed))
}
