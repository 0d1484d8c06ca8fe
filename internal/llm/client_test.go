package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitwisdom/site-assistant/internal/config"
)

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, p)

	p, err = ParseProvider(" OpenAI ")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p)

	_, err = ParseProvider("cohere")
	assert.Error(t, err)
}

func TestNewClientRejectsPlaceholderKeys(t *testing.T) {
	for _, key := range []string{"", "your-gemini-api-key-here", "changeme"} {
		_, err := NewClient(Options{Provider: ProviderGemini, APIKey: key})
		assert.ErrorIs(t, err, ErrNotConfigured, key)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(Options{Provider: ProviderGemini, APIKey: "AIza-real"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Name())
	assert.Equal(t, DefaultGeminiModel, c.Model())

	c, err = NewClient(Options{Provider: ProviderOpenAI, APIKey: "sk-real"})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())
	assert.Equal(t, DefaultOpenAIModel, c.Model())

	_, err = NewOpenAIClient(Options{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	c, err = NewClient(Options{Provider: ProviderAnthropic, APIKey: "sk-ant-real"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Name())
	assert.Equal(t, DefaultAnthropicModel, c.Model())
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		LLMProvider:  "openai",
		OpenAIAPIKey: "sk-real",
		LLMModel:     "gpt-4o",
		LLMMaxTokens: 512,
	}
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, opts.Provider)
	assert.Equal(t, "sk-real", opts.APIKey)
	assert.Equal(t, 512, opts.MaxTokens)
}

func TestOpenAICompatibleComplete(t *testing.T) {
	var got struct {
		Model     string        `json:"model"`
		Messages  []ChatMessage `json:"messages"`
		MaxTokens int           `json:"max_tokens"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gemini-2.5-flash",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "We host validator nodes."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 6, "total_tokens": 48}
		}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{
		Provider:  ProviderGemini,
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		MaxTokens: 256,
	})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "What do you host?"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "We host validator nodes.", resp.Content)
	assert.Equal(t, 42, resp.TokensIn)
	assert.Equal(t, 6, resp.TokensOut)
	assert.Equal(t, "stop", resp.StopReason)

	assert.Equal(t, DefaultGeminiModel, got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "What do you host?", got.Messages[0].Content)
}

func TestOpenAICompatibleCompleteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded", "type": "rate_limit"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{Provider: ProviderOpenAI, APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	assert.Error(t, err)
}
