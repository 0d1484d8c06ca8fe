package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsPlaceholder(t *testing.T) {
	cases := map[string]bool{
		"":                           true,
		"   ":                        true,
		"your-gemini-api-key-here":   true,
		"YOUR_OPENAI_KEY":            true,
		"changeme":                   true,
		"sk-api-key-here":            true,
		"AIzaSyD-real-looking-value": false,
		"sk-ant-api03-abc":           false,
	}
	for value, want := range cases {
		assert.Equal(t, want, IsPlaceholder(value), "value %q", value)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CRAWL_DELAY", "")

	cfg := Load()

	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, 500*time.Millisecond, cfg.CrawlDelay)
	assert.Equal(t, 50, cfg.CrawlMaxPages)
	assert.False(t, cfg.CompletionConfigured())
}

func TestCompletionAPIKeyFollowsProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("GEMINI_API_KEY", "your-gemini-api-key-here")

	cfg := Load()

	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, "sk-ant-test", cfg.CompletionAPIKey())
	assert.True(t, cfg.CompletionConfigured())
}

func TestDurationEnvFallsBackOnGarbage(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 20*time.Second, cfg.LLMTimeout)
}

func TestListEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://bitwisdom.io, ,https://www.bitwisdom.io ")
	cfg := Load()
	assert.Equal(t, []string{"https://bitwisdom.io", "https://www.bitwisdom.io"}, cfg.CORSAllowedOrigins)
}
