// Package llm provides completion clients for the supported providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitwisdom/site-assistant/internal/config"
)

// ErrNotConfigured is returned when the provider credential is missing or a
// template placeholder.
var ErrNotConfigured = errors.New("completion provider not configured")

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Model returns the model used when a request names none.
	Model() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ParseProvider maps a configured provider name to a Provider.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		return p, nil
	case "":
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("unknown completion provider %q", name)
	}
}

// Options configures a provider client.
type Options struct {
	Provider  Provider
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// OptionsFromConfig builds client options from application config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	provider, err := ParseProvider(cfg.LLMProvider)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Provider:  provider,
		APIKey:    cfg.CompletionAPIKey(),
		BaseURL:   cfg.LLMBaseURL,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   cfg.LLMTimeout,
	}, nil
}

// NewClient creates a new LLM client based on provider. It returns
// ErrNotConfigured when the credential is a placeholder.
func NewClient(opts Options) (Client, error) {
	if config.IsPlaceholder(opts.APIKey) {
		return nil, ErrNotConfigured
	}

	switch opts.Provider {
	case ProviderGemini:
		if opts.BaseURL == "" {
			opts.BaseURL = GeminiOpenAIBaseURL
		}
		if opts.Model == "" {
			opts.Model = DefaultGeminiModel
		}
		return newOpenAICompatible(string(ProviderGemini), opts), nil
	case ProviderOpenAI:
		return NewOpenAIClient(opts)
	case ProviderAnthropic:
		return NewAnthropicClient(opts)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", opts.Provider)
	}
}
