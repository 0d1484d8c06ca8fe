// Package config provides environment configuration for the site assistant.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	CORSAllowedOrigins []string

	// MongoDB settings
	MongoURI      string
	MongoDatabase string

	// Completion provider settings
	LLMProvider     string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	LLMBaseURL      string
	LLMModel        string
	LLMMaxTokens    int
	LLMTimeout      time.Duration

	// JWT settings
	JWTSecret string

	// Rate limiting
	ChatRateLimitRequests  int
	ChatRateLimitWindow    time.Duration
	AdminRateLimitRequests int
	AdminRateLimitWindow   time.Duration

	// Crawler
	CrawlUserAgent string
	CrawlDelay     time.Duration
	CrawlTimeout   time.Duration
	CrawlMaxPages  int
	CrawlBaseURL   string
	CrawlSchedule  string

	// NATS settings
	NATSEnabled  bool
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "5000"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS"),

		// MongoDB
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017/bitwisdom"),
		MongoDatabase: getEnv("MONGODB_DATABASE", ""),

		// Completion provider
		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		LLMBaseURL:      getEnv("LLM_BASE_URL", ""),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMMaxTokens:    getIntEnv("LLM_MAX_TOKENS", 1024),
		LLMTimeout:      getDurationEnv("LLM_TIMEOUT", 20*time.Second),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Rate limiting
		ChatRateLimitRequests:  getIntEnv("CHAT_RATE_LIMIT_REQUESTS", 30),
		ChatRateLimitWindow:    getDurationEnv("CHAT_RATE_LIMIT_WINDOW", time.Minute),
		AdminRateLimitRequests: getIntEnv("ADMIN_RATE_LIMIT_REQUESTS", 60),
		AdminRateLimitWindow:   getDurationEnv("ADMIN_RATE_LIMIT_WINDOW", time.Minute),

		// Crawler
		CrawlUserAgent: getEnv("CRAWL_USER_AGENT", "BitWisdom-Bot/1.0"),
		CrawlDelay:     getDurationEnv("CRAWL_DELAY", 500*time.Millisecond),
		CrawlTimeout:   getDurationEnv("CRAWL_TIMEOUT", 10*time.Second),
		CrawlMaxPages:  getIntEnv("CRAWL_MAX_PAGES", 50),
		CrawlBaseURL:   getEnv("CRAWL_BASE_URL", ""),
		CrawlSchedule:  getEnv("CRAWL_SCHEDULE", ""),

		// NATS
		NATSEnabled:  getBoolEnv("NATS_ENABLED", false),
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// CompletionAPIKey returns the credential for the selected provider.
func (c *Config) CompletionAPIKey() string {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// CompletionConfigured reports whether the selected provider has a real
// credential.
func (c *Config) CompletionConfigured() bool {
	return !IsPlaceholder(c.CompletionAPIKey())
}

// IsPlaceholder reports whether a credential is missing or an obvious
// template value such as "your-gemini-api-key-here".
func IsPlaceholder(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "", v == "changeme":
		return true
	case strings.HasPrefix(v, "your-"), strings.HasPrefix(v, "your_"):
		return true
	case strings.Contains(v, "api-key-here"), strings.Contains(v, "api_key_here"):
		return true
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping empty items.
func getListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
