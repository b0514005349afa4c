package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the model provider.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for OpenAI-compatible endpoints
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig uses Gemini, which is what the feedback prompts are tuned on.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderGemini,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-2.5-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.5-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     8 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 45 * time.Second,
	}
}

// ConfigFromEnv overlays STUDYPOD_* variables on the defaults. The plain
// vendor variables (GEMINI_API_KEY and friends) are used as a fallback for
// keys so an existing shell setup works unchanged.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	vars := []struct {
		names []string
		dst   *string
	}{
		{[]string{"STUDYPOD_LLM_PROVIDER"}, &cfg.Provider},
		{[]string{"STUDYPOD_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}, &cfg.Gemini.APIKey},
		{[]string{"STUDYPOD_GEMINI_MODEL"}, &cfg.Gemini.Model},
		{[]string{"STUDYPOD_OPENAI_API_KEY", "OPENAI_API_KEY"}, &cfg.OpenAI.APIKey},
		{[]string{"STUDYPOD_OPENAI_MODEL"}, &cfg.OpenAI.Model},
		{[]string{"STUDYPOD_OPENAI_BASE_URL"}, &cfg.OpenAI.BaseURL},
		{[]string{"STUDYPOD_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"}, &cfg.Anthropic.APIKey},
		{[]string{"STUDYPOD_ANTHROPIC_MODEL"}, &cfg.Anthropic.Model},
		{[]string{"STUDYPOD_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"}, &cfg.OpenRouter.APIKey},
		{[]string{"STUDYPOD_OPENROUTER_MODEL"}, &cfg.OpenRouter.Model},
	}
	for _, v := range vars {
		for _, name := range v.names {
			if s := os.Getenv(name); s != "" {
				*v.dst = s
				break
			}
		}
	}

	if d, err := time.ParseDuration(os.Getenv("STUDYPOD_LLM_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	return cfg
}

// APIKey returns the key of the selected provider.
func (c Config) APIKey() string {
	switch c.Provider {
	case ProviderGemini:
		return c.Gemini.APIKey
	case ProviderOpenAI:
		return c.OpenAI.APIKey
	case ProviderAnthropic:
		return c.Anthropic.APIKey
	case ProviderOpenRouter:
		return c.OpenRouter.APIKey
	}
	return ""
}

// Validate reports an unknown provider or a missing key. The returned
// error wraps ErrNotConfigured for the latter.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter:
		if c.APIKey() == "" {
			return fmt.Errorf("%w: set STUDYPOD_%s_API_KEY", ErrNotConfigured, envName(c.Provider))
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}

func envName(provider string) string {
	b := []byte(provider)
	for i, ch := range b {
		if ch >= 'a' && ch <= 'z' {
			b[i] = ch - 'a' + 'A'
		}
	}
	return string(b)
}
