package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures a provider.
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

// OpenAIConfig also serves any OpenAI-compatible endpoint through BaseURL.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
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

// RetryConfig is the backoff schedule for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the defaults. Drafting a lesson produces a few
// kilobytes of JSON, so the timeout is generous.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.5-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 90 * time.Second,
	}
}

// envVar names the COURSIZ_ variable for a provider setting.
func envVar(provider, field string) string {
	return "COURSIZ_" + strings.ToUpper(provider) + "_" + field
}

// ConfigFromEnv reads COURSIZ_LLM_PROVIDER and the per-provider
// COURSIZ_<PROVIDER>_API_KEY, _MODEL and _BASE_URL variables. When no
// provider is named it falls back to DiscoverConfig.
func ConfigFromEnv() Config {
	return configFromLookup(os.Getenv)
}

func configFromLookup(getenv func(string) string) Config {
	cfg := DefaultConfig()
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	p := getenv("COURSIZ_LLM_PROVIDER")
	if p == "" {
		if found, ok := discover(getenv); ok {
			cfg = found
		}
	} else {
		cfg.Provider = p
	}

	set(&cfg.Anthropic.APIKey, envVar(ProviderAnthropic, "API_KEY"))
	set(&cfg.Anthropic.Model, envVar(ProviderAnthropic, "MODEL"))
	set(&cfg.OpenAI.APIKey, envVar(ProviderOpenAI, "API_KEY"))
	set(&cfg.OpenAI.Model, envVar(ProviderOpenAI, "MODEL"))
	set(&cfg.OpenAI.BaseURL, envVar(ProviderOpenAI, "BASE_URL"))
	set(&cfg.Gemini.APIKey, envVar(ProviderGemini, "API_KEY"))
	set(&cfg.Gemini.Model, envVar(ProviderGemini, "MODEL"))
	set(&cfg.OpenRouter.APIKey, envVar(ProviderOpenRouter, "API_KEY"))
	set(&cfg.OpenRouter.Model, envVar(ProviderOpenRouter, "MODEL"))
	set(&cfg.OpenRouter.BaseURL, envVar(ProviderOpenRouter, "BASE_URL"))

	if v := getenv("COURSIZ_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

// DiscoverConfig picks the first provider whose vendor API key variable
// is set, in the order Anthropic, OpenAI, Gemini, OpenRouter.
func DiscoverConfig() (Config, bool) {
	return discover(os.Getenv)
}

func discover(getenv func(string) string) (Config, bool) {
	cfg := DefaultConfig()
	switch {
	case getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = getenv("ANTHROPIC_API_KEY")
	case getenv("OPENAI_API_KEY") != "":
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = getenv("OPENAI_API_KEY")
	case getenv("GEMINI_API_KEY") != "":
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = getenv("GEMINI_API_KEY")
	case getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = getenv("OPENROUTER_API_KEY")
	default:
		return Config{}, false
	}
	return cfg, true
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderOpenRouter:
		key = c.OpenRouter.APIKey
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", envVar(c.Provider, "API_KEY"), c.Provider)
	}
	return nil
}
