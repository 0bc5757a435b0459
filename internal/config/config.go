package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/newthinker/finscope/internal/core"
	"github.com/spf13/viper"
)

// Environment variables consulted when a credential is left empty in the file.
const (
	EnvTwelveDataKey   = "TWELVE_DATA_API_KEY"
	EnvAlphaVantageKey = "ALPHA_VANTAGE_API_KEY"
	EnvAnthropicKey    = "ANTHROPIC_API_KEY"
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvGeminiKey       = "GEMINI_API_KEY"
	EnvGoogleKey       = "GOOGLE_API_KEY"
	EnvRedisPassword   = "REDIS_PASSWORD"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	MCP       MCPConfig       `mapstructure:"mcp"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	APIKey          string        `mapstructure:"api_key"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ProvidersConfig holds one section per upstream.
type ProvidersConfig struct {
	TwelveData   ProviderConfig `mapstructure:"twelvedata"`
	Yahoo        YahooConfig    `mapstructure:"yahoo"`
	AlphaVantage ProviderConfig `mapstructure:"alphavantage"`
}

// ProviderConfig holds the settings shared by every adapter.
type ProviderConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
}

// YahooConfig adds the optional session crumb Yahoo may demand.
type YahooConfig struct {
	ProviderConfig `mapstructure:",squash"`
	UserAgent      string `mapstructure:"user_agent"`
	Crumb          string `mapstructure:"crumb"`
	Cookie         string `mapstructure:"cookie"`
}

// RoutingConfig overrides the facade decision table.
// Keys are operation names, values ordered provider names.
type RoutingConfig struct {
	Routes   map[string][]string `mapstructure:"routes"`
	Fallback bool                `mapstructure:"fallback"`
}

type AnalysisConfig struct {
	HistoryBars int           `mapstructure:"history_bars"`
	Interval    string        `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type MCPConfig struct {
	Name           string        `mapstructure:"name"`
	Transport      string        `mapstructure:"transport"` // "stdio" or "http"
	Addr           string        `mapstructure:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// CacheConfig enables the Redis response cache.
// TTL keys are operation names; a negative value disables caching for it.
type CacheConfig struct {
	Enabled   bool                     `mapstructure:"enabled"`
	Addr      string                   `mapstructure:"addr"`
	Password  string                   `mapstructure:"password"`
	DB        int                      `mapstructure:"db"`
	Namespace string                   `mapstructure:"namespace"`
	TTL       map[string]time.Duration `mapstructure:"ttl"`
}

// Load reads configuration from file on top of Defaults.
// An empty path yields the defaults plus environment fallbacks.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)

		// Support environment variable overrides
		v.SetEnvPrefix("FINSCOPE")
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		if err := v.ReadInConfig(); err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("reading config: %w", err))
		}

		// Expand environment variables in string values
		for _, key := range v.AllKeys() {
			val := v.GetString(key)
			if strings.Contains(val, "${") {
				v.Set(key, os.ExpandEnv(val))
			}
		}

		if err := v.Unmarshal(cfg); err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
		}
	}

	cfg.applyEnvFallbacks()
	return cfg, nil
}

func (c *Config) applyEnvFallbacks() {
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&c.Providers.TwelveData.APIKey, EnvTwelveDataKey)
	fill(&c.Providers.AlphaVantage.APIKey, EnvAlphaVantageKey)
	fill(&c.LLM.Claude.APIKey, EnvAnthropicKey)
	fill(&c.LLM.OpenAI.APIKey, EnvOpenAIKey)
	fill(&c.LLM.Gemini.APIKey, EnvGeminiKey)
	fill(&c.LLM.Gemini.APIKey, EnvGoogleKey)
	fill(&c.Cache.Password, EnvRedisPassword)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Providers: ProvidersConfig{
			TwelveData:   ProviderConfig{Enabled: true, Timeout: 10 * time.Second},
			Yahoo:        YahooConfig{ProviderConfig: ProviderConfig{Enabled: true, Timeout: 10 * time.Second}},
			AlphaVantage: ProviderConfig{Enabled: true, Timeout: 10 * time.Second},
		},
		Analysis: AnalysisConfig{
			HistoryBars: 30,
			Interval:    "1day",
			Timeout:     30 * time.Second,
		},
		MCP: MCPConfig{
			Name:           "finscope",
			Transport:      "stdio",
			Addr:           ":8090",
			RequestTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			Claude: ClaudeConfig{Model: "claude-sonnet-4-5"},
			OpenAI: OpenAIConfig{Model: "gpt-4o-mini"},
			Ollama: OllamaConfig{Endpoint: "http://localhost:11434", Model: "llama3"},
			Gemini: GeminiConfig{Model: "gemini-2.5-flash"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Cache: CacheConfig{
			Addr:      "localhost:6379",
			Namespace: "finscope",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Provider validation
	for name, p := range map[string]ProviderConfig{
		"twelvedata":   c.Providers.TwelveData,
		"yahoo":        c.Providers.Yahoo.ProviderConfig,
		"alphavantage": c.Providers.AlphaVantage,
	} {
		if p.Timeout < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("providers.%s.timeout cannot be negative, got %s", name, p.Timeout))
		}
		if p.RateLimit < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("providers.%s.rate_limit cannot be negative, got %v", name, p.RateLimit))
		}
	}

	// Routing validation
	for op, providers := range c.Routing.Routes {
		if !slices.Contains(core.Operations(), core.Operation(op)) {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("routing: unknown operation %q", op))
		}
		if len(providers) == 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("routing: operation %q has no providers", op))
		}
		for _, p := range providers {
			if !slices.Contains(core.Providers(), core.Provider(strings.ToLower(p))) {
				return core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("routing: unknown provider %q for %s", p, op))
			}
		}
	}

	if c.Analysis.HistoryBars < 1 || c.Analysis.HistoryBars > 5000 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("analysis.history_bars must be between 1 and 5000, got %d", c.Analysis.HistoryBars))
	}

	switch c.MCP.Transport {
	case "", "stdio", "http":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("mcp.transport must be stdio or http, got %q", c.MCP.Transport))
	}

	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("cache.addr required when cache is enabled"))
		}
		if c.Cache.DB < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("cache.db cannot be negative, got %d", c.Cache.DB))
		}
		for op := range c.Cache.TTL {
			if !slices.Contains(core.Operations(), core.Operation(op)) {
				return core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("cache.ttl: unknown operation %q", op))
			}
		}
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "gemini":
			if c.LLM.Gemini.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("gemini api_key required when provider is gemini"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
		}
	}

	return nil
}
