// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port          string
	PublicURL     string
	DefaultUserID string
	LogLevel      slog.Level
	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string

	GitHub    GitHubConfig
	LLM       LLMConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Timeout   TimeoutConfig

	// GRPCHealthPort enables the gRPC health service when non-empty.
	GRPCHealthPort string
}

// GitHubConfig holds OAuth app credentials and the API endpoint.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	APIURL       string // empty means api.github.com
	StateTTL     time.Duration
}

// LLMConfig selects the intent resolver.
type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// SessionConfig selects the session backend.
type SessionConfig struct {
	Store  string
	DBPath string
}

// RateLimitConfig bounds chat requests per user.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// TimeoutConfig bounds calls to external services.
type TimeoutConfig struct {
	Oracle   time.Duration
	Platform time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	port := getEnv("PORT", "5000")
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "gemini"))

	cfg := &Config{
		Port:          port,
		PublicURL:     strings.TrimRight(getEnv("PUBLIC_URL", "http://127.0.0.1:"+port), "/"),
		DefaultUserID: getEnv("DEFAULT_USER_ID", "main_user"),
		LogLevel:      getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		CORSOrigins:   getEnvList("CORS_ORIGINS"),
		GitHub: GitHubConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			APIURL:       getEnv("GITHUB_API_URL", ""),
			StateTTL:     getEnvDuration("OAUTH_STATE_TTL", 10*time.Minute),
		},
		LLM: LLMConfig{
			Provider: provider,
			APIKey:   llmKey(provider),
			Model:    getEnv("LLM_MODEL", ""),
			BaseURL:  getEnv("OPENAI_BASE_URL", ""),
		},
		Session: SessionConfig{
			Store:  strings.ToLower(getEnv("SESSION_STORE", "memory")),
			DBPath: getEnv("DB_PATH", "./data/sessions.db"),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Timeout: TimeoutConfig{
			Oracle:   getEnvDuration("ORACLE_TIMEOUT", 30*time.Second),
			Platform: getEnvDuration("PLATFORM_TIMEOUT", 30*time.Second),
		},
		GRPCHealthPort: getEnv("GRPC_HEALTH_PORT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.LLM.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("LLM_PROVIDER must be gemini, openai or anthropic, got %q", c.LLM.Provider)
	}
	switch c.Session.Store {
	case "memory":
	case "sqlite":
		if c.Session.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty when SESSION_STORE=sqlite")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be memory or sqlite, got %q", c.Session.Store)
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	return nil
}

// OAuthConfigured reports whether GitHub login can be offered.
func (c *Config) OAuthConfigured() bool {
	return c.GitHub.ClientID != "" && c.GitHub.ClientSecret != ""
}

// CallbackURL is the OAuth redirect URL registered with the GitHub app.
func (c *Config) CallbackURL() string {
	return c.PublicURL + "/callback"
}

// llmKey picks the API key variable for provider. Gemini also accepts
// GOOGLE_API_KEY.
func llmKey(provider string) string {
	switch provider {
	case "openai":
		return getEnv("OPENAI_API_KEY", "")
	case "anthropic":
		return getEnv("ANTHROPIC_API_KEY", "")
	default:
		return getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", ""))
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}
