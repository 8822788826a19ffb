package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerPort string
	ChatTitle  string
	Session    SessionConfig
	Logging    LoggingConfig
	OpenAI     OpenAIConfig
}

type SessionConfig struct {
	Secret        string
	TTL           time.Duration
	PruneInterval time.Duration
	CookieName    string
	SecureCookie  bool
}

type LoggingConfig struct {
	Level        string
	Encoding     string
	Development  bool
	EnableCaller bool
	ServiceName  string
}

// OpenAIConfig describes the OpenAI-compatible completion endpoint.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-3.5-turbo"
)

func (o OpenAIConfig) ResolvedBaseURL() string {
	base := strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if base == "" {
		return defaultOpenAIBaseURL
	}
	return base
}

func (o OpenAIConfig) ResolvedModel() string {
	if model := strings.TrimSpace(o.Model); model != "" {
		return model
	}
	return defaultOpenAIModel
}

func LoadConfig() (*Config, error) {
	logging := LoggingConfig{
		Level:        strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		Encoding:     strings.ToLower(envOrDefault("LOG_ENCODING", "console")),
		Development:  parseBool(envOrDefault("LOG_DEVELOPMENT", "false"), false),
		EnableCaller: parseBool(envOrDefault("LOG_CALLER", "false"), false),
		ServiceName:  envOrDefault("SERVICE_NAME", "flexchat"),
	}

	cfg := &Config{
		ServerPort: envOrDefault("PORT", "8080"),
		ChatTitle:  envOrDefault("CHAT_TITLE", "Flexible Chatbot Framework"),
		Session: SessionConfig{
			Secret:        envOrDefault("SESSION_SECRET", "dev-secret"),
			TTL:           parseDuration(envOrDefault("SESSION_TTL", "24h"), 24*time.Hour),
			PruneInterval: parseDuration(envOrDefault("SESSION_PRUNE_INTERVAL", "10m"), 10*time.Minute),
			CookieName:    envOrDefault("SESSION_COOKIE", "flexchat_session"),
			SecureCookie:  parseBool(envOrDefault("SESSION_SECURE_COOKIE", "false"), false),
		},
		Logging: logging,
		OpenAI: OpenAIConfig{
			APIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			BaseURL:      envOrDefault("OPENAI_BASE_URL", defaultOpenAIBaseURL),
			Model:        envOrDefault("OPENAI_MODEL", defaultOpenAIModel),
			SystemPrompt: strings.TrimSpace(os.Getenv("OPENAI_SYSTEM_PROMPT")),
		},
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}
