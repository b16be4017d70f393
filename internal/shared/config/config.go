package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SettingsFromEnv = "env"
	SettingsFromDB  = "db"
)

// Config holds application configuration.
type Config struct {
	Env         string
	DatabaseURL string
	LogLevel    string
	MetricsAddr string

	LLMProvider   string
	LLMModel      string
	LLMAPIKey     string
	LLMTimeout    time.Duration
	LLMMaxRetries int
	// SettingsSource selects where LLM settings are read from: env or db.
	SettingsSource string

	ProfileWindowDays      int
	HighlightMinConfidence int
	GrowthMinConfidence    int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	provider := strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "openai")))
	return Config{
		Env:                    env,
		DatabaseURL:            dbURL,
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		MetricsAddr:            os.Getenv("METRICS_ADDR"),
		LLMProvider:            provider,
		LLMModel:               getEnv("LLM_MODEL", ""),
		LLMAPIKey:              getEnv("LLM_API_KEY", providerKey(provider)),
		LLMTimeout:             time.Duration(getInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		LLMMaxRetries:          getInt("LLM_MAX_RETRIES", 3),
		SettingsSource:         normalizeSettingsSource(getEnv("SETTINGS_SOURCE", SettingsFromEnv)),
		ProfileWindowDays:      getInt("PROFILE_WINDOW_DAYS", 180),
		HighlightMinConfidence: getInt("HIGHLIGHT_MIN_CONFIDENCE", 70),
		GrowthMinConfidence:    getInt("GROWTH_MIN_CONFIDENCE", 70),
	}
}

// providerKey returns the provider-specific API key variable, if set.
func providerKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "gemini", "google":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return ""
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return n
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeSettingsSource(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "db", "database", "postgres":
		return SettingsFromDB
	default:
		return SettingsFromEnv
	}
}
