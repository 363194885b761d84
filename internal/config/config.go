package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr string

	DatabaseURL string
	RedisURL    string

	LeaderboardCacheTTL time.Duration

	GeminiDisabled bool
	GeminiAPIKey   string
	GeminiBaseURL  string
	GeminiModel    string
	GeminiTimeout  time.Duration

	// JWTSecret verifies bearer tokens. Empty means the X-User-Id header is
	// trusted as identity (local development only).
	JWTSecret string

	ChatRatePerMin   int
	ChatHistoryLimit int

	MessagesDir string

	LogLevel  string
	LogFormat string
	LogFile   string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:            ":8080",
		LeaderboardCacheTTL: 15 * time.Second,
		GeminiBaseURL:       "https://generativelanguage.googleapis.com/v1beta",
		GeminiModel:         "gemini-2.0-flash-exp",
		GeminiTimeout:       20 * time.Second,
		ChatRatePerMin:      20,
		ChatHistoryLimit:    40,
		LogLevel:            "info",
		LogFormat:           "json",
	}

	if v := env("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.DatabaseURL = env("DATABASE_URL")
	cfg.RedisURL = env("REDIS_URL")
	if n, ok := positiveInt("LEADERBOARD_CACHE_TTL_SEC"); ok {
		cfg.LeaderboardCacheTTL = time.Duration(n) * time.Second
	}

	if v := env("GEMINI_DISABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.GeminiDisabled = b
		}
	}
	cfg.GeminiAPIKey = env("GEMINI_API_KEY")
	if v := env("GEMINI_BASE_URL"); v != "" {
		cfg.GeminiBaseURL = strings.TrimRight(v, "/")
	}
	if v := env("GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = v
	}
	if n, ok := positiveInt("GEMINI_TIMEOUT_SEC"); ok {
		cfg.GeminiTimeout = time.Duration(n) * time.Second
	}

	cfg.JWTSecret = env("JWT_SECRET")

	if n, ok := positiveInt("CHAT_RATE_PER_MIN"); ok {
		cfg.ChatRatePerMin = n
	}
	if n, ok := positiveInt("CHAT_HISTORY_LIMIT"); ok {
		cfg.ChatHistoryLimit = n
	}
	cfg.MessagesDir = env("MESSAGES_DIR")

	if v := env("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	cfg.LogFile = env("LOG_FILE")

	if !cfg.GeminiDisabled && cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required (or set GEMINI_DISABLED=true)")
	}
	return cfg, nil
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func positiveInt(key string) (int, bool) {
	v := env(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
