// Package config loads service configuration from the environment, with an
// optional .env file for development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every knob the daemon and CLI read at startup. Empty
// DatabaseURL or RedisAddr disables the corresponding integration.
type Config struct {
	Addr string // HTTP listen address.

	DatabaseURL string // Postgres DSN; empty disables the result store.

	RedisAddr     string // Redis host:port; empty disables the historian.
	RedisPassword string
	RedisDB       int

	JWTSecret string // HS256 signing secret for session tokens.
	ViewSalt  string // Salt for per-viewer card-id remapping.

	OpenAIBase  string // Chat-completions base URL.
	OpenAIKey   string
	OpenAIModel string

	AITimeout      time.Duration // Deadline for a single chooser call; 0 disables it.
	FirstCandidate bool          // Take the first candidate instead of calling the chooser.
}

// Load reads a .env file if one exists, then the process environment.
// Missing keys fall back to defaults; callers decide which fields are
// required for their mode of operation.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:          Getenv("ADDR", ":8080"),
		DatabaseURL:   Getenv("DATABASE_URL", ""),
		RedisAddr:     Getenv("REDIS_ADDR", ""),
		RedisPassword: Getenv("REDIS_PASSWORD", ""),
		RedisDB:       AtoiDef(os.Getenv("REDIS_DB"), 0),

		JWTSecret: Getenv("JWT_SECRET", ""),
		ViewSalt:  Getenv("VIEW_SALT", ""),

		OpenAIBase:  Getenv("OPENAI_API_BASE", "https://api.openai.com/v1"),
		OpenAIKey:   Getenv("OPENAI_API_KEY", ""),
		OpenAIModel: Getenv("OPENAI_MODEL", "gpt-4o-mini"),

		AITimeout:      time.Duration(AtoiDef(os.Getenv("AI_TIMEOUT_SEC"), 30)) * time.Second,
		FirstCandidate: AsBool(os.Getenv("AI_FIRST_CANDIDATE")),
	}
}

// Getenv returns the value of k, or def when unset or empty.
func Getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// AtoiDef parses s as an int, falling back to def on empty or bad input.
func AtoiDef(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// AsBool reports whether s spells an affirmative value.
func AsBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
