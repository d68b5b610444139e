package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration for the exam client and the
// development backend. Each binary reads only the fields it needs.
type Config struct {
	LogLevel  string
	LogFormat string

	// ─── Exam client ───────────────────────────────────────────────────
	APIBaseURL     string
	APIToken       string
	APIRateLimit   float64
	RequestTimeout time.Duration
	TickInterval   time.Duration

	// ─── Development backend ───────────────────────────────────────────
	ServerPort  string
	GinMode     string
	RedisURL    string
	JWTSecret   string
	JWTExpiry   time.Duration
	BcryptCost  int
	FixturePath string
	// AuthRateLimit is the number of login requests allowed per minute per IP.
	AuthRateLimit int
	// AllowedOrigins controls HTTP CORS for the development backend.
	// Empty slice means all origins are permitted.
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080/api/v1"), "/"),
		APIToken:       getEnv("API_TOKEN", ""),
		APIRateLimit:   float64(getEnvInt("API_RATE_LIMIT", 10)),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		TickInterval:   time.Duration(getEnvInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:      getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:      time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		BcryptCost:     getEnvInt("BCRYPT_COST", 6),
		FixturePath:    getEnv("FIXTURE_PATH", "./fixtures/exams.json"),
		AuthRateLimit:  getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
