package common

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Domain        string
	SqliteDb      string
	DatabaseURL   string
	SessionSecret string
	JWTSecret     string
	SessionTTL    time.Duration
	LogLevel      string
	LogFormat     string
	Gemini        GeminiConfig
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Load reads the optional .env files and then the process environment.
// Values already present in the environment win over the files.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else {
		for _, f := range envFiles {
			if f != "" {
				_ = godotenv.Load(f)
			}
		}
	}

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		Domain:        strings.TrimSuffix(getEnv("DOMAIN", "http://localhost:8080"), "/"),
		SqliteDb:      getEnv("sqlite_db", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		SessionTTL:    getDuration("SESSION_TTL", 7*24*time.Hour),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),
			BaseURL: strings.TrimSuffix(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"), "/"),
		},
	}

	// The JWT secret falls back to the session secret so a single-secret
	// deployment keeps working.
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.SessionSecret
	}

	return cfg
}

// DSN returns the database location, preferring DATABASE_URL.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.SqliteDb
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
