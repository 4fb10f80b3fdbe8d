package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	YouTube  YouTubeConfig
	API      APIConfig
	Download DownloadConfig
	History  HistoryConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type YouTubeConfig struct {
	// APIKey authenticates calls to the YouTube Data API. An empty key is
	// not a startup failure: the extraction-only paths keep working and the
	// health endpoint reports the key as missing.
	APIKey  string
	BaseURL string
}

type APIConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type DownloadConfig struct {
	// ExtractTimeout bounds the stream-resolution call, not the byte relay.
	ExtractTimeout time.Duration
}

type HistoryConfig struct {
	Driver   string // "memory" or "postgres"
	Postgres PostgresConfig
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Timeout  time.Duration
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("PORT", "3001")
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	// YouTube Data API configuration
	cfg.YouTube.APIKey = getEnv("YOUTUBE_API_KEY", "")
	cfg.YouTube.BaseURL = getEnv("YOUTUBE_API_BASE_URL", "https://www.googleapis.com/youtube/v3")

	// API configuration
	cfg.API.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", 100)
	rateLimitWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}
	cfg.API.RateLimitWindow = rateLimitWindow

	// Download configuration
	extractTimeout, err := time.ParseDuration(getEnv("EXTRACT_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXTRACT_TIMEOUT: %w", err)
	}
	cfg.Download.ExtractTimeout = extractTimeout

	// History configuration
	cfg.History.Driver = getEnv("HISTORY_DRIVER", "memory")
	if cfg.History.Driver != "memory" && cfg.History.Driver != "postgres" {
		return nil, fmt.Errorf("invalid HISTORY_DRIVER: %s", cfg.History.Driver)
	}
	cfg.History.Postgres.Host = getEnv("POSTGRES_HOST", "localhost")
	cfg.History.Postgres.Port = getEnvInt("POSTGRES_PORT", 5432)
	cfg.History.Postgres.User = getEnv("POSTGRES_USER", "ytgrab")
	cfg.History.Postgres.Password = getEnv("POSTGRES_PASSWORD", "")
	cfg.History.Postgres.Database = getEnv("POSTGRES_DATABASE", "ytgrab")
	cfg.History.Postgres.SSLMode = getEnv("POSTGRES_SSLMODE", "disable")
	pgTimeout, err := time.ParseDuration(getEnv("POSTGRES_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_TIMEOUT: %w", err)
	}
	cfg.History.Postgres.Timeout = pgTimeout

	// CORS configuration
	cfg.CORS = loadCORSConfig()

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

func loadCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled: getEnvBool("CORS_ENABLED", true),
		AllowedOrigins: getEnvStringSlice("CORS_ORIGIN", []string{
			"http://localhost:5173",
		}),
		AllowedMethods: getEnvStringSlice("CORS_ALLOWED_METHODS", []string{
			"GET", "POST", "OPTIONS",
		}),
		AllowedHeaders: getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{
			"Origin", "Content-Type", "Accept", "X-Correlation-ID",
		}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
	}
}
