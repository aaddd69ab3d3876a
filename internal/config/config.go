// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config is the full application configuration, populated once at startup.
type Config struct {
	// Env is "development" or "production".
	Env string

	// Port is the HTTP listen port.
	Port int

	// BaseURL is the public URL used when building photo links.
	BaseURL string

	// LogLevel is "debug", "info", "warn", or "error".
	LogLevel string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Upload   UploadConfig
	AI       AIConfig
	Geo      GeoConfig
}

// DatabaseConfig holds MariaDB connection parameters. Host, User, Password,
// and Name come from separate env vars; a full DATABASE_URL overrides them.
type DatabaseConfig struct {
	// Host is the MariaDB address. A bare hostname gets :3306 appended.
	Host     string
	User     string
	Password string
	Name     string

	// dsnOverride is set when DATABASE_URL is provided.
	dsnOverride string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. DATABASE_URL is
// passed through as-is; otherwise the DSN is built with the driver's
// FormatDSN so passwords with special characters survive.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters. Redis backs auth sessions
// and the diary-suggestion job queue.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// SecretKey hardens session handling in production (must be 32+ bytes).
	SecretKey string

	// SessionTTL is how long sessions last before expiring.
	SessionTTL time.Duration
}

// UploadConfig holds photo upload settings.
type UploadConfig struct {
	// MaxSize is the maximum upload file size in bytes.
	MaxSize int64

	// MediaPath is the root directory for photo file storage.
	MediaPath string
}

// AIConfig holds settings for the external captioning/composition model
// endpoint (an OpenAI-compatible chat-completions API).
type AIConfig struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string

	// APIKey is the bearer token for the API.
	APIKey string

	// VisionModel handles photo captioning and keyword extraction.
	VisionModel string

	// ComposeModel handles diary narrative composition.
	ComposeModel string

	// Timeout bounds a single model call.
	Timeout time.Duration
}

// GeoConfig selects how event locations are serialized.
type GeoConfig struct {
	// Bypass switches event location storage from structured latitude/longitude
	// fields to a single opaque blob, for deployments where precise coordinates
	// must not be stored as queryable columns. One internal value type, two codecs.
	Bypass bool
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "sheepdiary"),
			Password:        getEnv("DB_PASSWORD", "sheepdiary"),
			Name:            getEnv("DB_NAME", "sheepdiary"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SecretKey:  getEnv("SECRET_KEY", ""),
			SessionTTL: getEnvDuration("SESSION_TTL", 720*time.Hour),
		},

		Upload: UploadConfig{
			MaxSize:   getEnvInt64("MAX_UPLOAD_SIZE", 10*1024*1024), // 10MB
			MediaPath: getEnv("MEDIA_PATH", "./media"),
		},

		AI: AIConfig{
			BaseURL:      getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:       getEnv("AI_API_KEY", ""),
			VisionModel:  getEnv("AI_VISION_MODEL", "gpt-4o"),
			ComposeModel: getEnv("AI_COMPOSE_MODEL", "gpt-4o"),
			Timeout:      getEnvDuration("AI_TIMEOUT", 60*time.Second),
		},

		Geo: GeoConfig{
			Bypass: getEnvBool("GEO_BYPASS", false),
		},
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.SecretKey == "" {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
		if len(cfg.Auth.SecretKey) < 32 {
			return nil, fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
		if cfg.AI.APIKey == "" {
			return nil, fmt.Errorf("AI_API_KEY is required in production")
		}
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// Env var readers. Unset or unparsable values fall back to the default.

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
