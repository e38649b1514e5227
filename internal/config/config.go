// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Cache      CacheConfig
	Store      StoreConfig
	Session    SessionConfig
	Completion CompletionConfig
	Survey     SurveyConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host    string
	Port    int
	GinMode string
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds cache-related configuration.
type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// StoreConfig holds persistence store configuration.
type StoreConfig struct {
	URI           string
	Database      string
	EncryptionKey string
}

// SessionConfig holds session lifecycle configuration.
type SessionConfig struct {
	// DefaultDuration is the session lifetime in logical time units.
	DefaultDuration int64
	// SweepInterval is the wall-clock duration of one logical tick.
	SweepInterval time.Duration
	// MaxFailedAttempts is the number of failed session creations from one
	// source IP before it is blacklisted.
	MaxFailedAttempts int
	// MaxRequestRate is the per-session completion allowance per hour.
	MaxRequestRate int
}

// CompletionConfig holds model backend configuration.
type CompletionConfig struct {
	// Endpoints maps model name to the HTTP endpoint serving it.
	Endpoints map[string]string
	Timeout   time.Duration
}

// SurveyConfig holds feedback survey configuration.
type SurveyConfig struct {
	// Link is the survey URL template; "{user_id}" is substituted per user.
	Link string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvAsInt("SERVER_PORT", 8080),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Cache: CacheConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 86400)) * time.Second,
		},
		Store: StoreConfig{
			URI:           getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:      getEnv("MONGODB_DATABASE", "coco"),
			EncryptionKey: getEnv("STORE_ENCRYPTION_KEY", ""),
		},
		Session: SessionConfig{
			DefaultDuration:   int64(getEnvAsInt("SESSION_DEFAULT_DURATION", 3600)),
			SweepInterval:     time.Duration(getEnvAsInt("SESSION_SWEEP_INTERVAL_SECONDS", 5)) * time.Second,
			MaxFailedAttempts: getEnvAsInt("MAX_FAILED_SESSION_ATTEMPTS", 5),
			MaxRequestRate:    getEnvAsInt("MAX_REQUEST_RATE", 1000),
		},
		Completion: CompletionConfig{
			Endpoints: parseEndpoints(getEnv("MODEL_ENDPOINTS", "")),
			Timeout:   time.Duration(getEnvAsInt("MODEL_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Survey: SurveyConfig{
			Link: getEnv("SURVEY_LINK", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Session.DefaultDuration <= 0 {
		return nil, fmt.Errorf("SESSION_DEFAULT_DURATION must be positive")
	}
	if cfg.Session.SweepInterval <= 0 {
		return nil, fmt.Errorf("SESSION_SWEEP_INTERVAL_SECONDS must be positive")
	}

	return cfg, nil
}

// parseEndpoints parses a "name=url,name=url" list into a map.
func parseEndpoints(raw string) map[string]string {
	endpoints := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, url, found := strings.Cut(pair, "=")
		if !found || name == "" || url == "" {
			continue
		}
		endpoints[strings.TrimSpace(name)] = strings.TrimSpace(url)
	}
	return endpoints
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
