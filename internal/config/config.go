package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Backend API Configuration
	API APIConfig

	// Session Configuration
	Session SessionConfig

	// Web front end Configuration
	Web WebConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds the backend origin and its static API key
type APIConfig struct {
	URL       string
	Key       string
	Timeout   time.Duration
	SlowAfter time.Duration // when to tell the user a call is slow
}

// SessionConfig holds session token handling configuration
type SessionConfig struct {
	// JWTSecret enables signature verification of session tokens when set.
	JWTSecret  string
	TokenStore string // keyring, file
}

// WebConfig holds HTTP server configuration
type WebConfig struct {
	Addr             string
	AllowOrigins     []string
	UnauthorizedView string
	SecureCookies    bool
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	apiTimeout, err := durationEnv("UPTOME_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	slowAfter, err := durationEnv("UPTOME_SLOW_AFTER", 3*time.Second)
	if err != nil {
		return nil, err
	}

	// Token store - default to the OS keychain
	tokenStore := getEnv("UPTOME_TOKEN_STORE", "keyring")
	if tokenStore != "keyring" && tokenStore != "file" {
		return nil, fmt.Errorf("UPTOME_TOKEN_STORE must be keyring or file, got %q", tokenStore)
	}

	// CORS origins - default to the local dev front end
	var allowOrigins []string
	for _, origin := range strings.Split(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowOrigins = append(allowOrigins, origin)
		}
	}
	if len(allowOrigins) == 0 {
		return nil, fmt.Errorf("CORS_ALLOW_ORIGINS must name at least one origin")
	}

	return &Config{
		API: APIConfig{
			URL:       strings.TrimRight(os.Getenv("UPTOME_API_URL"), "/"),
			Key:       os.Getenv("UPTOME_API_KEY"),
			Timeout:   apiTimeout,
			SlowAfter: slowAfter,
		},
		Session: SessionConfig{
			JWTSecret:  os.Getenv("UPTOME_JWT_SECRET"),
			TokenStore: tokenStore,
		},
		Web: WebConfig{
			Addr:             getEnv("HTTP_ADDR", ":8080"),
			AllowOrigins:     allowOrigins,
			UnauthorizedView: os.Getenv("UNAUTHORIZED_VIEW"),
			SecureCookies:    os.Getenv("SECURE_COOKIES") == "true",
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// RequireAPI returns an error when the backend origin is not configured
func (c *Config) RequireAPI() error {
	if c.API.URL == "" {
		return fmt.Errorf("backend URL is not configured (set UPTOME_API_URL)")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
