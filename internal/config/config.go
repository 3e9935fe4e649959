package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string // "production", "development", "testing"
	MongoURI    string // Empty in development selects the in-memory store
	RedisURL    string // Empty disables token revocation

	// Identity
	JWTSecret         string
	AccessTokenExpiry time.Duration
	ProviderSecret    string // Shared secret of the identity provider bridge calling /api/auth/signin

	AllowedOrigins  string
	ProfileCacheTTL time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),
		MongoURI:    getEnv("MONGODB_URI", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		AccessTokenExpiry: getDurationEnv("JWT_ACCESS_EXPIRY", 7*24*time.Hour),
		ProviderSecret:    getEnv("PROVIDER_SECRET", ""),

		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		ProfileCacheTTL: getDurationEnv("PROFILE_CACHE_TTL", 5*time.Minute),
	}
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowsDevFallbacks reports whether missing infrastructure may be replaced by local stand-ins
func (c *Config) AllowsDevFallbacks() bool {
	return c.Environment == "development" || c.Environment == "testing"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("15m") or a bare number of seconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if secs := getIntEnv(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
