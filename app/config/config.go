package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration for the token service
type Config struct {
	// Server
	Port     string
	Host     string
	LogLevel string

	// Token signing
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	// AccessTokenUserFields is the allow-list of user fields embedded in
	// access-token claims.
	AccessTokenUserFields []string

	// Registration
	EnableRegistration bool
	BcryptCost         int

	// Cleanup
	CleanupInterval time.Duration

	// Tenants file; when empty a single default tenant is built from the
	// database defaults below
	TenantsFile string

	// Database defaults, merged under tenant-specific overrides
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseSSLMode  string

	// Table name defaults
	UsersTable         string
	RefreshTokensTable string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{}

	// Server configuration
	config.Port = getEnvOrDefault("PORT", "9500")
	config.Host = getEnvOrDefault("HOST", "0.0.0.0")
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Token configuration
	config.AccessTokenSecret = os.Getenv("ACCESS_TOKEN_SECRET")
	if config.AccessTokenSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}

	config.RefreshTokenSecret = os.Getenv("REFRESH_TOKEN_SECRET")
	if config.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}

	var err error
	config.AccessTokenTTL, err = getDurationEnv("ACCESS_TOKEN_EXPIRES_IN", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRES_IN: %w", err)
	}

	config.RefreshTokenTTL, err = getDurationEnv("REFRESH_TOKEN_EXPIRES_IN", 720*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_TOKEN_EXPIRES_IN: %w", err)
	}

	config.AccessTokenUserFields = splitFields(
		getEnvOrDefault("ACCESS_TOKEN_PAYLOAD_USER_FIELDS", "username,email,roles"))

	// Registration
	config.EnableRegistration = getBoolEnv("ENABLE_REGISTRATION", false)
	bcryptCostStr := getEnvOrDefault("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost))
	config.BcryptCost, err = strconv.Atoi(bcryptCostStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	// Cleanup
	config.CleanupInterval, err = getDurationEnv("CLEANUP_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid CLEANUP_INTERVAL: %w", err)
	}

	// Tenant configuration
	config.TenantsFile = os.Getenv("TENANTS_FILE")

	// Database defaults
	config.DatabaseHost = getEnvOrDefault("DB_HOST", "localhost")
	config.DatabasePort = getEnvOrDefault("DB_PORT", "5432")
	config.DatabaseName = getEnvOrDefault("DB_NAME", "token_db")
	config.DatabaseUser = getEnvOrDefault("DB_USER", "token_user")
	config.DatabasePassword = os.Getenv("DB_PASSWORD")
	config.DatabaseSSLMode = getEnvOrDefault("DB_SSL_MODE", "require")

	// Table name defaults
	config.UsersTable = getEnvOrDefault("USER_TABLE_NAME", "users")
	config.RefreshTokensTable = getEnvOrDefault("REFRESH_TOKEN_TABLE_NAME", "refresh_tokens")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("invalid port: %s", c.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535: %s", c.Port)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.AccessTokenTTL < time.Minute {
		return fmt.Errorf("access token TTL must be at least 1 minute, got: %v", c.AccessTokenTTL)
	}

	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return fmt.Errorf("refresh token TTL (%v) must exceed access token TTL (%v)", c.RefreshTokenTTL, c.AccessTokenTTL)
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d, got: %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}

	if c.CleanupInterval < time.Minute {
		return fmt.Errorf("cleanup interval must be at least 1 minute, got: %v", c.CleanupInterval)
	}

	if len(c.AccessTokenUserFields) == 0 {
		return fmt.Errorf("access token payload user fields must not be empty")
	}

	return nil
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(value)
}

func splitFields(raw string) []string {
	parts := strings.Split(raw, ",")
	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			fields = append(fields, trimmed)
		}
	}
	return fields
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
