// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// AuthGatewayConfig provides settings for the hosted auth backend client.
type AuthGatewayConfig interface {
	GetAuthURL() string
	GetAuthAnonKey() string
	GetAuthServiceKey() string
}

// JWTConfig provides JWT validation settings for the session middleware.
// The secret is the hosted auth service's signing secret; access tokens are
// verified locally without a network round trip.
type JWTConfig interface {
	GetAuthJWTSecret() string
	GetSessionRefreshLeeway() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetEnv() string
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// CleanupConfig provides settings for the test-account cleanup route.
type CleanupConfig interface {
	GetCleanupEmailDomain() string
	GetCleanupAllowedOrigins() []string
	GetCleanupMaxRequests() int
	GetCleanupWindow() time.Duration
}

// RedisConfig provides settings for the optional redis-backed rate counter.
type RedisConfig interface {
	GetRedisURL() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseURL           string
	AuthURL               string
	AuthAnonKey           string
	AuthServiceKey        string
	AuthJWTSecret         string
	SessionRefreshLeeway  time.Duration
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	EmailEnabled          bool
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	EmailFromName         string
	EmailFromAddress      string
	CleanupEmailDomain    string
	CleanupAllowedOrigins []string
	CleanupMaxRequests    int
	CleanupWindow         time.Duration
	RedisURL              string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// AuthGatewayConfig implementation
func (c *Config) GetAuthURL() string        { return c.AuthURL }
func (c *Config) GetAuthAnonKey() string    { return c.AuthAnonKey }
func (c *Config) GetAuthServiceKey() string { return c.AuthServiceKey }

// JWTConfig implementation
func (c *Config) GetAuthJWTSecret() string               { return c.AuthJWTSecret }
func (c *Config) GetSessionRefreshLeeway() time.Duration { return c.SessionRefreshLeeway }

// HTTPConfig implementation
func (c *Config) GetEnv() string           { return c.Env }
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// CleanupConfig implementation
func (c *Config) GetCleanupEmailDomain() string      { return c.CleanupEmailDomain }
func (c *Config) GetCleanupAllowedOrigins() []string { return c.CleanupAllowedOrigins }
func (c *Config) GetCleanupMaxRequests() int         { return c.CleanupMaxRequests }
func (c *Config) GetCleanupWindow() time.Duration    { return c.CleanupWindow }

// RedisConfig implementation
func (c *Config) GetRedisURL() string { return c.RedisURL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		AuthURL:               strings.TrimRight(getEnv("AUTH_URL", ""), "/"),
		AuthAnonKey:           getEnv("AUTH_ANON_KEY", ""),
		AuthServiceKey:        getEnv("AUTH_SERVICE_KEY", ""),
		AuthJWTSecret:         getEnv("AUTH_JWT_SECRET", ""),
		SessionRefreshLeeway:  mustDuration(getEnv("SESSION_REFRESH_LEEWAY", "60s")),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		EmailEnabled:          emailEnabled && smtpHost != "",
		SMTPHost:              smtpHost,
		SMTPPort:              mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "Konduktv"),
		EmailFromAddress:      getEnv("EMAIL_FROM_ADDRESS", ""),
		CleanupEmailDomain:    getEnv("CLEANUP_EMAIL_DOMAIN", "konduktv.com"),
		CleanupAllowedOrigins: splitCSV(getEnv("CLEANUP_ALLOWED_ORIGINS", "http://localhost:3000,https://konduktv.com")),
		CleanupMaxRequests:    mustInt(getEnv("CLEANUP_MAX_REQUESTS", "5")),
		CleanupWindow:         mustDuration(getEnv("CLEANUP_WINDOW", "1m")),
		RedisURL:              getEnv("REDIS_URL", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AuthURL == "" {
		return nil, fmt.Errorf("AUTH_URL is required")
	}
	if cfg.AuthServiceKey == "" {
		return nil, fmt.Errorf("AUTH_SERVICE_KEY is required")
	}
	if cfg.AuthJWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
