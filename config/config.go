// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Deployment environments
const (
	EnvDevelopment = "dev"
	EnvStaging     = "staging"
	EnvProduction  = "prod"
	EnvTest        = "test"
)

const (
	DefaultAIURL    = "https://profile-prediction-api.onrender.com"
	minSecretLength = 32
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes
	StaticDir         string

	DatabasePath string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	AIURL            string
	AITimeout        time.Duration // AI_API_TIMEOUT, given in milliseconds
	AICacheSize      int
	AIHealthInterval time.Duration

	AllowedOrigins []string

	RateLimitWindow      time.Duration // RATE_LIMIT_WINDOW_MS, given in milliseconds
	RateLimitMaxRequests int64
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "3000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               strings.ToLower(getEnvWithDefault("ENV", EnvDevelopment)),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),          // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600),  // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 10*1024*1024), // 10MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),       // 1MB default
		StaticDir:         getEnvWithDefault("STATIC_DIR", "html"),

		DatabasePath: getEnvWithDefault("DATABASE_PATH", "data/slim.db"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  getDurationEnvWithDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDurationEnvWithDefault("REFRESH_TOKEN_TTL", 168*time.Hour),

		AIURL:            strings.TrimRight(getEnvWithDefault("AI_API_URL", DefaultAIURL), "/"),
		AITimeout:        time.Duration(getInt64EnvWithDefault("AI_API_TIMEOUT", 30000)) * time.Millisecond,
		AICacheSize:      getIntEnvWithDefault("AI_CACHE_SIZE", 256),
		AIHealthInterval: getDurationEnvWithDefault("AI_HEALTH_INTERVAL", 10*time.Minute),

		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		RateLimitWindow:      time.Duration(getInt64EnvWithDefault("RATE_LIMIT_WINDOW_MS", 900000)) * time.Millisecond,
		RateLimitMaxRequests: getInt64EnvWithDefault("RATE_LIMIT_MAX_REQUESTS", 100),
	}

	// Development and tests run without a configured secret
	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = "dev-only-insecure-secret-change-me!!"
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs in dev or test.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment || c.Env == EnvTest
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Address, c.Port)
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return fmt.Errorf("invalid DATABASE_PATH: cannot be empty")
	}

	if err := validateSecret(cfg.JWTSecret); err != nil {
		return fmt.Errorf("invalid JWT_SECRET: %w", err)
	}

	if err := validateTokenTTLs(cfg.AccessTokenTTL, cfg.RefreshTokenTTL); err != nil {
		return err
	}

	if err := validateURL(cfg.AIURL); err != nil {
		return fmt.Errorf("invalid AI_API_URL: %w", err)
	}

	if cfg.AITimeout < time.Second || cfg.AITimeout > 2*time.Minute {
		return fmt.Errorf("invalid AI_API_TIMEOUT: must be between 1000 and 120000 ms, got: %d", cfg.AITimeout.Milliseconds())
	}

	if cfg.AICacheSize < 0 {
		return fmt.Errorf("invalid AI_CACHE_SIZE: must not be negative, got: %d", cfg.AICacheSize)
	}

	if cfg.AIHealthInterval < 10*time.Second {
		return fmt.Errorf("invalid AI_HEALTH_INTERVAL: must be at least 10s, got: %s", cfg.AIHealthInterval)
	}

	for _, origin := range cfg.AllowedOrigins {
		if err := validateURL(origin); err != nil {
			return fmt.Errorf("invalid ALLOWED_ORIGINS entry %q: %w", origin, err)
		}
	}

	if cfg.RateLimitWindow <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_WINDOW_MS: must be positive")
	}

	if cfg.RateLimitMaxRequests <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_MAX_REQUESTS: must be positive, got: %d", cfg.RateLimitMaxRequests)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// 0.0.0.0 is needed inside containers; a specific public IP is refused
	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction, EnvTest}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 { // 1 year maximum
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateSecret checks the JWT signing secret
func validateSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is required outside dev and test")
	}
	if len(secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes, got: %d", minSecretLength, len(secret))
	}
	return nil
}

// validateTokenTTLs checks ACCESS_TOKEN_TTL and REFRESH_TOKEN_TTL together
func validateTokenTTLs(access, refresh time.Duration) error {
	if access < time.Minute || access > 24*time.Hour {
		return fmt.Errorf("invalid ACCESS_TOKEN_TTL: must be between 1m and 24h, got: %s", access)
	}
	if refresh < access {
		return fmt.Errorf("invalid REFRESH_TOKEN_TTL: must not be shorter than ACCESS_TOKEN_TTL, got: %s", refresh)
	}
	return nil
}

// validateURL accepts absolute http and https URLs
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault gets an environment variable as a Go duration with a default value
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"STATIC_DIR",
		"DATABASE_PATH",
		"JWT_SECRET",
		"ACCESS_TOKEN_TTL",
		"REFRESH_TOKEN_TTL",
		"AI_API_URL",
		"AI_API_TIMEOUT",
		"AI_CACHE_SIZE",
		"AI_HEALTH_INTERVAL",
		"ALLOWED_ORIGINS",
		"RATE_LIMIT_WINDOW_MS",
		"RATE_LIMIT_MAX_REQUESTS",
	}
}
