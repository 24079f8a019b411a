// Package config loads the process-wide defaults the queue falls back
// to when a worker or job doesn't override them. Everything is read
// from the environment once at startup.
package config

import (
	"os"
	"strconv"

	"skeenode/pkg/models"
)

// Config holds the process-wide retry default and ambient settings.
type Config struct {
	LogLevel    string
	LogEncoding string

	TracingEnabled bool

	RetryMaxAttempts int
	RetryDelayMillis int64
	RetryExponent    int
	RetryMaxDelay    int64
}

// LoadConfig reads process configuration from the environment, falling
// back to the documented defaults.
func LoadConfig() *Config {
	return &Config{
		LogLevel:    getEnv("SKEENODE_LOG_LEVEL", "info"),
		LogEncoding: getEnv("SKEENODE_LOG_ENCODING", "json"),

		TracingEnabled: getEnvAsBool("SKEENODE_TRACING_ENABLED", false),

		RetryMaxAttempts: getEnvAsInt("SKEENODE_RETRY_MAX_ATTEMPTS", 5),
		RetryDelayMillis: getEnvAsInt64("SKEENODE_RETRY_DELAY_MS", 250),
		RetryExponent:    getEnvAsInt("SKEENODE_RETRY_EXPONENT", 4),
		RetryMaxDelay:    getEnvAsInt64("SKEENODE_RETRY_MAX_DELAY_MS", 3_600_000),
	}
}

// GlobalRetryOverride converts the loaded config into the override
// shape pkg/retrypolicy.Resolve expects for its global layer.
func (c *Config) GlobalRetryOverride() *models.RetryConfigOverride {
	maxAttempts := c.RetryMaxAttempts
	delay := c.RetryDelayMillis
	exponent := c.RetryExponent
	maxDelay := c.RetryMaxDelay
	return &models.RetryConfigOverride{
		MaxAttempts: &maxAttempts,
		Delay:       &delay,
		Exponent:    &exponent,
		MaxDelay:    &maxDelay,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
