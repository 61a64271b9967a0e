package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// AppConfig represents the application configuration
type AppConfig struct {
	Port               string
	OpenSearchURL      string
	OpenSearchUser     string
	OpenSearchPass     string
	OpenSearchInsecure bool
	EnableLogging      bool
	LoggingLevel       string
	SQLitePath         string
	CORSOrigins        []string
	APIKey             string
	RateLimitPerMinute int
}

var (
	appConfigInstance *AppConfig
	appConfigOnce     sync.Once
)

// GetAppConfig returns the application configuration, read once from the environment
func GetAppConfig() *AppConfig {
	appConfigOnce.Do(func() {
		appConfigInstance = LoadAppConfig()
	})
	return appConfigInstance
}

// LoadAppConfig reads the application configuration from the environment
func LoadAppConfig() *AppConfig {
	return &AppConfig{
		Port:               GetEnv("APP_PORT", "9999"),
		OpenSearchURL:      GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
		OpenSearchUser:     GetEnv("OPENSEARCH_USER", ""),
		OpenSearchPass:     GetEnv("OPENSEARCH_PASSWORD", ""),
		OpenSearchInsecure: GetBoolEnv("OPENSEARCH_INSECURE", false),
		EnableLogging:      GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
		LoggingLevel:       GetEnv("LOGGING_LEVEL", "info"),
		SQLitePath:         GetEnv("SQLITE_PATH", "./data/nepalpay.db"),
		CORSOrigins:        GetListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		APIKey:             GetEnv("API_KEY", ""),
		RateLimitPerMinute: GetIntEnv("RATE_LIMIT_PER_MINUTE", 100),
	}
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetListEnv splits a comma separated environment variable
func GetListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
