package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amzgrab/amzgrab/internal/marketplace"
)

type Config struct {
	Server    ServerConfig
	Transport TransportConfig
	Search    SearchConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type TransportConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	UserAgents []string
}

type SearchConfig struct {
	Region          string
	MaxPages        int
	ConcurrentLimit int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Transport: TransportConfig{
			Timeout:    getDurationOrDefault("TRANSPORT_TIMEOUT", 30*time.Second),
			MaxRetries: getIntOrDefault("TRANSPORT_MAX_RETRIES", 3),
			RetryDelay: getDurationOrDefault("TRANSPORT_RETRY_DELAY", 2*time.Second),
			UserAgents: getStringSliceOrDefault("TRANSPORT_USER_AGENTS", defaultUserAgents()),
		},
		Search: SearchConfig{
			Region:          getEnvOrDefault("SEARCH_REGION", marketplace.DefaultRegion),
			MaxPages:        getIntOrDefault("SEARCH_MAX_PAGES", 5),
			ConcurrentLimit: getIntOrDefault("SEARCH_CONCURRENT_LIMIT", 3),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := marketplace.BaseURL(c.Search.Region); err != nil {
		return fmt.Errorf("SEARCH_REGION: %w", err)
	}

	if c.Search.MaxPages < 1 {
		return fmt.Errorf("SEARCH_MAX_PAGES must be at least 1")
	}

	if c.Search.ConcurrentLimit < 1 {
		return fmt.Errorf("SEARCH_CONCURRENT_LIMIT must be at least 1")
	}

	if c.Transport.MaxRetries < 0 {
		return fmt.Errorf("TRANSPORT_MAX_RETRIES cannot be negative")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
	}
}
