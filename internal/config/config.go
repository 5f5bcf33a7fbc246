package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the service reads from the environment: HTTP
// server settings, image acquisition settings, and the default texture
// evaluation parameters applied when a request does not override them.
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64

	// Default evaluation parameters.
	PatchSize  int
	Factors    []int
	MaxWorkers int

	// MaxImageDimension bounds the longer side of fetched images before
	// binarization; 0 disables downscaling.
	MaxImageDimension uint

	// Azure blob storage credentials; both empty means HTTP fetching only.
	AzureAccountName string
	AzureAccountKey  string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// UseAzureStorage reports whether blob storage credentials were supplied.
func (c *Config) UseAzureStorage() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 1*1024*1024), // 1MB, requests carry URLs only
		PatchSize:          int(parseIntOrDefault("PATCH_SIZE", 4)),
		MaxWorkers:         int(parseIntOrDefault("MAX_WORKERS", 0)),
		MaxImageDimension:  uint(parseIntOrDefault("MAX_IMAGE_DIMENSION", 0)),
		AzureAccountName:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:    os.Getenv("AZURE_STORAGE_KEY"),
	}

	factors, err := parseFactors(getEnvOrDefault("RESOLUTION_FACTORS", "1"))
	if err != nil {
		return nil, err
	}
	cfg.Factors = factors

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout)
	}
	if cfg.PatchSize < 1 {
		return nil, fmt.Errorf("PATCH_SIZE must be >= 1 (got %d)", cfg.PatchSize)
	}
	if cfg.MaxWorkers < 0 {
		return nil, fmt.Errorf("MAX_WORKERS must be >= 0 (got %d)", cfg.MaxWorkers)
	}
	return cfg, nil
}

// parseFactors reads a comma-separated list such as "1,2,4".
func parseFactors(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	factors := make([]int, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || f < 1 {
			return nil, fmt.Errorf("invalid RESOLUTION_FACTORS entry %q: must be a positive integer", part)
		}
		factors = append(factors, f)
	}
	return factors, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
