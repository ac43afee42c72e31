package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the router's process configuration, loaded once from the
// environment at startup. See spec §4.1.
type Config struct {
	BackendIPs            []string
	MaxRequestsPerBackend int
	RedisURL              string
	HTTPPort              int
	MappingTTL            time.Duration
	AllowOrigin           string
	LogLevel              string
	MetricsPath           string
}

// LoadConfig loads configuration from environment variables. BACKEND_IPS,
// MAX_REQUESTS_PER_BACKEND, and REDIS_URL are required; PORT,
// MAPPING_TTL_IN_S, ALLOW_ORIGIN, LOG_LEVEL, and METRICS_PATH have
// defaults. Missing required values and parse errors are both reported as
// errors, never a partial config.
func LoadConfig() (*Config, error) {
	backendIPsStr := os.Getenv("BACKEND_IPS")
	if backendIPsStr == "" {
		return nil, fmt.Errorf("BACKEND_IPS is required")
	}
	backendIPs := splitAndTrim(backendIPsStr)
	if len(backendIPs) == 0 {
		return nil, fmt.Errorf("BACKEND_IPS is required")
	}

	maxReqStr := os.Getenv("MAX_REQUESTS_PER_BACKEND")
	if maxReqStr == "" {
		return nil, fmt.Errorf("MAX_REQUESTS_PER_BACKEND is required")
	}
	maxReq, err := strconv.Atoi(maxReqStr)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_REQUESTS_PER_BACKEND: %w", err)
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	httpPort := 8080
	if v := os.Getenv("PORT"); v != "" {
		httpPort, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
	}

	ttlSeconds := 3600
	if v := os.Getenv("MAPPING_TTL_IN_S"); v != "" {
		ttlSeconds, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAPPING_TTL_IN_S: %w", err)
		}
	}

	allowOrigin := os.Getenv("ALLOW_ORIGIN")
	if allowOrigin == "" {
		allowOrigin = "*"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q", logLevel)
	}

	metricsPath := os.Getenv("METRICS_PATH")
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	return &Config{
		BackendIPs:            backendIPs,
		MaxRequestsPerBackend: maxReq,
		RedisURL:              redisURL,
		HTTPPort:              httpPort,
		MappingTTL:            time.Duration(ttlSeconds) * time.Second,
		AllowOrigin:           allowOrigin,
		LogLevel:              logLevel,
		MetricsPath:           metricsPath,
	}, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
