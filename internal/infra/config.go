package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	LogLevel         string
	EngineBaseURL    string
	EngineEventsURL  string
	MetricsPort      string
	PollInterval     time.Duration
	ReconnectDelay   time.Duration
	RetentionHorizon time.Duration
	EngineTimeout    time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		EngineBaseURL:    os.Getenv("ENGINE_BASE_URL"),
		EngineEventsURL:  os.Getenv("ENGINE_EVENTS_URL"),
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		PollInterval:     time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 3)),
		ReconnectDelay:   time.Second * time.Duration(getEnvInt("RECONNECT_DELAY_SECONDS", 2)),
		RetentionHorizon: time.Minute * time.Duration(getEnvInt("RETENTION_MINUTES", 60)),
		EngineTimeout:    time.Second * time.Duration(getEnvInt("ENGINE_TIMEOUT_SECONDS", 10)),
	}

	if cfg.EngineBaseURL == "" {
		return nil, fmt.Errorf("ENGINE_BASE_URL is required")
	}

	if cfg.EngineEventsURL == "" {
		events, err := deriveEventsURL(cfg.EngineBaseURL)
		if err != nil {
			return nil, fmt.Errorf("derive events url: %w", err)
		}
		cfg.EngineEventsURL = events
	}

	return cfg, nil
}

// deriveEventsURL maps the engine's HTTP base URL to its websocket endpoint
// when ENGINE_EVENTS_URL is not set explicitly.
func deriveEventsURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/events"
	return u.String(), nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
