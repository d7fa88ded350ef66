package infra

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerDefaultsPerEnvironment(t *testing.T) {
	if got := NewLogger("development", "").GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("development level = %v, want debug", got)
	}
	if got := NewLogger("production", "").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("production level = %v, want info", got)
	}
}

func TestNewLoggerHonorsLevelOverride(t *testing.T) {
	if got := NewLogger("production", "debug").GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("override level = %v, want debug", got)
	}
	if got := NewLogger("development", " WARN ").GetLevel(); got != zerolog.WarnLevel {
		t.Fatalf("override level = %v, want warn", got)
	}
}

func TestNewLoggerIgnoresUnparseableOverride(t *testing.T) {
	if got := NewLogger("production", "shouting").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info when override is unparseable", got)
	}
}

func TestLoadConfigLogLevel(t *testing.T) {
	t.Setenv("ENGINE_BASE_URL", "http://localhost:7777")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
}
