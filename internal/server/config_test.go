package server

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.MaxMessageSize != 64*1024 {
		t.Errorf("MaxMessageSize = %d", cfg.MaxMessageSize)
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("HistoryLimit = %d, want 50", cfg.HistoryLimit)
	}
	if cfg.RateLimit.Burst != 20 || cfg.RateLimit.RefillInterval != time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if len(cfg.AllowedOrigins) == 0 {
		t.Error("no default allowed origins")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example ,")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2")
	t.Setenv("CHAT_HISTORY_LIMIT", "10")
	t.Setenv("SHUTDOWN_TIMEOUT", "5")

	cfg := LoadConfig()

	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000 (colon stripped)", cfg.Port)
	}
	if cfg.Addr() != ":9000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.GinMode != "debug" {
		t.Errorf("GinMode = %q", cfg.GinMode)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://a.example" || cfg.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.MaxMessageSize != 1024 {
		t.Errorf("MaxMessageSize = %d", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 3 || cfg.RateLimit.RefillInterval != 2*time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("HistoryLimit = %d", cfg.HistoryLimit)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadConfigIgnoresInvalidValues(t *testing.T) {
	t.Setenv("MAX_MESSAGE_SIZE", "not-a-number")
	t.Setenv("RATE_LIMIT_BURST", "-5")
	t.Setenv("CHAT_HISTORY_LIMIT", "0")
	t.Setenv("SHUTDOWN_TIMEOUT", "zero")

	cfg := LoadConfig()
	defaults := DefaultConfig()

	if cfg.MaxMessageSize != defaults.MaxMessageSize {
		t.Errorf("MaxMessageSize = %d, want default", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != defaults.RateLimit.Burst {
		t.Errorf("Burst = %d, want default", cfg.RateLimit.Burst)
	}
	if cfg.HistoryLimit != defaults.HistoryLimit {
		t.Errorf("HistoryLimit = %d, want default", cfg.HistoryLimit)
	}
	if cfg.ShutdownTimeout != defaults.ShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want default", cfg.ShutdownTimeout)
	}
}

func TestSanitizeClampsZeroValues(t *testing.T) {
	cfg := (&Config{}).sanitize()
	defaults := DefaultConfig()

	if cfg.Port != defaults.Port || cfg.GinMode != defaults.GinMode {
		t.Errorf("sanitized zero config = %+v", cfg)
	}
	if cfg.MaxMessageSize != defaults.MaxMessageSize || cfg.HistoryLimit != defaults.HistoryLimit {
		t.Errorf("sanitized zero config = %+v", cfg)
	}
}
