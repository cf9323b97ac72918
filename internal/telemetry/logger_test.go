package telemetry

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewDefaultsToInfoAndJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Service: "vrf-coordinator", Output: &buf})
	logger.Info().Str("event", "started").Msg("ready")

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected JSON output by default, got %q: %v", buf.String(), err)
	}
	if decoded["service"] != "vrf-coordinator" {
		t.Fatalf("service field = %v, want vrf-coordinator", decoded["service"])
	}
	if decoded["event"] != "started" {
		t.Fatalf("event field = %v, want started", decoded["event"])
	}
}

func TestNewSuppressesBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Service: "vrf-coordinator", Level: "warn", Output: &buf})
	logger.Info().Msg("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected info-level log to be suppressed at warn level, got %q", buf.String())
	}
	logger.Warn().Msg("should appear")
	if buf.Len() == 0 {
		t.Fatal("expected warn-level log to be emitted")
	}
}

func TestNewFromEnvDefaultsWhenUnset(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	logger := NewFromEnv("vrf-coordinator")
	if logger.GetLevel().String() != "info" {
		t.Fatalf("level = %s, want info", logger.GetLevel())
	}
}
