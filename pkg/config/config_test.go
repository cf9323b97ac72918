package config

import "testing"

func TestNewHasSaneDefaults(t *testing.T) {
	cfg := New()
	if cfg.Server.Port != 8080 {
		t.Fatalf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.ExpirySlots != 3*60*60 {
		t.Fatalf("default expiry slots = %d, want 10800", cfg.ExpirySlots)
	}
	if !cfg.Database.MigrateOnStart {
		t.Fatal("expected MigrateOnStart to default true")
	}
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ORACLE_MIN_STAKE", "5000")
	t.Setenv("ENFORCE_VRF_KEY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Registry.MinStake != 5000 {
		t.Fatalf("min stake = %d, want 5000", cfg.Registry.MinStake)
	}
	if !cfg.EnforceVrfKey {
		t.Fatal("expected EnforceVrfKey to be true")
	}
}

func TestLoadRejectsMalformedIntegers(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a malformed SERVER_PORT")
	}
}
