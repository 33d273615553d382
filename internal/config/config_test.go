package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("SBC_DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without SBC_DATABASE_URL")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SBC_DATABASE_URL", "postgres://localhost/sbc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.EngineBaseDir != "/usr/local/freeswitch/conf" {
		t.Errorf("EngineBaseDir = %q", cfg.EngineBaseDir)
	}
	if cfg.EngineCLIPort != 8021 {
		t.Errorf("EngineCLIPort = %d, want 8021", cfg.EngineCLIPort)
	}
	if cfg.EngineCLIPassword != "ClueCon" {
		t.Errorf("EngineCLIPassword = %q", cfg.EngineCLIPassword)
	}
	if cfg.EngineCLITimeout != 5*time.Second {
		t.Errorf("EngineCLITimeout = %v, want 5s", cfg.EngineCLITimeout)
	}
	if !cfg.EngineReload {
		t.Error("EngineReload = false, want true by default")
	}
	if cfg.EngineReloadStrict {
		t.Error("EngineReloadStrict = true, want false by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SBC_DATABASE_URL", "postgres://localhost/sbc")
	t.Setenv("SBC_ENGINE_RELOAD", "false")
	t.Setenv("SBC_ENGINE_CLI_PORT", "9021")
	t.Setenv("SBC_ENGINE_CLI_TIMEOUT", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EngineReload {
		t.Error("EngineReload = true, want false")
	}
	if cfg.EngineCLIPort != 9021 {
		t.Errorf("EngineCLIPort = %d, want 9021", cfg.EngineCLIPort)
	}
	if cfg.EngineCLITimeout != 250*time.Millisecond {
		t.Errorf("EngineCLITimeout = %v, want 250ms", cfg.EngineCLITimeout)
	}
}

func TestLoadBadValues(t *testing.T) {
	t.Setenv("SBC_DATABASE_URL", "postgres://localhost/sbc")
	t.Setenv("SBC_ENGINE_CLI_PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted invalid SBC_ENGINE_CLI_PORT")
	}
}
