package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DefaultCity != "臺北市" {
		t.Errorf("DefaultCity = %q, want 臺北市", cfg.DefaultCity)
	}
	if cfg.CWA.Timeout != 10*time.Second {
		t.Errorf("CWA.Timeout = %s, want 10s", cfg.CWA.Timeout)
	}
	if cfg.CWA.MaxRetries != 0 {
		t.Errorf("CWA.MaxRetries = %d, want 0", cfg.CWA.MaxRetries)
	}
	if cfg.RefreshInterval != 0 {
		t.Errorf("RefreshInterval = %s, want 0", cfg.RefreshInterval)
	}
	if cfg.HTTP.Addr != "127.0.0.1:8080" {
		t.Errorf("HTTP.Addr = %q, want 127.0.0.1:8080", cfg.HTTP.Addr)
	}
	if err := cfg.RequireAPIKey(); err == nil {
		t.Error("expected RequireAPIKey to fail without a key")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CWA_API_KEY", "CWB-TEST")
	t.Setenv("CWA_TIMEOUT", "3s")
	t.Setenv("DEFAULT_CITY", "高雄市")
	t.Setenv("REFRESH_INTERVAL", "15m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.CWA.APIKey != "CWB-TEST" {
		t.Errorf("CWA.APIKey = %q, want CWB-TEST", cfg.CWA.APIKey)
	}
	if cfg.CWA.Timeout != 3*time.Second {
		t.Errorf("CWA.Timeout = %s, want 3s", cfg.CWA.Timeout)
	}
	if cfg.DefaultCity != "高雄市" {
		t.Errorf("DefaultCity = %q, want 高雄市", cfg.DefaultCity)
	}
	if cfg.RefreshInterval != 15*time.Minute {
		t.Errorf("RefreshInterval = %s, want 15m", cfg.RefreshInterval)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("RequireAPIKey: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "weather.yaml")
	content := "default_city: 花蓮縣\nhttp:\n  addr: 127.0.0.1:9090\nstore:\n  path: \"\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DefaultCity != "花蓮縣" || cfg.HTTP.Addr != "127.0.0.1:9090" || cfg.Store.Path != "" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CWA_TIMEOUT", "0s")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for zero timeout")
	}
	if !strings.Contains(err.Error(), "Timeout") {
		t.Errorf("error = %v, want mention of Timeout", err)
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
