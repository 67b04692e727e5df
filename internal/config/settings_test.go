package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envBackendURL, envLogLevel, envPollInterval, envLogLines} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoadDefaultsWhenFilesMissing(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(dir, "config.toml"), filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.BackendURL() != DefaultBackendURL {
		t.Fatalf("unexpected backend url: %q", cfg.BackendURL())
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.PollInterval())
	}
	if cfg.LogLines() != 200 || cfg.FollowThreshold() != 3 || cfg.LogLevel() != "info" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestLoadFromTOML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := []byte("[backend]\nurl = \"10.0.0.5:9000/cgi-bin/run.sh/\"\n[polling]\ninterval = \"500ms\"\nlog_lines = 50\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFrom(path, "")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.BackendURL() != "http://10.0.0.5:9000/cgi-bin/run.sh" {
		t.Fatalf("unexpected backend url: %q", cfg.BackendURL())
	}
	if cfg.PollInterval() != 500*time.Millisecond || cfg.LogLines() != 50 {
		t.Fatalf("unexpected polling config: %#v", cfg.Polling)
	}
}

func TestDotenvAndEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("STINSTALLER_BACKEND_URL=http://dotenv:8080/run.sh\nSTINSTALLER_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(envLogLevel, "warn")

	cfg, err := LoadFrom(filepath.Join(dir, "config.toml"), envFile)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.BackendURL() != "http://dotenv:8080/run.sh" {
		t.Fatalf("expected .env backend url, got %q", cfg.BackendURL())
	}
	if cfg.LogLevel() != "warn" {
		t.Fatalf("expected process env to win over .env, got %q", cfg.LogLevel())
	}
}

func TestInvalidPollIntervalEnvIsAnError(t *testing.T) {
	clearEnv(t)
	t.Setenv(envPollInterval, "soon")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"), ""); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}
