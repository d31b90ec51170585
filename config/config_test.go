package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `agent:
  url: "http://127.0.0.1:8090/api/stats"
  username: "operator"
  password: "hunter2"
poll:
  interval_ms: 1500
  request_timeout_ms: 1000
ui:
  mode: "console"
  refresh_ms: 500
logging:
  dir: "logs"
  retention_days: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Agent.URL != "http://127.0.0.1:8090/api/stats" {
		t.Fatalf("agent.url = %q", cfg.Agent.URL)
	}
	if cfg.Agent.Username != "operator" || cfg.Agent.Password != "hunter2" {
		t.Fatalf("credentials not loaded: %+v", cfg.Agent)
	}
	if cfg.Poll.IntervalMS != 1500 {
		t.Fatalf("poll.interval_ms = %d", cfg.Poll.IntervalMS)
	}
	if cfg.UI.Mode != "console" || cfg.UI.RefreshMS != 500 {
		t.Fatalf("ui = %+v", cfg.UI)
	}
	if cfg.Logging.RetentionDays != 3 {
		t.Fatalf("logging.retention_days = %d", cfg.Logging.RetentionDays)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `agent:
  url: "http://localhost:8090/api/stats"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Poll.IntervalMS != 3000 {
		t.Fatalf("default poll interval = %d, want 3000", cfg.Poll.IntervalMS)
	}
	if cfg.Poll.RequestTimeoutMS != 2500 {
		t.Fatalf("default request timeout = %d", cfg.Poll.RequestTimeoutMS)
	}
	if cfg.UI.Mode != "tview" || cfg.UI.RefreshMS != 1000 || cfg.UI.TargetFPS != 30 {
		t.Fatalf("ui defaults = %+v", cfg.UI)
	}
	if cfg.UI.EventBuffer != 1000 {
		t.Fatalf("default event buffer = %d", cfg.UI.EventBuffer)
	}
	if cfg.Logging.RetentionDays != 7 {
		t.Fatalf("default retention = %d", cfg.Logging.RetentionDays)
	}
}

func TestLoadRejectsMissingURL(t *testing.T) {
	path := writeConfig(t, `poll:
  interval_ms: 1000
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing agent.url")
	}
}

func TestLoadRejectsUnknownUIMode(t *testing.T) {
	path := writeConfig(t, `agent:
  url: "http://localhost:8090/api/stats"
ui:
  mode: "curses"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown ui.mode")
	}
}

func TestLoadAcceptsANSIModeAlias(t *testing.T) {
	path := writeConfig(t, `agent:
  url: "http://localhost:8090/api/stats"
ui:
  mode: "ansi"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UI.Mode != "console" {
		t.Fatalf("ansi should normalize to console, got %q", cfg.UI.Mode)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("explicit.yaml"); got != "explicit.yaml" {
		t.Fatalf("flag must win, got %q", got)
	}
	t.Setenv("AGENTWATCH_CONFIG", "/etc/agentwatch.yaml")
	if got := Resolve(""); got != "/etc/agentwatch.yaml" {
		t.Fatalf("env must win over default, got %q", got)
	}
	t.Setenv("AGENTWATCH_CONFIG", "")
	if got := Resolve(""); got != DefaultPath {
		t.Fatalf("default path, got %q", got)
	}
}
