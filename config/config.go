package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither the flag nor AGENTWATCH_CONFIG names a
// config file.
const DefaultPath = "config.yaml"

// Config represents the complete watcher configuration
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	Poll    PollConfig    `yaml:"poll"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
}

// AgentConfig identifies the monitored agent and its credentials. The
// credentials live here, never in source.
type AgentConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PollConfig contains polling loop settings
type PollConfig struct {
	IntervalMS       int `yaml:"interval_ms"`
	RequestTimeoutMS int `yaml:"request_timeout_ms"`
	SeenLimit        int `yaml:"seen_limit"`
}

// UIConfig contains display settings
type UIConfig struct {
	Mode        string          `yaml:"mode"` // tview, console, headless
	RefreshMS   int             `yaml:"refresh_ms"`
	TargetFPS   int             `yaml:"target_fps"`
	EventBuffer int             `yaml:"event_buffer"`
	Color       bool            `yaml:"color"`
	ClearScreen bool            `yaml:"clear_screen"`
	PaneLines   PaneLinesConfig `yaml:"pane_lines"`
}

// PaneLinesConfig sizes the panes of the plain console renderer
type PaneLinesConfig struct {
	Stats    int `yaml:"stats"`
	Activity int `yaml:"activity"`
	Failures int `yaml:"failures"`
	System   int `yaml:"system"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
	ToStderr      bool   `yaml:"to_stderr"`
}

// Load loads configuration from a YAML file and applies defaults
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve picks the config path: explicit flag value, then the
// AGENTWATCH_CONFIG environment variable, then DefaultPath.
func Resolve(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("AGENTWATCH_CONFIG"); env != "" {
		return env
	}
	return DefaultPath
}

func (c *Config) applyDefaults() {
	if c.Poll.IntervalMS <= 0 {
		c.Poll.IntervalMS = 3000
	}
	if c.Poll.RequestTimeoutMS <= 0 {
		c.Poll.RequestTimeoutMS = 2500
	}
	if c.UI.Mode == "" {
		c.UI.Mode = "tview"
	}
	if c.UI.RefreshMS <= 0 {
		c.UI.RefreshMS = 1000
	}
	if c.UI.TargetFPS <= 0 {
		c.UI.TargetFPS = 30
	}
	if c.UI.EventBuffer <= 0 {
		c.UI.EventBuffer = 1000
	}
	if c.UI.PaneLines.Stats <= 0 {
		c.UI.PaneLines.Stats = 24
	}
	if c.UI.PaneLines.Activity <= 0 {
		c.UI.PaneLines.Activity = 8
	}
	if c.UI.PaneLines.Failures <= 0 {
		c.UI.PaneLines.Failures = 5
	}
	if c.UI.PaneLines.System <= 0 {
		c.UI.PaneLines.System = 5
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = 7
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Agent.URL) == "" {
		return fmt.Errorf("agent.url is required")
	}
	switch c.UI.Mode {
	case "ansi":
		c.UI.Mode = "console"
	case "tview", "console", "headless":
	default:
		return fmt.Errorf("ui.mode %q is not one of tview, console, headless", c.UI.Mode)
	}
	return nil
}

// Print displays the configuration with credentials redacted
func (c *Config) Print() {
	fmt.Printf("Agent: %s (user %s)\n", c.Agent.URL, redact(c.Agent.Username))
	fmt.Printf("Poll: every %dms, timeout %dms\n", c.Poll.IntervalMS, c.Poll.RequestTimeoutMS)
	fmt.Printf("UI: %s (refresh %dms)\n", c.UI.Mode, c.UI.RefreshMS)
	if c.Logging.Dir != "" {
		fmt.Printf("Logging: %s (keep %d days)\n", c.Logging.Dir, c.Logging.RetentionDays)
	}
}

func redact(s string) string {
	if s == "" {
		return "(none)"
	}
	return s[:1] + "***"
}
