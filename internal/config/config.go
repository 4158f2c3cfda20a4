// Package config loads roficlip settings and named actions from a YAML
// document. A missing file yields the defaults; a present file overlays the
// defaults key by key within the settings and actions sections.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Config is the complete roficlip configuration
type Config struct {
	Settings Settings `yaml:"settings"`
	// Actions maps a display name to a command template; every "%s" in the
	// template is replaced by the clipboard text when the action runs
	Actions map[string]string `yaml:"actions"`
}

// Settings holds the scalar options
type Settings struct {
	// RingSize is the history capacity
	RingSize int `yaml:"ring_size"`
	// PreviewWidth is the menu line width in display cells
	PreviewWidth int `yaml:"preview_width"`
	// NewlineChar replaces line breaks in previews and in the edit buffer
	NewlineChar string `yaml:"newline_char"`
	// CommentChar prefixes a comment moved to the front of a persistent entry
	CommentChar string `yaml:"comment_char"`
	Notify      bool   `yaml:"notify"`
	// NotifyTimeout is in seconds
	NotifyTimeout     int  `yaml:"notify_timeout"`
	ShowCommentsFirst bool `yaml:"show_comments_first"`
	// Editor overrides $VISUAL/$EDITOR for --edit
	Editor string `yaml:"editor"`
	// APIPort enables the local HTTP API when > 0
	APIPort int `yaml:"api_port"`
	// Archive mirrors history into a searchable SQLite database
	Archive  bool   `yaml:"archive"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Settings: Settings{
			RingSize:          20,
			PreviewWidth:      100,
			NewlineChar:       "¬",
			CommentChar:       "©",
			Notify:            true,
			NotifyTimeout:     1,
			ShowCommentsFirst: false,
			LogLevel:          "info",
		},
		Actions: map[string]string{},
	}
}

// Load reads the config file at path over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.overlay(data); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// overlay decodes data into the already-populated config, so only keys
// present in the document change.
func (c *Config) overlay(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	if c.Actions == nil {
		c.Actions = map[string]string{}
	}
	return nil
}

// Validate checks the settings for values the program cannot work with
func (c *Config) Validate() error {
	var errs []error
	s := c.Settings
	if s.RingSize < 1 {
		errs = append(errs, fmt.Errorf("ring_size must be at least 1, got %d", s.RingSize))
	}
	if s.PreviewWidth < 1 {
		errs = append(errs, fmt.Errorf("preview_width must be at least 1, got %d", s.PreviewWidth))
	}
	if utf8.RuneCountInString(s.NewlineChar) != 1 {
		errs = append(errs, fmt.Errorf("newline_char must be a single character, got %q", s.NewlineChar))
	}
	if s.NotifyTimeout < 0 {
		errs = append(errs, fmt.Errorf("notify_timeout must not be negative, got %d", s.NotifyTimeout))
	}
	if s.APIPort < 0 || s.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("api_port out of range: %d", s.APIPort))
	}
	switch strings.ToLower(s.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", s.LogLevel))
	}
	for name, tmpl := range c.Actions {
		if strings.TrimSpace(tmpl) == "" {
			errs = append(errs, fmt.Errorf("action %q has an empty command", name))
		}
	}
	return errors.Join(errs...)
}

// NotifyDuration returns the notification timeout
func (c *Config) NotifyDuration() time.Duration {
	return time.Duration(c.Settings.NotifyTimeout) * time.Second
}

// ActionNames returns the configured action names in sorted order
func (c *Config) ActionNames() []string {
	names := make([]string, 0, len(c.Actions))
	for name := range c.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
