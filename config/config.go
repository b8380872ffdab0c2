// Package config provides YAML and TOML configuration parsing for Waypoint.
//
// This package enables running Waypoint as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	initial_path: /inbox
//	max_entries: 100
//	confirm: prompt
//	confirm_timeout: 30s
//
//	journal:
//	  driver: sqlite
//	  path: ${WAYPOINT_DATA:-./data}/journal.db
//
//	guards:
//	  - name: unsaved draft
//	    prefix: /compose
//	    state_path: draft.dirty
//	    message: Discard the unsaved draft?
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort        = 8080
	defaultInitialPath = "/"

	// maxConfirmTimeout caps confirm_timeout so a forgotten prompt cannot
	// keep a transition pending for hours.
	maxConfirmTimeout = 10 * time.Minute
)

// Confirmation modes.
const (
	ConfirmAlways = "always"
	ConfirmNever  = "never"
	ConfirmPrompt = "prompt"
)

// Journal drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the root configuration structure for Waypoint.
//
// It maps directly to the configuration file structure.
// Use [Load], [Parse] or [ParseTOML] to create a Config.
type Config struct {
	// Port is the inspector HTTP port. Defaults to 8080.
	Port int `yaml:"port" toml:"port"`

	// InitialPath is the path of the first entry. Defaults to "/".
	InitialPath string `yaml:"initial_path" toml:"initial_path"`

	// MaxEntries bounds the entry stack. Zero means unbounded.
	MaxEntries int `yaml:"max_entries" toml:"max_entries"`

	// Confirm selects how guarded transitions are confirmed:
	// "always" (default), "never" or "prompt".
	Confirm string `yaml:"confirm" toml:"confirm"`

	// ConfirmTimeout bounds how long a prompt waits for an answer.
	// Zero waits indefinitely.
	ConfirmTimeout Duration `yaml:"confirm_timeout" toml:"confirm_timeout"`

	// Journal configures the commit journal.
	Journal JournalConfig `yaml:"journal" toml:"journal"`

	// Guards define transition hooks that ask for confirmation.
	Guards []GuardConfig `yaml:"guards" toml:"guards"`
}

// JournalConfig configures the commit journal.
type JournalConfig struct {
	// Driver is "memory" (default) or "sqlite".
	Driver string `yaml:"driver" toml:"driver"`

	// Path is the SQLite database file. Required for the sqlite driver.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Path string `yaml:"path" toml:"path"`

	// Capacity is the number of records kept in memory, or the number of
	// keys cached for sqlite lookups.
	Capacity int `yaml:"capacity" toml:"capacity"`
}

// GuardConfig defines a transition hook that asks for confirmation when
// leaving a section of the application.
//
// A guard fires when the current pathname starts with Prefix and the
// target pathname does not. If StatePath is set, the guard additionally
// requires the current state, encoded as JSON, to hold a truthy value at
// that gjson path (for example "draft.dirty").
type GuardConfig struct {
	// Name identifies the guard in errors and logs.
	Name string `yaml:"name" toml:"name"`

	// Prefix is the pathname prefix being guarded.
	Prefix string `yaml:"prefix" toml:"prefix"`

	// StatePath is an optional gjson path into the current state.
	StatePath string `yaml:"state_path" toml:"state_path"`

	// Message is shown to the user. Supports environment variable substitution.
	Message string `yaml:"message" toml:"message"`
}

// Duration wraps time.Duration for YAML and TOML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a configuration file.
//
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in initial_path, journal.path and
// guard messages. Defaults are applied before validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return finish(&cfg)
}

// ParseTOML parses TOML configuration data. See [Parse].
func ParseTOML(data []byte) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.InitialPath == "" {
		cfg.InitialPath = defaultInitialPath
	}
	if cfg.Confirm == "" {
		cfg.Confirm = ConfirmAlways
	}
	if cfg.Journal.Driver == "" {
		cfg.Journal.Driver = DriverMemory
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	expanded, err := expandEnvVars(c.InitialPath)
	if err != nil {
		return fmt.Errorf("initial_path: %w", err)
	}
	c.InitialPath = expanded
	if !strings.HasPrefix(c.InitialPath, "/") {
		return fmt.Errorf("initial_path must start with /, got %q", c.InitialPath)
	}

	if c.MaxEntries < 0 {
		return fmt.Errorf("max_entries cannot be negative, got %d", c.MaxEntries)
	}

	switch c.Confirm {
	case ConfirmAlways, ConfirmNever, ConfirmPrompt:
	default:
		return fmt.Errorf("confirm must be always, never or prompt, got %q", c.Confirm)
	}

	if c.ConfirmTimeout.Duration() < 0 {
		return fmt.Errorf("confirm_timeout cannot be negative, got %s", c.ConfirmTimeout.Duration())
	}
	if c.ConfirmTimeout.Duration() > maxConfirmTimeout {
		return fmt.Errorf("confirm_timeout must not exceed %s, got %s", maxConfirmTimeout, c.ConfirmTimeout.Duration())
	}

	if err := c.Journal.expandAndValidate(); err != nil {
		return err
	}

	for i := range c.Guards {
		if err := c.Guards[i].expandAndValidate(i); err != nil {
			return err
		}
	}

	return nil
}

func (j *JournalConfig) expandAndValidate() error {
	if j.Capacity < 0 {
		return fmt.Errorf("journal.capacity cannot be negative, got %d", j.Capacity)
	}

	switch j.Driver {
	case DriverMemory:
		if j.Path != "" {
			return errors.New("journal.path is only valid with the sqlite driver")
		}
	case DriverSQLite:
		if j.Path == "" {
			return errors.New("journal.path is required for the sqlite driver")
		}
		expanded, err := expandEnvVars(j.Path)
		if err != nil {
			return fmt.Errorf("journal.path: %w", err)
		}
		j.Path = expanded
	default:
		return fmt.Errorf("journal.driver must be memory or sqlite, got %q", j.Driver)
	}
	return nil
}

func (g *GuardConfig) expandAndValidate(i int) error {
	label := fmt.Sprintf("guards[%d]", i)
	if g.Name != "" {
		label = fmt.Sprintf("guards[%d] (%s)", i, g.Name)
	}

	if g.Prefix == "" {
		return fmt.Errorf("%s: prefix is required", label)
	}
	if !strings.HasPrefix(g.Prefix, "/") {
		return fmt.Errorf("%s: prefix must start with /, got %q", label, g.Prefix)
	}

	if g.Message == "" {
		return fmt.Errorf("%s: message is required", label)
	}
	expanded, err := expandEnvVars(g.Message)
	if err != nil {
		return fmt.Errorf("%s: message: %w", label, err)
	}
	g.Message = expanded

	return nil
}
