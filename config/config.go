// Package config loads boulevard configuration from standard locations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// ErrInsecurePermissions is returned when a config file carrying
// connector API keys is readable by group or others.
var ErrInsecurePermissions = fmt.Errorf("config file has insecure permissions")

// Config holds the full boulevard configuration.
type Config struct {
	// DataDir holds the project store and other persistent state.
	// Default: ~/.boulevard
	DataDir string `toml:"data_dir"`

	// ProjectsDir is where scaffolded projects are created.
	// Default: ~/projects
	ProjectsDir string `toml:"projects_dir"`

	// TemplatesDir optionally overrides the embedded templates.
	TemplatesDir string `toml:"templates_dir"`

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string `toml:"log_level"`

	// Agents names the stock agents registered by the CLI.
	Agents AgentsConfig `toml:"agents"`

	// Connectors configures external services by name
	// (e.g. [connectors.crewai], [connectors.taskade]).
	Connectors map[string]ConnectorConfig `toml:"connectors"`
}

// AgentsConfig names the stock agents.
type AgentsConfig struct {
	Builder        string `toml:"builder"`
	ProjectManager string `toml:"project_manager"`
}

// ConnectorConfig holds one external service's settings.
type ConnectorConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		DataDir:     ".boulevard",
		ProjectsDir: "projects",
		LogLevel:    "info",
		Agents: AgentsConfig{
			Builder:        "builder-1",
			ProjectManager: "pm-1",
		},
		Connectors: make(map[string]ConnectorConfig),
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.DataDir = filepath.Join(home, ".boulevard")
		cfg.ProjectsDir = filepath.Join(home, "projects")
	}
	return cfg
}

// StandardPaths returns the config file locations in order of priority.
func StandardPaths() []string {
	paths := []string{"boulevard.toml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "boulevard", "boulevard.toml"),
			filepath.Join(home, ".boulevard", "boulevard.toml"),
		)
	}

	return paths
}

// Load reads the first config file found in the standard locations.
// No file found is not an error: defaults are returned.
func Load() (*Config, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadFile(path)
			if err != nil {
				return nil, path, err
			}
			return cfg, path, nil
		}
	}
	return Default(), "", nil
}

// LoadFile loads configuration from a specific file, applying defaults
// for unset fields. Files that carry connector API keys must not be
// readable by group or others.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if cfg.hasSecrets() && runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if mode := info.Mode().Perm(); mode&0o077 != 0 {
			return nil, fmt.Errorf("%w: %s has mode %04o (must not be group/world readable)",
				ErrInsecurePermissions, path, mode)
		}
	}

	return cfg, nil
}

// hasSecrets reports whether any connector carries an API key.
func (c *Config) hasSecrets() bool {
	for _, conn := range c.Connectors {
		if conn.APIKey != "" {
			return true
		}
	}
	return false
}

// Connector returns the named connector config and whether it is set.
func (c *Config) Connector(name string) (ConnectorConfig, bool) {
	conn, ok := c.Connectors[name]
	return conn, ok
}
