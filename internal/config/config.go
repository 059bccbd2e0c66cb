package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// HandlerDecl declares a command handler that is loaded lazily on first use.
type HandlerDecl struct {
	CommandID  string            `yaml:"command"`              // Command the handler serves
	Priority   int               `yaml:"priority"`             // Higher wins when several handlers are active
	Class      string            `yaml:"class"`                // Registered handler class to instantiate
	Context    string            `yaml:"context,omitempty"`    // Context that must be active, empty for always
	Attributes map[string]string `yaml:"attributes,omitempty"` // Extra attributes passed to the handler
}

// FilterDecl declares a preference transfer filter offered by the import page.
type FilterDecl struct {
	ID          string              `yaml:"id"`
	Name        string              `yaml:"name"`
	Description string              `yaml:"description,omitempty"`
	Scopes      []string            `yaml:"scopes"`         // Scopes the filter covers, e.g. instance
	Nodes       map[string][]string `yaml:"nodes,omitempty"` // Node glob -> key globs (empty = all keys)
}

// Config represents the application configuration structure.
type Config struct {
	Logging struct {
		Level string `yaml:"level"` // debug, info, warn or error
		JSON  bool   `yaml:"json"`  // Emit JSON entries
		File  string `yaml:"file"`  // Optional log file
	} `yaml:"logging"`
	Variables struct {
		File  string   `yaml:"file"`  // Registry of committed path variables
		Kinds []string `yaml:"kinds"` // Allowed chooser kinds: file, folder
	} `yaml:"variables"`
	Probe struct {
		Cache bool `yaml:"cache"` // Remember the most recent existence answer
		Watch bool `yaml:"watch"` // Drop the cached answer on filesystem events (implies cache)
	} `yaml:"probe"`
	Preferences map[string]string `yaml:"preferences"` // Persisted general preference values
	Handlers    []HandlerDecl     `yaml:"handlers"`
	Import      struct {
		Filters []FilterDecl `yaml:"filters"`
	} `yaml:"import"`
}

// DefaultPath returns ~/.config/workbench/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "workbench", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(configPath)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if tempCfg.Logging.Level != "" {
		cfg.Logging.Level = tempCfg.Logging.Level
	}
	cfg.Logging.JSON = tempCfg.Logging.JSON
	cfg.Logging.File = tempCfg.Logging.File

	if tempCfg.Variables.File != "" {
		cfg.Variables.File = tempCfg.Variables.File
	}
	if len(tempCfg.Variables.Kinds) > 0 {
		cfg.Variables.Kinds = tempCfg.Variables.Kinds
	}

	cfg.Probe.Cache = tempCfg.Probe.Cache
	cfg.Probe.Watch = tempCfg.Probe.Watch

	for k, v := range tempCfg.Preferences {
		cfg.Preferences[k] = v
	}
	if len(tempCfg.Handlers) > 0 {
		cfg.Handlers = tempCfg.Handlers
	}
	if len(tempCfg.Import.Filters) > 0 {
		cfg.Import.Filters = tempCfg.Import.Filters
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Logging.Level = "info"

	cfg.Variables.File = defaultVariablesFile()
	cfg.Variables.Kinds = []string{"file", "folder"}

	cfg.Probe.Cache = true
	cfg.Probe.Watch = false

	cfg.Preferences = make(map[string]string)
	cfg.Handlers = []HandlerDecl{}

	cfg.Import.Filters = []FilterDecl{
		{
			ID:     "workbench",
			Name:   "Workbench",
			Scopes: []string{"instance"},
			Nodes:  map[string][]string{"org.eclipse.ui.workbench": nil},
		},
		{
			ID:     "path-variables",
			Name:   "Path variables",
			Scopes: []string{"instance"},
			Nodes:  map[string][]string{"org.eclipse.core.resources": {"pathvariable.*"}},
		},
		{
			ID:          "all-ui",
			Name:        "All UI preferences",
			Description: "Every org.eclipse.ui node",
			Scopes:      []string{"instance"},
			Nodes:       map[string][]string{"org.eclipse.ui*": nil},
		},
	}

	return cfg
}

func defaultVariablesFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "variables.yaml"
	}
	return filepath.Join(home, ".config", "workbench", "variables.yaml")
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Variables.File == "" {
		return fmt.Errorf("variables file is required")
	}
	for _, kind := range c.Variables.Kinds {
		if kind != "file" && kind != "folder" {
			return fmt.Errorf("invalid variable kind: %s", kind)
		}
	}

	seen := make(map[string]bool)
	for i, h := range c.Handlers {
		if h.CommandID == "" {
			return fmt.Errorf("handler %d: command is required", i)
		}
		if h.Class == "" {
			return fmt.Errorf("handler %d: class is required", i)
		}
		key := h.CommandID + "\x00" + h.Context
		if seen[key] && h.Priority == 0 {
			return fmt.Errorf("handler %d: duplicate handler for %s needs a priority", i, h.CommandID)
		}
		seen[key] = true
	}

	for i, f := range c.Import.Filters {
		if f.ID == "" {
			return fmt.Errorf("import filter %d: id is required", i)
		}
		if len(f.Scopes) == 0 {
			return fmt.Errorf("import filter %s: at least one scope is required", f.ID)
		}
	}

	return nil
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}

// NewTestConfig creates a configuration instance for testing purposes.
func NewTestConfig(dir string) *Config {
	cfg := defaultConfig()
	cfg.Variables.File = filepath.Join(dir, "variables.yaml")
	cfg.Probe.Cache = false
	return cfg
}
