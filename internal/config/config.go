// Package config handles application configuration: the global YAML config
// file, per-document front matter, and the layered resolution between them.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// FeishuConfig holds the connection settings for the Feishu bitable remote.
// The bot secret is never stored here; it comes from the keyring or the
// TUIDO_FEISHU_BOT_SECRET environment variable.
type FeishuConfig struct {
	APIEndpoint string `yaml:"api_endpoint"`
	BotAppID    string `yaml:"bot_app_id"`
}

// Config represents the global application configuration loaded from
// ~/.config/tuido/config.yaml.
type Config struct {
	Theme  string       `yaml:"theme"`
	Feishu FeishuConfig `yaml:"feishu"`
}

// RemoteTable identifies one bitable the document syncs against. Declared in
// the document front matter so each project can point at its own table.
type RemoteTable struct {
	APIEndpoint   string `yaml:"feishu_api_endpoint,omitempty"`
	TableAppToken string `yaml:"feishu_table_app_token,omitempty"`
	TableID       string `yaml:"feishu_table_id,omitempty"`
	TableViewID   string `yaml:"feishu_table_view_id,omitempty"`
	Project       string `yaml:"project,omitempty"`
}

// FrontMatter is the configuration block at the top of a task document.
// The original document node is retained so keys this tool does not know
// about survive a parse/serialize round trip.
type FrontMatter struct {
	Theme  string       `yaml:"theme,omitempty"`
	Remote *RemoteTable `yaml:"remote,omitempty"`

	raw *yaml.Node
}

// ParseFrontMatter decodes a front matter block.
func ParseFrontMatter(src []byte) (*FrontMatter, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(src, &node); err != nil {
		return nil, fmt.Errorf("invalid YAML in front matter: %w", err)
	}

	fm := &FrontMatter{}
	if err := node.Decode(fm); err != nil {
		return nil, fmt.Errorf("invalid front matter: %w", err)
	}
	if node.Kind != 0 {
		fm.raw = &node
	}
	return fm, nil
}

// Empty reports whether the front matter carries no configuration.
func (f *FrontMatter) Empty() bool {
	return f == nil || (f.Theme == "" && f.Remote == nil && f.raw == nil)
}

// Marshal re-emits the front matter as YAML. When the block was parsed from
// a document the original node is used so key order and unknown keys are
// preserved; programmatically built front matter marshals the struct.
func (f *FrontMatter) Marshal() ([]byte, error) {
	if f.raw != nil {
		return yaml.Marshal(f.raw)
	}
	return yaml.Marshal(f)
}

// Settings is the fully resolved configuration for one invocation, produced
// once per load by Resolve. Precedence: explicit flag values, then document
// front matter, then the global config file, then built-in defaults.
type Settings struct {
	Theme       string
	APIEndpoint string
	BotAppID    string
	Table       RemoteTable
}

// Overrides carries explicit call-site values (CLI flags).
type Overrides struct {
	Theme   string
	Project string
}

// DefaultTheme is used when no layer sets one.
const DefaultTheme = "dracula"

// Resolve merges the configuration layers into one Settings value.
func Resolve(flags Overrides, fm *FrontMatter, global *Config) Settings {
	s := Settings{Theme: DefaultTheme}

	if global != nil {
		if global.Theme != "" {
			s.Theme = global.Theme
		}
		s.APIEndpoint = global.Feishu.APIEndpoint
		s.BotAppID = global.Feishu.BotAppID
	}

	if fm != nil {
		if fm.Theme != "" {
			s.Theme = fm.Theme
		}
		if fm.Remote != nil {
			s.Table = *fm.Remote
			if fm.Remote.APIEndpoint != "" {
				s.APIEndpoint = fm.Remote.APIEndpoint
			}
		}
	}

	if flags.Theme != "" {
		s.Theme = flags.Theme
	}
	if flags.Project != "" {
		s.Table.Project = flags.Project
	}

	return s
}

// HasRemote reports whether enough table settings are present to sync.
func (s Settings) HasRemote() bool {
	return s.APIEndpoint != "" &&
		s.Table.TableAppToken != "" &&
		s.Table.TableID != "" &&
		s.Table.TableViewID != ""
}

// MissingRemoteFields names the table settings still unset, for error text.
func (s Settings) MissingRemoteFields() []string {
	var missing []string
	if s.APIEndpoint == "" {
		missing = append(missing, "feishu_api_endpoint")
	}
	if s.Table.TableAppToken == "" {
		missing = append(missing, "feishu_table_app_token")
	}
	if s.Table.TableID == "" {
		missing = append(missing, "feishu_table_id")
	}
	if s.Table.TableViewID == "" {
		missing = append(missing, "feishu_table_view_id")
	}
	return missing
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Theme: DefaultTheme,
	}
}

// Load loads the global configuration from the specified path, or the
// default XDG path if empty. A missing file is not an error; defaults are
// returned and the sample config is written so the user has a template.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := writeSample(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}
	if cfg.Theme == "" {
		cfg.Theme = DefaultTheme
	}
	return cfg, nil
}

// writeSample writes the embedded sample config, creating directories.
func writeSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "tuido")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "tuido")
	}
	return filepath.Join(home, fallbackPath, "tuido")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
