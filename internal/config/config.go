package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/guards"
	"github.com/mcncl/jsontree/internal/logging"
	"github.com/mcncl/jsontree/internal/tree"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for jsontree
type Config struct {
	Tree   TreeConfig   `yaml:"tree"`
	Limits LimitsConfig `yaml:"limits"`
	Output OutputConfig `yaml:"output"`
	Server ServerConfig `yaml:"server"`
	Dev    DevConfig    `yaml:"dev"`
}

// TreeConfig controls how the tree is rendered and revealed
type TreeConfig struct {
	EnableLazy              bool   `yaml:"enable_lazy"`
	VirtualizationThreshold int    `yaml:"virtualization_threshold"`
	LazyRenderThreshold     int    `yaml:"lazy_render_threshold"`
	MaxInitialRender        int    `yaml:"max_initial_render"`
	RootMargin              string `yaml:"root_margin"`
}

// LimitsConfig bounds the documents the tree view accepts
type LimitsConfig struct {
	WarningSize  int64 `yaml:"warning_size"`
	MaxSize      int64 `yaml:"max_size"`
	MaxTreeDepth int   `yaml:"max_tree_depth"`
	MaxTreeNodes int   `yaml:"max_tree_nodes"`
}

// OutputConfig controls the rendered page
type OutputConfig struct {
	Title  string `yaml:"title"`
	Lang   string `yaml:"lang"`
	Format string `yaml:"format"` // "html" or "text"
}

// ServerConfig controls the preview server
type ServerConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Debounce time.Duration `yaml:"debounce"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug     bool   `yaml:"debug"`
	LogFormat string `yaml:"log_format"`
}

// Output formats
const (
	FormatHTML = "html"
	FormatText = "text"
)

var rootMarginPattern = regexp.MustCompile(`^-?\d+(\.\d+)?(px|%)$`)

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	limits := guards.DefaultLimits()
	return &Config{
		Tree: TreeConfig{
			EnableLazy:              true,
			VirtualizationThreshold: tree.VirtualizationThreshold,
			LazyRenderThreshold:     tree.LazyRenderThreshold,
			MaxInitialRender:        tree.MaxInitialRender,
			RootMargin:              tree.DefaultRootMargin,
		},
		Limits: LimitsConfig{
			WarningSize:  limits.WarningSize,
			MaxSize:      limits.MaxSize,
			MaxTreeDepth: limits.MaxTreeDepth,
			MaxTreeNodes: limits.MaxTreeNodes,
		},
		Output: OutputConfig{
			Title:  "JSON Tree",
			Lang:   "en",
			Format: FormatHTML,
		},
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8080,
			Debounce: 300 * time.Millisecond,
		},
		Dev: DevConfig{
			Debug:     false,
			LogFormat: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read config file", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsontree.yml", ".jsontree.yaml", "jsontree.yml", "jsontree.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate reports every setting that cannot be used.
func (c *Config) Validate() error {
	var problems []string

	if c.Tree.VirtualizationThreshold <= 0 {
		problems = append(problems, "tree.virtualization_threshold must be positive")
	}
	if c.Tree.LazyRenderThreshold <= 0 {
		problems = append(problems, "tree.lazy_render_threshold must be positive")
	}
	if c.Tree.MaxInitialRender <= 0 {
		problems = append(problems, "tree.max_initial_render must be positive")
	}
	if !rootMarginPattern.MatchString(c.Tree.RootMargin) {
		problems = append(problems, fmt.Sprintf("tree.root_margin %q is not a CSS length like 50px", c.Tree.RootMargin))
	}

	if c.Limits.MaxSize <= 0 {
		problems = append(problems, "limits.max_size must be positive")
	}
	if c.Limits.WarningSize > c.Limits.MaxSize {
		problems = append(problems, "limits.warning_size must not exceed limits.max_size")
	}
	if c.Limits.MaxTreeDepth <= 0 || c.Limits.MaxTreeNodes <= 0 {
		problems = append(problems, "limits.max_tree_depth and limits.max_tree_nodes must be positive")
	}

	switch c.Output.Format {
	case FormatHTML, FormatText:
	default:
		problems = append(problems, fmt.Sprintf("output.format %q must be html or text", c.Output.Format))
	}
	if _, err := language.Parse(c.Output.Lang); err != nil {
		problems = append(problems, fmt.Sprintf("output.lang %q is not a language tag", c.Output.Lang))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.Debounce < 0 {
		problems = append(problems, "server.debounce must not be negative")
	}

	switch strings.ToLower(c.Dev.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("dev.log_format %q must be text or json", c.Dev.LogFormat))
	}

	if len(problems) > 0 {
		return errors.NewConfigError(strings.Join(problems, "; "), nil)
	}
	return nil
}

// TreeOptions converts the tree settings into render options.
func (c *Config) TreeOptions(logger logging.Logger) tree.Options {
	return tree.Options{
		DisableLazy: !c.Tree.EnableLazy,
		Thresholds:  tree.Thresholds{
			Virtualization:   c.Tree.VirtualizationThreshold,
			LazyRender:       c.Tree.LazyRenderThreshold,
			MaxInitialRender: c.Tree.MaxInitialRender,
		},
		RootMargin: c.Tree.RootMargin,
		Lang:       c.Output.Lang,
		Logger:     logger,
	}
}

// GuardLimits converts the limits section.
func (c *Config) GuardLimits() guards.Limits {
	return guards.Limits{
		WarningSize:  c.Limits.WarningSize,
		MaxSize:      c.Limits.MaxSize,
		MaxTreeDepth: c.Limits.MaxTreeDepth,
		MaxTreeNodes: c.Limits.MaxTreeNodes,
	}
}

// LoggerConfig builds the logger settings from the dev section.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultConfig()
	lc.Format = c.Dev.LogFormat
	if c.Dev.Debug {
		lc.Level = logging.LevelDebug
	}
	return lc
}

// Overrides are values given on the command line. Zero values mean the
// flag was not set.
type Overrides struct {
	NoLazy    bool
	Title     string
	Format    string
	Lang      string
	Host      string
	Port      int
	Debug     bool
	LogFormat string
}

// MergeConfigs applies CLI overrides to a base config.
// Non-empty values from override take precedence over base values
func MergeConfigs(base *Config, override Overrides) *Config {
	merged := *base

	if override.Title != "" {
		merged.Output.Title = override.Title
	}
	if override.Format != "" {
		merged.Output.Format = override.Format
	}
	if override.Lang != "" {
		merged.Output.Lang = override.Lang
	}
	if override.Host != "" {
		merged.Server.Host = override.Host
	}
	if override.Port != 0 {
		merged.Server.Port = override.Port
	}
	if override.LogFormat != "" {
		merged.Dev.LogFormat = override.LogFormat
	}

	// Boolean flags can only switch a setting on or lazy rendering off.
	if override.NoLazy {
		merged.Tree.EnableLazy = false
	}
	if override.Debug {
		merged.Dev.Debug = true
	}

	return &merged
}

// LoadConfigWithCLI loads config with CLI argument precedence:
// CLI > config file > defaults.
func LoadConfigWithCLI(configPath string, override Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	cfg = MergeConfigs(cfg, override)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
