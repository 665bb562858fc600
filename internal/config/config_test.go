package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, pattern, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), pattern)
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg := NewConfig()

	assert.True(t, cfg.Tree.EnableLazy)
	assert.Equal(t, 1000, cfg.Tree.VirtualizationThreshold)
	assert.Equal(t, 50, cfg.Tree.LazyRenderThreshold)
	assert.Equal(t, 100, cfg.Tree.MaxInitialRender)
	assert.Equal(t, "50px", cfg.Tree.RootMargin)
	assert.Equal(t, int64(1024*1024), cfg.Limits.WarningSize)
	assert.Equal(t, int64(5*1024*1024), cfg.Limits.MaxSize)
	assert.Equal(t, 50, cfg.Limits.MaxTreeDepth)
	assert.Equal(t, 10000, cfg.Limits.MaxTreeNodes)
	assert.Equal(t, FormatHTML, cfg.Output.Format)
	assert.Equal(t, "en", cfg.Output.Lang)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 300*time.Millisecond, cfg.Server.Debounce)
	assert.False(t, cfg.Dev.Debug)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoadFromYAML(t *testing.T) {
	yamlContent := `
tree:
  enable_lazy: false
  lazy_render_threshold: 20
  max_initial_render: 40
  root_margin: "120px"
limits:
  max_tree_nodes: 500
output:
  title: "Payload"
  lang: "de"
  format: "text"
server:
  port: 9000
  debounce: 1s
dev:
  debug: true
  log_format: "json"
`
	cfg, err := LoadConfig(writeTemp(t, "config_test_*.yml", yamlContent))
	require.NoError(t, err)

	assert.False(t, cfg.Tree.EnableLazy)
	assert.Equal(t, 20, cfg.Tree.LazyRenderThreshold)
	assert.Equal(t, 40, cfg.Tree.MaxInitialRender)
	assert.Equal(t, "120px", cfg.Tree.RootMargin)
	assert.Equal(t, 500, cfg.Limits.MaxTreeNodes)
	assert.Equal(t, "Payload", cfg.Output.Title)
	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.Server.Debounce)
	assert.True(t, cfg.Dev.Debug)
	assert.Equal(t, "json", cfg.Dev.LogFormat)

	// Unset keys keep their defaults
	assert.Equal(t, 1000, cfg.Tree.VirtualizationThreshold)
	assert.Equal(t, 50, cfg.Limits.MaxTreeDepth)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestConfig_LoadNonExistentFile(t *testing.T) {
	_, err := LoadConfig("/non/existent/config.yml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no such file or directory")
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeConfig}))
}

func TestConfig_LoadInvalidYAML(t *testing.T) {
	invalidYAML := `
output:
  title: "x"
invalid_yaml: [unclosed array
`
	_, err := LoadConfig(writeTemp(t, "invalid_*.yml", invalidYAML))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestConfig_LoadRejectsInvalidValues(t *testing.T) {
	_, err := LoadConfig(writeTemp(t, "bad_*.yml", "tree:\n  root_margin: wide\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tree.root_margin")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"percent margin", func(c *Config) { c.Tree.RootMargin = "10%" }, ""},
		{"zero lazy threshold", func(c *Config) { c.Tree.LazyRenderThreshold = 0 }, "tree.lazy_render_threshold"},
		{"negative max initial", func(c *Config) { c.Tree.MaxInitialRender = -1 }, "tree.max_initial_render"},
		{"bad margin", func(c *Config) { c.Tree.RootMargin = "50" }, "tree.root_margin"},
		{"warning above max", func(c *Config) { c.Limits.WarningSize = c.Limits.MaxSize + 1 }, "limits.warning_size"},
		{"zero depth", func(c *Config) { c.Limits.MaxTreeDepth = 0 }, "limits.max_tree_depth"},
		{"unknown format", func(c *Config) { c.Output.Format = "pdf" }, "output.format"},
		{"bad lang", func(c *Config) { c.Output.Lang = "not a tag!" }, "output.lang"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative debounce", func(c *Config) { c.Server.Debounce = -time.Second }, "server.debounce"},
		{"unknown log format", func(c *Config) { c.Dev.LogFormat = "xml" }, "dev.log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, errors.UserFriendlyError(err), "Configuration error")
		})
	}
}

func TestConfig_FindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	nestedDir := filepath.Join(tmpDir, "project", "subdir")
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))

	configPath := filepath.Join(tmpDir, "project", ".jsontree.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(`output: {title: "found"}`), 0o644))

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(nestedDir))

	// Should find it in the parent directory
	foundPath := FindConfigFile()
	require.NotEmpty(t, foundPath, "Should find config file")

	foundContent, err := os.ReadFile(foundPath)
	require.NoError(t, err)
	assert.Contains(t, string(foundContent), `title: "found"`)
}

func TestConfig_FindConfigFileNotFound(t *testing.T) {
	tmpDir := t.TempDir()

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(tmpDir))

	assert.Empty(t, FindConfigFile())
}

func TestConfig_TreeOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Tree.LazyRenderThreshold = 7
	cfg.Output.Lang = "fr"

	opts := cfg.TreeOptions(logging.Nop())
	assert.False(t, opts.DisableLazy)
	assert.Equal(t, 7, opts.Thresholds.LazyRender)
	assert.Equal(t, 100, opts.Thresholds.MaxInitialRender)
	assert.Equal(t, 1000, opts.Thresholds.Virtualization)
	assert.Equal(t, "50px", opts.RootMargin)
	assert.Equal(t, "fr", opts.Lang)
	assert.NotNil(t, opts.Logger)
}

func TestConfig_GuardLimits(t *testing.T) {
	cfg := NewConfig()
	cfg.Limits.MaxTreeNodes = 42

	limits := cfg.GuardLimits()
	assert.Equal(t, 42, limits.MaxTreeNodes)
	assert.Equal(t, cfg.Limits.MaxSize, limits.MaxSize)
}

func TestConfig_LoggerConfig(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, logging.LevelInfo, cfg.LoggerConfig().Level)

	cfg.Dev.Debug = true
	cfg.Dev.LogFormat = "json"
	lc := cfg.LoggerConfig()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)
}

func TestConfig_MergeWithCLI(t *testing.T) {
	base := NewConfig()
	base.Output.Title = "From file"
	base.Server.Port = 9000

	merged := MergeConfigs(base, Overrides{
		NoLazy: true,
		Format: FormatText,
		Port:   0, // not set
		Debug:  true,
	})

	assert.False(t, merged.Tree.EnableLazy)
	assert.Equal(t, FormatText, merged.Output.Format)
	assert.Equal(t, "From file", merged.Output.Title)
	assert.Equal(t, 9000, merged.Server.Port)
	assert.True(t, merged.Dev.Debug)

	// base is untouched
	assert.True(t, base.Tree.EnableLazy)
	assert.Equal(t, FormatHTML, base.Output.Format)
}

func TestLoadConfigWithPrecedence(t *testing.T) {
	configYAML := `
output:
  title: "Response"
  format: "text"
server:
  port: 9100
`
	cfg, err := LoadConfigWithCLI(writeTemp(t, "precedence_test_*.yml", configYAML), Overrides{
		Title: "CLI Title",
		Port:  9200,
	})
	require.NoError(t, err)

	// CLI > config file > defaults
	assert.Equal(t, "CLI Title", cfg.Output.Title)
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoadConfigWithPrecedence_NoFile(t *testing.T) {
	cfg, err := LoadConfigWithCLI("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoadConfigWithPrecedence_InvalidOverride(t *testing.T) {
	_, err := LoadConfigWithCLI("", Overrides{Format: "pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
}
