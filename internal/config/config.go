package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// PluginConfig is the per-plugin configuration block, keyed by plugin name.
type PluginConfig struct {
	// Enabled toggles the plugin. Nil means use the plugin's default.
	Enabled *bool `json:"enabled,omitempty"`

	// Config is the opaque plugin-specific blob, owned by the plugin.
	Config json.RawMessage `json:"config,omitempty"`
}

// Config holds application configuration.
type Config struct {
	// MaxHistory is the number of unpinned clips retained before trimming
	MaxHistory int `json:"max_history"`

	// PluginTimeoutMS is the per-plugin hook invocation budget in milliseconds
	PluginTimeoutMS int `json:"plugin_timeout_ms"`

	// Plugins holds per-plugin blocks keyed by plugin name
	Plugins map[string]PluginConfig `json:"plugins,omitempty"`

	// DBMaxOpenConns limits open database connections. If set to 1, all
	// database access is serialized. 0 means use the sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle database connections. 0 means default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// LogLevel selects the zerolog level: trace/debug/info/warn/error
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxHistory:      500,
		PluginTimeoutMS: 5000,
		LogLevel:        "info",
	}
}

// Load loads configuration from baseDir/config.json, merged over defaults.
// Returns defaults if the file doesn't exist. The baseDir parameter lets
// tests use t.TempDir() instead of ~/.clipstash.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns a zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge combines base and overlay configs. Overlay values take precedence
// for scalars; plugin blocks and tool lists are merged key-wise.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.MaxHistory = overlay.MaxHistory
	if result.MaxHistory == 0 {
		result.MaxHistory = base.MaxHistory
	}

	result.PluginTimeoutMS = overlay.PluginTimeoutMS
	if result.PluginTimeoutMS == 0 {
		result.PluginTimeoutMS = base.PluginTimeoutMS
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.LogLevel = overlay.LogLevel
	if result.LogLevel == "" {
		result.LogLevel = base.LogLevel
	}

	result.Plugins = mergePluginBlocks(base.Plugins, overlay.Plugins)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// PluginBlock returns the block for name, or a zero block if absent.
func (c *Config) PluginBlock(name string) PluginConfig {
	if c.Plugins == nil {
		return PluginConfig{}
	}
	return c.Plugins[name]
}

// PluginEnabled reports whether the named plugin should run, defaulting to
// enabled when the block or its flag is absent.
func (c *Config) PluginEnabled(name string) bool {
	block := c.PluginBlock(name)
	if block.Enabled == nil {
		return true
	}
	return *block.Enabled
}

func mergePluginBlocks(a, b map[string]PluginConfig) map[string]PluginConfig {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	result := make(map[string]PluginConfig, len(a)+len(b))
	for k, v := range a {
		result[k] = v
	}
	for k, v := range b {
		merged := result[k]
		if v.Enabled != nil {
			merged.Enabled = v.Enabled
		}
		if v.Config != nil {
			merged.Config = v.Config
		}
		result[k] = merged
	}
	return result
}

// mergeStringSlice combines two slices and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
