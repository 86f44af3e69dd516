package plugins

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"clipstash/internal/config"
	"clipstash/internal/plugin"
)

// Builtins constructs every built-in plugin from its config block, in load
// order. Plugins disabled in config are constructed disabled so they can be
// re-enabled at runtime without a restart.
func Builtins(cfg *config.Config, log zerolog.Logger) ([]plugin.Plugin, error) {
	builders := []struct {
		name  string
		build func(config.PluginConfig, zerolog.Logger) (plugin.Plugin, error)
	}{
		{"SecurityMonitor", func(b config.PluginConfig, l zerolog.Logger) (plugin.Plugin, error) {
			return NewSecurityMonitor(b, l)
		}},
		{"ContentEnricher", func(b config.PluginConfig, l zerolog.Logger) (plugin.Plugin, error) {
			return NewContentEnricher(b, l)
		}},
		{"PastePredictor", func(b config.PluginConfig, l zerolog.Logger) (plugin.Plugin, error) {
			return NewPastePredictor(b, l)
		}},
		{"KnowledgeGraph", func(b config.PluginConfig, l zerolog.Logger) (plugin.Plugin, error) {
			return NewKnowledgeGraph(b, l)
		}},
		{"SmartTemplates", func(b config.PluginConfig, l zerolog.Logger) (plugin.Plugin, error) {
			return NewSmartTemplates(b, l)
		}},
	}

	out := make([]plugin.Plugin, 0, len(builders))
	for _, b := range builders {
		p, err := b.build(cfg.PluginBlock(b.name), log)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", b.name, err)
		}
		if !cfg.PluginEnabled(b.name) {
			p.Disable()
		}
		out = append(out, p)
	}
	return out, nil
}

// decodeOptions unmarshals a plugin's raw config block into its options
// struct. A missing block leaves the defaults untouched.
func decodeOptions(block config.PluginConfig, dst any) error {
	if len(block.Config) == 0 {
		return nil
	}
	if err := json.Unmarshal(block.Config, dst); err != nil {
		return fmt.Errorf("invalid plugin config: %w", err)
	}
	return nil
}
