package plugins

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"clipstash/internal/config"
	"clipstash/internal/plugin"
)

func TestBuiltins_AllConstructed(t *testing.T) {
	cfg := config.DefaultConfig()

	built, err := Builtins(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Builtins() error = %v", err)
	}
	if len(built) != 5 {
		t.Fatalf("Builtins() returned %d plugins, want 5", len(built))
	}

	want := []string{"SecurityMonitor", "ContentEnricher", "PastePredictor", "KnowledgeGraph", "SmartTemplates"}
	for i, name := range want {
		if built[i].Name() != name {
			t.Errorf("Builtins()[%d] = %s, want %s", i, built[i].Name(), name)
		}
		if !built[i].Enabled() {
			t.Errorf("%s constructed disabled", name)
		}
	}
}

func TestBuiltins_ConfigDisablesPlugin(t *testing.T) {
	cfg := config.DefaultConfig()
	off := false
	cfg.Plugins = map[string]config.PluginConfig{
		"SmartTemplates": {Enabled: &off},
	}

	built, err := Builtins(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Builtins() error = %v", err)
	}

	var templates plugin.Plugin
	for _, p := range built {
		if p.Name() == "SmartTemplates" {
			templates = p
		}
	}
	if templates == nil {
		t.Fatal("SmartTemplates not constructed")
	}
	if templates.Enabled() {
		t.Error("SmartTemplates enabled despite config")
	}
}

func TestBuiltins_BadConfigBlock(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Plugins = map[string]config.PluginConfig{
		"SecurityMonitor": {Config: json.RawMessage(`{"min_risk_score": "not a number"}`)},
	}

	if _, err := Builtins(cfg, zerolog.Nop()); err == nil {
		t.Error("Builtins() succeeded with malformed plugin config")
	}
}
