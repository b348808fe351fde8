package config

import (
	"os"
	"path/filepath"
	"testing"

	"labelfill/pkg/labeling"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config is invalid: %v", err)
	}

	params, err := cfg.EditorParams()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if params.Rounding != labeling.RoundHalfAwayFromZero {
		t.Errorf("Expected half-away-from-zero rounding, got %v", params.Rounding)
	}
	if params.Bounds != labeling.ClipToBounds {
		t.Errorf("Expected clip bounds policy, got %v", params.Bounds)
	}
	if params.Raster.Step != 1 {
		t.Errorf("Expected step 1, got %f", params.Raster.Step)
	}
}

// TestLoadMissingConfig verifies that a missing file yields the defaults
func TestLoadMissingConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Fill.Step != DefaultConfig().Fill.Step {
		t.Errorf("Expected default step, got %f", cfg.Fill.Step)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Fill.Rounding = "half-even"
	cfg.Fill.Bounds = "reject"
	cfg.Output.Axes = []string{"x", "z"}
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	params, err := loaded.EditorParams()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if params.Rounding != labeling.RoundHalfEven || params.Bounds != labeling.RejectOutOfBounds {
		t.Errorf("Unexpected params after round trip: %+v", params)
	}
	if len(loaded.Output.Axes) != 2 {
		t.Errorf("Expected 2 axes, got %v", loaded.Output.Axes)
	}
}

// TestPartialConfigKeepsDefaults checks that keys missing from the file keep their defaults
func TestPartialConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("fill:\n  bounds: reject\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Fill.Bounds != "reject" {
		t.Errorf("Expected bounds reject, got %q", cfg.Fill.Bounds)
	}
	if cfg.Fill.Step != 1 || cfg.Prompts.Inset != 1 {
		t.Errorf("Expected defaults for missing keys, got step %f inset %f", cfg.Fill.Step, cfg.Prompts.Inset)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"rounding", "fill:\n  rounding: banker\n"},
		{"bounds", "fill:\n  bounds: wrap\n"},
		{"step", "fill:\n  step: -1\n"},
		{"inset", "prompts:\n  inset: -2\n"},
		{"axis", "output:\n  axes: [w]\n"},
		{"syntax", "fill: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labelfill.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Config file not created: %v", err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Errorf("Created config does not load: %v", err)
	}
}
