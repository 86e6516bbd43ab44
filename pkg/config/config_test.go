package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Sampling.Mode != ModeRandom {
		t.Errorf("Expected default mode %q, got %q", ModeRandom, cfg.Sampling.Mode)
	}
	if cfg.Data.Norm {
		t.Error("Expected normalization to be off by default")
	}
	if got := cfg.GridShape(); got != [3]int{160, 192, 144} {
		t.Errorf("Expected default grid shape [160 192 144], got %v", got)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Sampling.Iterations != DefaultConfig().Sampling.Iterations {
		t.Errorf("Expected default iterations, got %d", cfg.Sampling.Iterations)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data:
  pattern: /scans/*.nii.gz
  norm: true
sampling:
  mode: epoch
  shuffle: true
  seed: 9
grid:
  shape: [5, 6, 7]
  unit: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Data.Pattern != "/scans/*.nii.gz" || !cfg.Data.Norm {
		t.Errorf("data section not applied: %+v", cfg.Data)
	}
	if cfg.Sampling.Mode != ModeEpoch || !cfg.Sampling.Shuffle || cfg.Sampling.Seed != 9 {
		t.Errorf("sampling section not applied: %+v", cfg.Sampling)
	}
	if cfg.GridShape() != [3]int{5, 6, 7} || !cfg.Grid.Unit {
		t.Errorf("grid section not applied: %+v", cfg.Grid)
	}
	// untouched keys keep their defaults
	if cfg.Sampling.Iterations != DefaultConfig().Sampling.Iterations {
		t.Errorf("Expected default iterations, got %d", cfg.Sampling.Iterations)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("sampling: [unterminated"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Prediction.Fixed = "fixed.nii"
	cfg.Processing.NumCores = 3

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Prediction.Fixed != "fixed.nii" || loaded.Processing.NumCores != 3 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := map[string]func(*Config){
		"mode":       func(c *Config) { c.Sampling.Mode = "shuffled" },
		"iterations": func(c *Config) { c.Sampling.Iterations = -1 },
		"rank":       func(c *Config) { c.Grid.Shape = []int{4, 4} },
		"size":       func(c *Config) { c.Grid.Shape = []int{4, 0, 4} },
		"cores":      func(c *Config) { c.Processing.NumCores = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
