package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"interval too short", func(c *Config) { c.Adaptive.IntervalMs = 50 }},
		{"cpu threshold over 100", func(c *Config) { c.Adaptive.CPUThresholdPct = 150 }},
		{"min frames not power of two", func(c *Config) { c.Adaptive.MinBufferFrames = 100 }},
		{"max frames below min", func(c *Config) { c.Adaptive.MaxBufferFrames = 32 }},
		{"warning above critical", func(c *Config) { c.Thermal.WarningTempC = 90 }},
		{"unknown profile", func(c *Config) { c.Power.Profile = "turbo" }},
		{"unknown scaling policy", func(c *Config) { c.Power.CPUScalingPolicy = "schedutil" }},
		{"unknown gpu tier", func(c *Config) { c.Power.GPUPowerTier = "extreme" }},
		{"freq ratio above 1", func(c *Config) { c.Power.CPUMaxFreqRatio = 1.5 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
power:
  profile: power_saver
thermal:
  warning_temp_c: 60
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Power.Profile != "power_saver" {
		t.Errorf("profile = %q, want power_saver", cfg.Power.Profile)
	}
	if cfg.Thermal.WarningTempC != 60 {
		t.Errorf("warning temp = %v, want 60", cfg.Thermal.WarningTempC)
	}
	// Unset keys keep defaults.
	if cfg.Adaptive.MaxBufferFrames != 2048 {
		t.Errorf("max buffer frames = %d, want default 2048", cfg.Adaptive.MaxBufferFrames)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("power:\n  profile: warp_speed\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load accepted an invalid profile")
	}
}
