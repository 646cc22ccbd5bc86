package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the runtime configuration
type Config struct {
	Adaptive AdaptiveConfig `mapstructure:"adaptive"`
	Thermal  ThermalConfig  `mapstructure:"thermal"`
	Power    PowerConfig    `mapstructure:"power"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AdaptiveConfig controls the adaptive optimization loop.
type AdaptiveConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	IntervalMs         int     `mapstructure:"interval_ms"`
	CPUThresholdPct    float64 `mapstructure:"cpu_threshold_pct"`
	MemoryThresholdPct float64 `mapstructure:"memory_threshold_pct"`
	LatencyThresholdMs float64 `mapstructure:"latency_threshold_ms"`
	SampleWindow       int     `mapstructure:"sample_window"`
	CPUHysteresisPct   float64 `mapstructure:"cpu_hysteresis_pct"`
	MinBufferFrames    int     `mapstructure:"min_buffer_frames"`
	MaxBufferFrames    int     `mapstructure:"max_buffer_frames"`
	EnableCPUAffinity  bool    `mapstructure:"enable_cpu_affinity"`
}

// ThermalConfig controls temperature monitoring and throttling.
type ThermalConfig struct {
	WarningTempC      float64 `mapstructure:"warning_temp_c"`
	CriticalTempC     float64 `mapstructure:"critical_temp_c"`
	IntervalMs        int     `mapstructure:"interval_ms"`
	AutoThrottle      bool    `mapstructure:"auto_throttle"`
	EmergencyShutdown bool    `mapstructure:"emergency_shutdown"`
}

// PowerConfig selects the initial power profile and its knobs.
// Per-profile fields are re-derived on every profile switch; values here
// only seed the starting state.
type PowerConfig struct {
	Profile              string  `mapstructure:"profile"`
	CPUScalingPolicy     string  `mapstructure:"cpu_scaling_policy"`
	CPUMaxFreqRatio      float64 `mapstructure:"cpu_max_freq_ratio"`
	MaxActiveCores       int     `mapstructure:"max_active_cores"`
	GPUPowerTier         string  `mapstructure:"gpu_power_tier"`
	MemoryCompression    bool    `mapstructure:"memory_compression"`
	BackgroundProcessing bool    `mapstructure:"background_processing"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	etudeDir := filepath.Join(home, ".etude")

	return &Config{
		Adaptive: AdaptiveConfig{
			Enabled:            true,
			IntervalMs:         1000,
			CPUThresholdPct:    80.0,
			MemoryThresholdPct: 85.0,
			LatencyThresholdMs: 50.0,
			SampleWindow:       10,
			CPUHysteresisPct:   10.0,
			MinBufferFrames:    64,
			MaxBufferFrames:    2048,
			EnableCPUAffinity:  false,
		},
		Thermal: ThermalConfig{
			WarningTempC:      70.0,
			CriticalTempC:     85.0,
			IntervalMs:        1000,
			AutoThrottle:      true,
			EmergencyShutdown: false,
		},
		Power: PowerConfig{
			Profile:              "balanced",
			CPUScalingPolicy:     "ondemand",
			CPUMaxFreqRatio:      0.8,
			MaxActiveCores:       0,
			GPUPowerTier:         "medium",
			MemoryCompression:    false,
			BackgroundProcessing: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			File:    filepath.Join(etudeDir, "etude.log"),
			Console: true,
		},
	}
}

// Load loads configuration from file, environment, and defaults
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	// Config file setup
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".etude"))
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	// Environment variables
	v.SetEnvPrefix("ETUDE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is okay, use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Adaptive.IntervalMs < 100 {
		return errors.New("adaptive.interval_ms must be at least 100")
	}

	if c.Adaptive.CPUThresholdPct <= 0 || c.Adaptive.CPUThresholdPct > 100 {
		return errors.New("adaptive.cpu_threshold_pct must be in (0, 100]")
	}

	if c.Adaptive.MinBufferFrames < 16 || !isPowerOfTwo(c.Adaptive.MinBufferFrames) {
		return errors.New("adaptive.min_buffer_frames must be a power of two >= 16")
	}

	if c.Adaptive.MaxBufferFrames < c.Adaptive.MinBufferFrames || !isPowerOfTwo(c.Adaptive.MaxBufferFrames) {
		return errors.New("adaptive.max_buffer_frames must be a power of two >= min_buffer_frames")
	}

	if c.Thermal.WarningTempC >= c.Thermal.CriticalTempC {
		return errors.New("thermal.warning_temp_c must be below thermal.critical_temp_c")
	}

	validProfiles := []string{"max_performance", "balanced", "power_saver", "ultra_power_saver"}
	if !contains(validProfiles, c.Power.Profile) {
		return fmt.Errorf("power.profile must be one of: %v", validProfiles)
	}

	validPolicies := []string{"performance", "ondemand", "conservative", "powersave"}
	if !contains(validPolicies, c.Power.CPUScalingPolicy) {
		return fmt.Errorf("power.cpu_scaling_policy must be one of: %v", validPolicies)
	}

	validTiers := []string{"high", "medium", "low", "off"}
	if !contains(validTiers, c.Power.GPUPowerTier) {
		return fmt.Errorf("power.gpu_power_tier must be one of: %v", validTiers)
	}

	if c.Power.CPUMaxFreqRatio <= 0 || c.Power.CPUMaxFreqRatio > 1.0 {
		return errors.New("power.cpu_max_freq_ratio must be in (0.0, 1.0]")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("adaptive.enabled", cfg.Adaptive.Enabled)
	v.SetDefault("adaptive.interval_ms", cfg.Adaptive.IntervalMs)
	v.SetDefault("adaptive.cpu_threshold_pct", cfg.Adaptive.CPUThresholdPct)
	v.SetDefault("adaptive.memory_threshold_pct", cfg.Adaptive.MemoryThresholdPct)
	v.SetDefault("adaptive.latency_threshold_ms", cfg.Adaptive.LatencyThresholdMs)
	v.SetDefault("adaptive.sample_window", cfg.Adaptive.SampleWindow)
	v.SetDefault("adaptive.cpu_hysteresis_pct", cfg.Adaptive.CPUHysteresisPct)
	v.SetDefault("adaptive.min_buffer_frames", cfg.Adaptive.MinBufferFrames)
	v.SetDefault("adaptive.max_buffer_frames", cfg.Adaptive.MaxBufferFrames)
	v.SetDefault("adaptive.enable_cpu_affinity", cfg.Adaptive.EnableCPUAffinity)

	v.SetDefault("thermal.warning_temp_c", cfg.Thermal.WarningTempC)
	v.SetDefault("thermal.critical_temp_c", cfg.Thermal.CriticalTempC)
	v.SetDefault("thermal.interval_ms", cfg.Thermal.IntervalMs)
	v.SetDefault("thermal.auto_throttle", cfg.Thermal.AutoThrottle)
	v.SetDefault("thermal.emergency_shutdown", cfg.Thermal.EmergencyShutdown)

	v.SetDefault("power.profile", cfg.Power.Profile)
	v.SetDefault("power.cpu_scaling_policy", cfg.Power.CPUScalingPolicy)
	v.SetDefault("power.cpu_max_freq_ratio", cfg.Power.CPUMaxFreqRatio)
	v.SetDefault("power.max_active_cores", cfg.Power.MaxActiveCores)
	v.SetDefault("power.gpu_power_tier", cfg.Power.GPUPowerTier)
	v.SetDefault("power.memory_compression", cfg.Power.MemoryCompression)
	v.SetDefault("power.background_processing", cfg.Power.BackgroundProcessing)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)
}
