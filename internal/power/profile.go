// Package power maintains the power profile state machine and the
// battery-driven automatic transitions between profiles.
package power

import "fmt"

// Profile is a named power/performance operating point.
type Profile int

const (
	MaxPerformance Profile = iota
	Balanced
	PowerSaver
	UltraPowerSaver
)

func (p Profile) String() string {
	switch p {
	case MaxPerformance:
		return "max_performance"
	case Balanced:
		return "balanced"
	case PowerSaver:
		return "power_saver"
	case UltraPowerSaver:
		return "ultra_power_saver"
	default:
		return "unknown"
	}
}

// ParseProfile converts a config string into a Profile.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "max_performance":
		return MaxPerformance, nil
	case "balanced":
		return Balanced, nil
	case "power_saver":
		return PowerSaver, nil
	case "ultra_power_saver":
		return UltraPowerSaver, nil
	default:
		return Balanced, fmt.Errorf("power: unknown profile %q", s)
	}
}

// ParseScalingPolicy converts a config string into a ScalingPolicy.
func ParseScalingPolicy(s string) (ScalingPolicy, error) {
	switch s {
	case "performance":
		return ScalingPerformance, nil
	case "ondemand":
		return ScalingOnDemand, nil
	case "conservative":
		return ScalingConservative, nil
	case "powersave":
		return ScalingPowerSave, nil
	default:
		return ScalingOnDemand, fmt.Errorf("power: unknown scaling policy %q", s)
	}
}

// ParseGPUPowerState converts a config string into a GPUPowerState.
func ParseGPUPowerState(s string) (GPUPowerState, error) {
	switch s {
	case "high":
		return GPUHigh, nil
	case "medium":
		return GPUMedium, nil
	case "low":
		return GPULow, nil
	case "off":
		return GPUOff, nil
	default:
		return GPUMedium, fmt.Errorf("power: unknown gpu power tier %q", s)
	}
}

// ScalingPolicy is the CPU frequency scaling hint for a profile.
type ScalingPolicy int

const (
	ScalingPerformance ScalingPolicy = iota
	ScalingOnDemand
	ScalingConservative
	ScalingPowerSave
)

func (s ScalingPolicy) String() string {
	switch s {
	case ScalingPerformance:
		return "performance"
	case ScalingOnDemand:
		return "ondemand"
	case ScalingConservative:
		return "conservative"
	case ScalingPowerSave:
		return "powersave"
	default:
		return "unknown"
	}
}

// GPUPowerState is the GPU power tier for a profile.
type GPUPowerState int

const (
	GPUHigh GPUPowerState = iota
	GPUMedium
	GPULow
	GPUOff
)

func (g GPUPowerState) String() string {
	switch g {
	case GPUHigh:
		return "high"
	case GPUMedium:
		return "medium"
	case GPULow:
		return "low"
	case GPUOff:
		return "off"
	default:
		return "unknown"
	}
}

// Config is the full derived configuration for one profile. Switching
// profile always re-derives the whole struct; no partial or custom state
// is representable.
type Config struct {
	Profile              Profile
	CPUScaling           ScalingPolicy
	CPUMaxFreqRatio      float64
	MaxActiveCores       int
	GPUPower             GPUPowerState
	MemoryCompression    bool
	BackgroundProcessing bool
	BackgroundPriority   int // -1 low, 0 normal
}

// configFor derives the deterministic configuration for profile on a
// machine with coreCount physical cores. It is a pure function: calling
// it twice with the same inputs yields identical configs.
func configFor(profile Profile, coreCount int) Config {
	if coreCount < 1 {
		coreCount = 1
	}

	switch profile {
	case MaxPerformance:
		return Config{
			Profile:              MaxPerformance,
			CPUScaling:           ScalingPerformance,
			CPUMaxFreqRatio:      1.0,
			MaxActiveCores:       coreCount,
			GPUPower:             GPUHigh,
			MemoryCompression:    false,
			BackgroundProcessing: true,
			BackgroundPriority:   0,
		}
	case PowerSaver:
		return Config{
			Profile:              PowerSaver,
			CPUScaling:           ScalingConservative,
			CPUMaxFreqRatio:      0.6,
			MaxActiveCores:       maxInt(1, coreCount/2),
			GPUPower:             GPULow,
			MemoryCompression:    true,
			BackgroundProcessing: false,
			BackgroundPriority:   -1,
		}
	case UltraPowerSaver:
		return Config{
			Profile:              UltraPowerSaver,
			CPUScaling:           ScalingPowerSave,
			CPUMaxFreqRatio:      0.4,
			MaxActiveCores:       maxInt(1, coreCount/4),
			GPUPower:             GPUOff,
			MemoryCompression:    true,
			BackgroundProcessing: false,
			BackgroundPriority:   -1,
		}
	default: // Balanced
		return Config{
			Profile:              Balanced,
			CPUScaling:           ScalingOnDemand,
			CPUMaxFreqRatio:      0.8,
			MaxActiveCores:       maxInt(1, coreCount*3/4),
			GPUPower:             GPUMedium,
			MemoryCompression:    false,
			BackgroundProcessing: true,
			BackgroundPriority:   0,
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
