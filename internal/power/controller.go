package power

import (
	"fmt"
	"strings"
	"sync"

	"github.com/crlotwhite/libetude-sub002/internal/config"
	"github.com/crlotwhite/libetude-sub002/internal/logging"
)

// BatteryStatus is a point-in-time battery reading.
type BatteryStatus struct {
	Percent  float64 // 0..100
	Charging bool
	Present  bool
}

// BatteryReader abstracts the platform battery source. Machines without
// a battery report Present=false and are treated as on AC power.
type BatteryReader interface {
	Read() (BatteryStatus, error)
}

// thermalCapTempC is the temperature above which the automatically
// computed target profile is capped down by one step.
const thermalCapTempC = 40.0

// Controller owns the current profile and its derived config. A single
// mutex guards both; they are the only mutable state in this package.
type Controller struct {
	coreCount int
	battery   BatteryReader

	mu         sync.Mutex
	current    Config
	background bool
}

// NewController starts in the given profile. battery may be nil, in
// which case the platform reader is used.
func NewController(initial Profile, coreCount int, battery BatteryReader) *Controller {
	if battery == nil {
		battery = newSystemBattery()
	}
	return &Controller{
		coreCount: coreCount,
		battery:   battery,
		current:   configFor(initial, coreCount),
	}
}

// NewControllerFromConfig seeds the starting state from validated file
// settings. The settings override the profile derivation for the
// initial config only; any later profile switch re-derives everything.
func NewControllerFromConfig(pc config.PowerConfig, coreCount int, battery BatteryReader) (*Controller, error) {
	profile, err := ParseProfile(pc.Profile)
	if err != nil {
		return nil, err
	}
	scaling, err := ParseScalingPolicy(pc.CPUScalingPolicy)
	if err != nil {
		return nil, err
	}
	gpu, err := ParseGPUPowerState(pc.GPUPowerTier)
	if err != nil {
		return nil, err
	}

	c := NewController(profile, coreCount, battery)
	c.current.CPUScaling = scaling
	c.current.GPUPower = gpu
	if pc.CPUMaxFreqRatio > 0 {
		c.current.CPUMaxFreqRatio = pc.CPUMaxFreqRatio
	}
	// 0 means "derive from the profile and core count".
	if pc.MaxActiveCores > 0 {
		c.current.MaxActiveCores = minInt(pc.MaxActiveCores, maxInt(1, coreCount))
	}
	c.current.MemoryCompression = pc.MemoryCompression
	c.current.BackgroundProcessing = pc.BackgroundProcessing
	return c, nil
}

// SetProfile applies the full derived config for profile, overwriting
// any prior manual tweaks. Idempotent when already in that profile.
func (c *Controller) SetProfile(profile Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.Profile == profile {
		return
	}
	prev := c.current.Profile
	c.current = configFor(profile, c.coreCount)

	logging.Component("power").WithFields(map[string]interface{}{
		"from": prev.String(),
		"to":   profile.String(),
	}).Info("power profile changed")
}

// Profile returns the current profile.
func (c *Controller) Profile() Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Profile
}

// Config returns the stored configuration for the current profile,
// without background-mode overlays.
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// targetProfile computes the automatic profile from battery state.
// Precedence, highest first: deep discharge, low battery, charged on AC,
// charging, healthy battery, otherwise conserve.
func targetProfile(bat BatteryStatus) Profile {
	if !bat.Present {
		// AC powered, no battery constraints.
		return MaxPerformance
	}
	switch {
	case bat.Percent < 10 && !bat.Charging:
		return UltraPowerSaver
	case bat.Percent < 20 && !bat.Charging:
		return PowerSaver
	case bat.Charging && bat.Percent > 80:
		return MaxPerformance
	case bat.Charging:
		return Balanced
	case bat.Percent > 50:
		return Balanced
	default:
		return PowerSaver
	}
}

// capForTemperature lowers the target by one step when the measured
// temperature exceeds the cap threshold. It never raises a target.
func capForTemperature(target Profile, tempC float64) Profile {
	if tempC <= thermalCapTempC {
		return target
	}
	switch target {
	case MaxPerformance:
		return Balanced
	case Balanced:
		return PowerSaver
	default:
		return target
	}
}

// AutoOptimize computes the target profile from battery and temperature
// and switches to it only if it differs from the current profile.
// The resulting profile is a pure function of (battery%, charging,
// temperature).
func (c *Controller) AutoOptimize(bat BatteryStatus, tempC float64) Profile {
	target := capForTemperature(targetProfile(bat), tempC)
	c.SetProfile(target)
	return target
}

// ReadBattery samples the battery reader. Read failures degrade to an
// AC-powered default rather than propagating.
func (c *Controller) ReadBattery() BatteryStatus {
	bat, err := c.battery.Read()
	if err != nil {
		logging.Component("power").WithError(err).Debug("battery read failed, assuming AC power")
		return BatteryStatus{Present: false}
	}
	return bat
}

// EnterBackground applies a reversible overlay that restricts CPU and
// GPU ceilings without changing the stored profile.
func (c *Controller) EnterBackground() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.background {
		c.background = true
		logging.Component("power").Debug("entered background mode")
	}
}

// EnterForeground removes the background overlay.
func (c *Controller) EnterForeground() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.background {
		c.background = false
		logging.Component("power").Debug("entered foreground mode")
	}
}

// Background reports whether the background overlay is active.
func (c *Controller) Background() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.background
}

// EffectiveConfig returns the stored config with the background overlay
// applied: frequency ratio halved (floor 0.3), cores halved (floor 1),
// GPU stepped down one tier, background processing disabled.
func (c *Controller) EffectiveConfig() Config {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := c.current
	if !c.background {
		return cfg
	}

	cfg.CPUMaxFreqRatio = cfg.CPUMaxFreqRatio / 2
	if cfg.CPUMaxFreqRatio < 0.3 {
		cfg.CPUMaxFreqRatio = 0.3
	}
	cfg.MaxActiveCores = maxInt(1, cfg.MaxActiveCores/2)
	if cfg.GPUPower < GPUOff {
		cfg.GPUPower++
	}
	cfg.BackgroundProcessing = false
	cfg.BackgroundPriority = -1
	return cfg
}

// UsageStats is a rough power-draw estimate derived from the effective
// configuration. The numbers are model outputs for reporting, not
// measurements.
type UsageStats struct {
	CPUPowerW       float64
	GPUPowerW       float64
	TotalPowerW     float64
	EstimatedHours  float64 // remaining runtime at current draw, 0 on AC
	BatteryPercent  float64
	BatteryCharging bool
}

// Per-unit draw constants for the estimate model, in watts.
const (
	wattsPerCoreAtFull = 6.0
	wattsGPUHigh       = 25.0
	wattsBaseline      = 2.0
	batteryCapacityWh  = 50.0
)

// Usage estimates current power draw from the effective config and the
// latest battery reading.
func (c *Controller) Usage() UsageStats {
	cfg := c.EffectiveConfig()
	bat := c.ReadBattery()

	stats := UsageStats{
		BatteryPercent:  bat.Percent,
		BatteryCharging: bat.Charging,
	}

	stats.CPUPowerW = float64(cfg.MaxActiveCores) * cfg.CPUMaxFreqRatio * wattsPerCoreAtFull
	switch cfg.GPUPower {
	case GPUHigh:
		stats.GPUPowerW = wattsGPUHigh
	case GPUMedium:
		stats.GPUPowerW = wattsGPUHigh / 2
	case GPULow:
		stats.GPUPowerW = wattsGPUHigh / 5
	}
	stats.TotalPowerW = wattsBaseline + stats.CPUPowerW + stats.GPUPowerW

	if bat.Present && !bat.Charging && stats.TotalPowerW > 0 {
		remainingWh := batteryCapacityWh * bat.Percent / 100
		stats.EstimatedHours = remainingWh / stats.TotalPowerW
	}
	return stats
}

// Report renders a short human-readable summary of the power state.
func (c *Controller) Report() string {
	cfg := c.EffectiveConfig()
	bat := c.ReadBattery()

	var b strings.Builder
	fmt.Fprintf(&b, "Profile: %s\n", cfg.Profile)
	fmt.Fprintf(&b, "CPU scaling: %s (max freq %.0f%%, %d cores)\n",
		cfg.CPUScaling, cfg.CPUMaxFreqRatio*100, cfg.MaxActiveCores)
	fmt.Fprintf(&b, "GPU power: %s\n", cfg.GPUPower)
	if bat.Present {
		state := "discharging"
		if bat.Charging {
			state = "charging"
		}
		fmt.Fprintf(&b, "Battery: %.0f%% (%s)", bat.Percent, state)
		if stats := c.Usage(); stats.EstimatedHours > 0 {
			fmt.Fprintf(&b, "\nEstimated draw: %.1f W (~%.1f h remaining)",
				stats.TotalPowerW, stats.EstimatedHours)
		}
	} else {
		b.WriteString("Battery: none (AC power)")
	}
	return b.String()
}
