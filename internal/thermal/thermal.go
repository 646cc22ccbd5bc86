// Package thermal samples temperature sensors against configured
// thresholds and exposes throttling state to the power and adaptive
// controllers.
package thermal

import (
	"sync"
	"time"

	"github.com/crlotwhite/libetude-sub002/internal/config"
	"github.com/crlotwhite/libetude-sub002/internal/logging"
)

// State is the thermal level recomputed on every sample. Transitions are
// level-triggered: the state is a pure function of the latest reading
// and the thresholds, never of history.
type State int

const (
	StateNormal State = iota
	StateWarning
	StateCritical
	StateEmergencyShutdown
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateWarning:
		return "warning"
	case StateCritical:
		return "critical"
	case StateEmergencyShutdown:
		return "emergency_shutdown"
	default:
		return "unknown"
	}
}

// Reading is a point-in-time set of sensor temperatures in Celsius.
// Sensors that are unavailable on this platform report 0, which the
// controller treats as normal.
type Reading struct {
	CPUTempC     float64
	GPUTempC     float64
	BatteryTempC float64
	MaxTempC     float64
	Timestamp    time.Time
}

// SensorReader abstracts the platform temperature source so the control
// logic stays platform-agnostic and testable.
type SensorReader interface {
	Read() (Reading, error)
}

// Controller evaluates readings against the configured thresholds.
// Update is driven by the enclosing monitoring loop; all other methods
// only read the last evaluated state.
type Controller struct {
	cfg     config.ThermalConfig
	sensors SensorReader

	mu      sync.RWMutex
	state   State
	reading Reading
}

// NewController builds a controller using sensors, falling back to the
// system sensor provider when nil.
func NewController(cfg config.ThermalConfig, sensors SensorReader) *Controller {
	if sensors == nil {
		sensors = newSystemSensors()
	}
	return &Controller{cfg: cfg, sensors: sensors}
}

// Update takes one sample and recomputes the thermal state. Sensor
// failures degrade to a zero reading and never surface as errors.
func (c *Controller) Update() {
	r, err := c.sensors.Read()
	if err != nil {
		logging.Component("thermal").WithError(err).Debug("sensor read failed, assuming normal")
		r = Reading{Timestamp: time.Now()}
	}

	next := StateNormal
	switch {
	case r.MaxTempC >= c.cfg.CriticalTempC:
		next = StateCritical
		if c.cfg.EmergencyShutdown {
			next = StateEmergencyShutdown
		}
	case r.MaxTempC >= c.cfg.WarningTempC:
		next = StateWarning
	}

	c.mu.Lock()
	prev := c.state
	c.state = next
	c.reading = r
	c.mu.Unlock()

	if prev != next {
		logging.Component("thermal").WithFields(map[string]interface{}{
			"from":   prev.String(),
			"to":     next.String(),
			"temp_c": r.MaxTempC,
		}).Info("thermal state changed")
	}
}

// State returns the last evaluated thermal state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Reading returns the last sampled temperatures.
func (c *Controller) Reading() Reading {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reading
}

// Throttling reports whether kernels should shed load. It is set at
// warning level and above when auto-throttle is enabled, and always at
// critical level.
func (c *Controller) Throttling() bool {
	s := c.State()
	if s >= StateCritical {
		return true
	}
	return s == StateWarning && c.cfg.AutoThrottle
}

// Overheating reports critical-or-worse state.
func (c *Controller) Overheating() bool {
	return c.State() >= StateCritical
}

// Temperature returns the hottest sensor from the last sample.
func (c *Controller) Temperature() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reading.MaxTempC
}
