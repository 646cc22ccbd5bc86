// Package engine ties the hardware-adaptive runtime together: one
// detector, dispatch table, profiler and controller set owned by an
// explicit context object instead of process-wide globals, so tests and
// embedders can run independent instances and tear them down cleanly.
package engine

import (
	"github.com/crlotwhite/libetude-sub002/internal/adaptive"
	"github.com/crlotwhite/libetude-sub002/internal/config"
	"github.com/crlotwhite/libetude-sub002/internal/hardware"
	"github.com/crlotwhite/libetude-sub002/internal/kernels"
	"github.com/crlotwhite/libetude-sub002/internal/power"
	"github.com/crlotwhite/libetude-sub002/internal/profiler"
	"github.com/crlotwhite/libetude-sub002/internal/thermal"
)

// Runtime owns the adaptive runtime layer for one engine instance.
type Runtime struct {
	cfg *config.Config

	Detector *hardware.Detector
	Kernels  *kernels.Table
	Profiler *profiler.Profiler
	Thermal  *thermal.Controller
	Power    *power.Controller
	Adaptive *adaptive.Controller
	Monitor  *adaptive.Monitor
}

// Option overrides a platform provider, mainly for tests.
type Option func(*options)

type options struct {
	sensors thermal.SensorReader
	battery power.BatteryReader
	sampler adaptive.Sampler
}

// WithSensors substitutes the thermal sensor source.
func WithSensors(s thermal.SensorReader) Option {
	return func(o *options) { o.sensors = s }
}

// WithBattery substitutes the battery source.
func WithBattery(b power.BatteryReader) Option {
	return func(o *options) { o.battery = b }
}

// WithSampler substitutes the load sampler.
func WithSampler(s adaptive.Sampler) Option {
	return func(o *options) { o.sampler = s }
}

// New builds a runtime from cfg, running hardware detection eagerly so
// the dispatch table and tier-derived defaults are ready before the
// first synthesis call.
func New(cfg *config.Config, opts ...Option) (*Runtime, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	det := hardware.NewDetector()
	caps := det.Detect()

	tc := thermal.NewController(cfg.Thermal, o.sensors)
	pc, err := power.NewControllerFromConfig(cfg.Power, caps.PhysicalCores, o.battery)
	if err != nil {
		return nil, err
	}
	ac := adaptive.NewController(cfg.Adaptive, caps)

	rt := &Runtime{
		cfg:      cfg,
		Detector: det,
		Kernels:  kernels.NewTable(det),
		Profiler: profiler.New(profiler.DefaultCapacity),
		Thermal:  tc,
		Power:    pc,
		Adaptive: ac,
		Monitor:  adaptive.NewMonitor(cfg.Adaptive, o.sampler, tc, pc, ac),
	}
	return rt, nil
}

// Start launches the monitoring loop when adaptive optimization is
// enabled, after eagerly resolving all registered kernels so the first
// audio callback pays no resolution latency.
func (r *Runtime) Start() error {
	if err := r.Kernels.SelectAll(); err != nil {
		return err
	}
	if r.cfg.Adaptive.Enabled {
		r.Monitor.Start()
	}
	return nil
}

// Stop shuts the monitoring loop down. Bounded by one monitor interval.
func (r *Runtime) Stop() {
	r.Monitor.Stop()
}

// Dispatch selects the kernel for name and wraps its execution in the
// profiler, so hot-path cost shows up in the metrics the adaptive
// controller consumes.
func (r *Runtime) Dispatch(name string, dst, a, b []float32) error {
	k, err := r.Kernels.Select(name)
	if err != nil {
		return err
	}
	return r.Profiler.Track(name, func() { k(dst, a, b) })
}
