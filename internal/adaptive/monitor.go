package adaptive

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/crlotwhite/libetude-sub002/internal/config"
	"github.com/crlotwhite/libetude-sub002/internal/logging"
	"github.com/crlotwhite/libetude-sub002/internal/power"
	"github.com/crlotwhite/libetude-sub002/internal/thermal"
)

// Monitor is the background thread driving the thermal, power and
// adaptive controllers on a timer. It is the sole writer of their
// state; every other thread only reads.
type Monitor struct {
	interval time.Duration
	sampler  Sampler
	thermal  *thermal.Controller
	power    *power.Controller
	adaptive *Controller

	// audio pipeline signals, published by the audio callback thread
	latencyMicros atomic.Int64
	underruns     atomic.Uint64

	last atomic.Pointer[Sample]

	mu      sync.Mutex // serializes Start and Stop
	stop    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewMonitor wires the controllers into one update loop.
func NewMonitor(cfg config.AdaptiveConfig, sampler Sampler, tc *thermal.Controller, pc *power.Controller, ac *Controller) *Monitor {
	if sampler == nil {
		sampler = NewSystemSampler()
	}
	interval := time.Duration(cfg.IntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	return &Monitor{
		interval: interval,
		sampler:  sampler,
		thermal:  tc,
		power:    pc,
		adaptive: ac,
	}
}

// ReportLatency publishes the most recent end-to-end audio latency.
// Called from the audio path; lock-free.
func (m *Monitor) ReportLatency(d time.Duration) {
	m.latencyMicros.Store(d.Microseconds())
}

// ReportUnderrun counts a buffer underrun since the last tick.
func (m *Monitor) ReportUnderrun() {
	m.underruns.Add(1)
}

// Start launches the monitoring goroutine. Starting a running monitor
// is a no-op. The stop channel exists before running flips, so a
// concurrent Stop always sees a closable channel.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running.Load() {
		return
	}
	m.stop = make(chan struct{})
	m.wg.Add(1)
	m.running.Store(true)
	go m.run()
	logging.Component("adaptive").WithField("interval", m.interval).Info("monitor started")
}

// Stop signals the loop and joins it. Shutdown latency is bounded by
// one interval.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running.Load() {
		return
	}
	m.running.Store(false)
	close(m.stop)
	m.wg.Wait()
	logging.Component("adaptive").Info("monitor stopped")
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	return m.running.Load()
}

// LastSample returns the most recent load sample, or a zero sample
// before the first tick. The status report reads it without touching
// the loop.
func (m *Monitor) LastSample() Sample {
	if p := m.last.Load(); p != nil {
		return *p
	}
	return Sample{}
}

func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick runs one full control round: sample, thermal, power, adaptive.
func (m *Monitor) tick() {
	s, err := m.sampler.Sample()
	if err != nil {
		logging.Component("adaptive").WithError(err).Debug("sample failed, skipping tick")
		return
	}
	s.LatencyMs = float64(m.latencyMicros.Load()) / 1000.0
	s.Underruns = m.underruns.Swap(0)
	m.last.Store(&s)

	m.thermal.Update()

	if m.thermal.State() == thermal.StateEmergencyShutdown {
		// Reported, not enforced: the embedder decides whether to kill
		// the process. The runtime drops to its floor profile.
		logging.Component("adaptive").
			WithField("temp_c", m.thermal.Temperature()).
			Error("emergency thermal state, forcing lowest power profile")
		m.power.SetProfile(power.UltraPowerSaver)
	} else {
		bat := m.power.ReadBattery()
		m.power.AutoOptimize(bat, m.thermal.Temperature())
	}

	// Underruns on a dropped sample are carried into the next tick,
	// never discarded.
	if !m.adaptive.Tick(s) {
		m.underruns.Add(s.Underruns)
	}
}
