package adaptive

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlotwhite/libetude-sub002/internal/config"
	"github.com/crlotwhite/libetude-sub002/internal/power"
	"github.com/crlotwhite/libetude-sub002/internal/thermal"
)

type stubSampler struct {
	calls  atomic.Int64
	sample Sample
}

func (s *stubSampler) Sample() (Sample, error) {
	s.calls.Add(1)
	out := s.sample
	out.Timestamp = time.Now()
	return out, nil
}

type stubBattery struct {
	status power.BatteryStatus
}

func (s *stubBattery) Read() (power.BatteryStatus, error) {
	return s.status, nil
}

func newTestMonitor(t *testing.T, sampler Sampler, tempC float64, bat power.BatteryStatus) (*Monitor, *power.Controller, *Controller) {
	t.Helper()

	cfg := testAdaptiveConfig()
	tc := thermal.NewController(config.ThermalConfig{
		WarningTempC:  70,
		CriticalTempC: 85,
		AutoThrottle:  true,
	}, &thermal.FixedSensors{Reading: thermal.Reading{MaxTempC: tempC}})
	pc := power.NewController(power.Balanced, 4, &stubBattery{status: bat})
	ac := NewController(cfg, testCaps(3, 4))

	return NewMonitor(cfg, sampler, tc, pc, ac), pc, ac
}

func TestMonitorStartStop(t *testing.T) {
	sampler := &stubSampler{}
	m, _, _ := newTestMonitor(t, sampler, 30, power.BatteryStatus{Present: false})

	m.Start()
	require.True(t, m.Running())

	// Idempotent start.
	m.Start()

	time.Sleep(350 * time.Millisecond)

	start := time.Now()
	m.Stop()
	elapsed := time.Since(start)

	assert.False(t, m.Running())
	// Shutdown is bounded by one interval (100ms) plus scheduling slack.
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Greater(t, sampler.calls.Load(), int64(0), "loop never sampled")

	// Idempotent stop.
	m.Stop()
}

func TestConcurrentStartStop(t *testing.T) {
	sampler := &stubSampler{}
	m, _, _ := newTestMonitor(t, sampler, 30, power.BatteryStatus{Present: false})

	// Interleaved starts and stops from many goroutines must never
	// panic or leave the loop in a half-started state.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Start()
		}()
		go func() {
			defer wg.Done()
			m.Stop()
		}()
	}
	wg.Wait()

	m.Stop()
	assert.False(t, m.Running())
}

func TestLastSampleRetained(t *testing.T) {
	sampler := &stubSampler{sample: Sample{CPUPercent: 42, MemoryPercent: 33}}
	m, _, _ := newTestMonitor(t, sampler, 30, power.BatteryStatus{Present: false})

	require.Zero(t, m.LastSample().CPUPercent, "zero sample before the first tick")

	m.Start()
	defer m.Stop()

	deadline := time.After(2 * time.Second)
	for m.LastSample().CPUPercent != 42 {
		select {
		case <-deadline:
			t.Fatalf("LastSample = %+v, want sampled values", m.LastSample())
		case <-time.After(20 * time.Millisecond):
		}
	}
	assert.Equal(t, 33.0, m.LastSample().MemoryPercent)
}

func TestMonitorDrivesPowerController(t *testing.T) {
	sampler := &stubSampler{}
	m, pc, _ := newTestMonitor(t, sampler, 30, power.BatteryStatus{Percent: 5, Present: true})

	m.Start()
	defer m.Stop()

	deadline := time.After(2 * time.Second)
	for pc.Profile() != power.UltraPowerSaver {
		select {
		case <-deadline:
			t.Fatalf("profile = %s, want ultra_power_saver", pc.Profile())
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestMonitorConsumesUnderruns(t *testing.T) {
	sampler := &stubSampler{}
	m, _, ac := newTestMonitor(t, sampler, 30, power.BatteryStatus{Present: false})
	before := ac.Audio().BufferFrames

	m.ReportUnderrun()
	m.ReportUnderrun()

	m.Start()
	defer m.Stop()

	deadline := time.After(2 * time.Second)
	for ac.Audio().BufferFrames == before {
		select {
		case <-deadline:
			t.Fatalf("buffer frames still %d, want growth after underruns", before)
		case <-time.After(20 * time.Millisecond):
		}
	}

	assert.Equal(t, before*2, ac.Audio().BufferFrames, "underruns are consumed once, not re-applied")
}

func TestReportLatencyFeedsSamples(t *testing.T) {
	m, _, ac := newTestMonitor(t, &stubSampler{}, 30, power.BatteryStatus{Present: false})
	before := ac.Audio().BufferFrames

	// Latency above the 50ms threshold shrinks the buffer on the next
	// tick.
	m.ReportLatency(120 * time.Millisecond)

	m.Start()

	deadline := time.After(2 * time.Second)
	for ac.Audio().BufferFrames == before {
		select {
		case <-deadline:
			m.Stop()
			t.Fatalf("buffer frames still %d, want shrink under high latency", before)
		case <-time.After(20 * time.Millisecond):
		}
	}
	m.Stop()

	// The latency signal stays latched, so the buffer may have shrunk
	// more than once; it only ever moves down toward the floor.
	assert.Less(t, ac.Audio().BufferFrames, before)
	assert.GreaterOrEqual(t, ac.Audio().BufferFrames, 64)
}
