// Package adaptive retunes worker concurrency and audio buffering from
// profiler, thermal and power signals without violating real-time
// constraints.
package adaptive

import (
	"sync"
	"time"

	"github.com/crlotwhite/libetude-sub002/internal/config"
	"github.com/crlotwhite/libetude-sub002/internal/hardware"
	"github.com/crlotwhite/libetude-sub002/internal/logging"
)

// MulticoreConfig is the tunable worker-thread parameter set.
type MulticoreConfig struct {
	WorkerThreads         int
	AudioThreadPriority   int
	ComputeThreadPriority int
	EnableCPUAffinity     bool
	AffinityMask          uint64
}

// AudioConfig is the tunable audio buffering parameter set.
type AudioConfig struct {
	BufferFrames   int
	BufferCount    int
	LowLatency     bool
	ThreadPriority int
}

// Controller implements the per-tick retuning policy. The monitor loop
// is its only writer; other threads read the current configs.
type Controller struct {
	cfg       config.AdaptiveConfig
	coreLimit int

	mu        sync.RWMutex
	multicore MulticoreConfig
	audio     AudioConfig
	lastTick  time.Time
}

// NewController builds a controller with a tier-selected starting
// configuration for the detected hardware.
func NewController(cfg config.AdaptiveConfig, caps *hardware.Capabilities) *Controller {
	c := &Controller{
		cfg:       cfg,
		coreLimit: caps.PhysicalCores,
	}
	if c.coreLimit < 1 {
		c.coreLimit = 1
	}
	c.initFromTier(caps)
	return c
}

// initFromTier picks the startup configuration from the coarse hardware
// performance tier: strong machines start aggressive (small buffers,
// many workers), weak ones conservative.
func (c *Controller) initFromTier(caps *hardware.Capabilities) {
	threads := caps.OptimalThreadCount()
	frames := 256
	buffers := 3
	lowLatency := false

	switch {
	case caps.PerformanceTier >= 4:
		frames = 128
		buffers = 2
		lowLatency = true
	case caps.PerformanceTier <= 2:
		frames = 512
		buffers = 4
		threads = maxInt(1, threads/2)
	}

	frames = c.clampFrames(frames)

	c.multicore = MulticoreConfig{
		WorkerThreads:         threads,
		AudioThreadPriority:   90,
		ComputeThreadPriority: 50,
		EnableCPUAffinity:     c.cfg.EnableCPUAffinity,
		AffinityMask:          contiguousMask(threads),
	}
	c.audio = AudioConfig{
		BufferFrames:   frames,
		BufferCount:    buffers,
		LowLatency:     lowLatency,
		ThreadPriority: 90,
	}

	logging.Component("adaptive").WithFields(map[string]interface{}{
		"tier":    caps.PerformanceTier,
		"threads": threads,
		"frames":  frames,
	}).Debug("initial adaptive configuration")
}

// Tick applies one adjustment round and reports whether the sample was
// accepted. Calls closer together than the configured interval are
// dropped so the loop cannot oscillate faster than its own feedback.
func (c *Controller) Tick(s Sample) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	interval := time.Duration(c.cfg.IntervalMs) * time.Millisecond
	if !c.lastTick.IsZero() && s.Timestamp.Sub(c.lastTick) < interval {
		return false
	}
	c.lastTick = s.Timestamp

	c.adjustWorkers(s)
	c.adjustAudio(s)

	if c.multicore.EnableCPUAffinity {
		c.multicore.AffinityMask = contiguousMask(c.multicore.WorkerThreads)
	}
	return true
}

// adjustWorkers steps the worker count by one against the CPU target
// with a hysteresis dead-band.
func (c *Controller) adjustWorkers(s Sample) {
	target := c.cfg.CPUThresholdPct
	hyst := c.cfg.CPUHysteresisPct

	switch {
	case s.CPUPercent > target+hyst && c.multicore.WorkerThreads > 1:
		c.multicore.WorkerThreads--
		logging.Component("adaptive").WithFields(map[string]interface{}{
			"cpu_pct": s.CPUPercent,
			"workers": c.multicore.WorkerThreads,
		}).Debug("reduced worker threads")
	case s.CPUPercent < target-hyst && c.multicore.WorkerThreads < c.coreLimit:
		c.multicore.WorkerThreads++
		logging.Component("adaptive").WithFields(map[string]interface{}{
			"cpu_pct": s.CPUPercent,
			"workers": c.multicore.WorkerThreads,
		}).Debug("increased worker threads")
	}
}

// adjustAudio resizes the frame buffer. Underrun avoidance wins over
// latency reduction within the same tick.
func (c *Controller) adjustAudio(s Sample) {
	switch {
	case s.Underruns > 0:
		c.audio.BufferFrames = c.clampFrames(c.audio.BufferFrames * 2)
		logging.Component("adaptive").WithFields(map[string]interface{}{
			"underruns": s.Underruns,
			"frames":    c.audio.BufferFrames,
		}).Debug("grew audio buffer after underruns")
	case s.LatencyMs > c.cfg.LatencyThresholdMs:
		c.audio.BufferFrames = c.clampFrames(c.audio.BufferFrames / 2)
		logging.Component("adaptive").WithFields(map[string]interface{}{
			"latency_ms": s.LatencyMs,
			"frames":     c.audio.BufferFrames,
		}).Debug("shrank audio buffer to cut latency")
	}
}

// clampFrames rounds to the nearest power-of-two boundary inside the
// configured [min, max] window.
func (c *Controller) clampFrames(frames int) int {
	min := c.cfg.MinBufferFrames
	max := c.cfg.MaxBufferFrames
	if min <= 0 {
		min = 64
	}
	if max < min {
		max = 2048
	}

	if frames < min {
		return min
	}
	if frames > max {
		return max
	}

	// Round up to the next power of two; buffer sizes start on
	// power-of-two boundaries, so halving/doubling preserves this.
	p := 1
	for p < frames {
		p <<= 1
	}
	if p > max {
		p = max
	}
	return p
}

// Multicore returns the current worker configuration.
func (c *Controller) Multicore() MulticoreConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.multicore
}

// Audio returns the current audio buffering configuration.
func (c *Controller) Audio() AudioConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.audio
}

// contiguousMask builds an affinity mask over cores [0, n).
func contiguousMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(n)) - 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
