package hardware

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/crlotwhite/libetude-sub002/internal/logging"
)

// Detector probes the hardware and caches the resulting snapshot.
// It is safe for concurrent use; readers see either the previous or the
// fully-formed new snapshot, never a partial one.
type Detector struct {
	mu         sync.Mutex
	cached     *Capabilities
	generation atomic.Uint64
}

// NewDetector returns a detector with an empty cache. The first call to
// Cached or Detect performs the actual probe.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect performs a full hardware probe and atomically replaces the
// cached snapshot. Failed sub-probes degrade individual fields to their
// zero values; Detect itself never fails.
func (d *Detector) Detect() *Capabilities {
	caps := probe()

	d.mu.Lock()
	caps.Cached = true
	d.cached = caps
	gen := d.generation.Add(1)
	d.mu.Unlock()

	logging.Component("hardware").WithFields(map[string]interface{}{
		"simd": caps.SIMD.String(),
		"gpu":  caps.GPU.String(),
		"tier": caps.PerformanceTier,
		"gen":  gen,
	}).Debug("hardware detection complete")

	return caps
}

// Cached returns the cached snapshot, running detection on first use.
func (d *Detector) Cached() *Capabilities {
	d.mu.Lock()
	c := d.cached
	d.mu.Unlock()
	if c != nil {
		return c
	}
	return d.Detect()
}

// Invalidate clears the cache without re-detecting. The next Cached call
// re-runs the probe.
func (d *Detector) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.generation.Add(1)
	d.mu.Unlock()
}

// Generation returns a counter that advances on every Detect and
// Invalidate. The dispatch table compares it against the generation a
// kernel resolution was cached under, without taking the detector lock.
func (d *Detector) Generation() uint64 {
	return d.generation.Load()
}

// ForceCapabilities installs a fixed snapshot in place of real
// detection. Intended for tests that need hardware the host does not
// have. Invalidate clears the override like any other snapshot.
func (d *Detector) ForceCapabilities(caps Capabilities) {
	caps.DetectedAt = time.Now()
	caps.Cached = true

	d.mu.Lock()
	d.cached = &caps
	d.generation.Add(1)
	d.mu.Unlock()
}

// Has reports whether the cached snapshot supports the given features.
func (d *Detector) Has(f SIMDFeature) bool {
	return d.Cached().HasSIMD(f)
}

// probe assembles a full snapshot. Each sub-probe is independent: a
// failure leaves that field at its zero value and the rest intact.
func probe() *Capabilities {
	caps := &Capabilities{
		SIMD:         detectSIMD(),
		LogicalCores: runtime.NumCPU(),
		DetectedAt:   time.Now(),
	}

	probeTopology(caps)
	if caps.PhysicalCores == 0 {
		// CPUID reports nothing in some VMs; ask the OS instead.
		if n, err := cpu.Counts(false); err == nil && n > 0 {
			caps.PhysicalCores = n
		} else {
			caps.PhysicalCores = caps.LogicalCores
		}
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		caps.TotalMemory = vm.Total
		caps.AvailableMemory = vm.Available
	} else {
		logging.Component("hardware").WithError(err).Debug("memory probe unavailable")
	}

	probeGPU(caps)

	caps.PerformanceTier = calculateTier(caps)
	return caps
}
