package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBufferTooSmall is returned by Status when the report does not fit
// in the caller's buffer. The report is never silently truncated.
var ErrBufferTooSmall = errors.New("engine: status buffer too small")

// Status formats the human-readable runtime report into buf and returns
// the number of bytes written.
func (r *Runtime) Status(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, fmt.Errorf("%w: zero-length buffer", ErrBufferTooSmall)
	}

	s := r.StatusString()
	if len(s) > len(buf) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, len(s), len(buf))
	}
	return copy(buf, s), nil
}

// StatusString renders the full report.
func (r *Runtime) StatusString() string {
	caps := r.Detector.Cached()
	mc := r.Adaptive.Multicore()
	audio := r.Adaptive.Audio()

	load := r.Monitor.LastSample()

	var b strings.Builder
	b.WriteString("=== etude runtime status ===\n")
	fmt.Fprintf(&b, "%s\n", r.Power.Report())
	fmt.Fprintf(&b, "Utilization: cpu %.1f%%, gpu %.1f%%, mem %.1f%%\n",
		load.CPUPercent, load.GPUPercent, load.MemoryPercent)
	fmt.Fprintf(&b, "Thermal: %s (%.1f C)\n", r.Thermal.State(), r.Thermal.Temperature())
	fmt.Fprintf(&b, "SIMD: %s\n", caps.SIMD)
	if caps.GPUAvailable {
		fmt.Fprintf(&b, "GPU: %s\n", caps.GPU)
	} else {
		b.WriteString("GPU: none\n")
	}
	fmt.Fprintf(&b, "Workers: %d threads (affinity 0x%x)\n", mc.WorkerThreads, mc.AffinityMask)
	fmt.Fprintf(&b, "Audio: %d frames x %d buffers\n", audio.BufferFrames, audio.BufferCount)
	fmt.Fprintf(&b, "Kernels: %d registered\n", r.Kernels.Len())
	fmt.Fprintf(&b, "Metrics: %d tracked\n", r.Profiler.Len())
	return b.String()
}
