package adaptive

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Sample is one observation of system load plus the audio pipeline
// signals reported since the previous tick.
type Sample struct {
	CPUPercent float64
	// GPUPercent stays 0 from the system sampler; there is no portable
	// GPU utilization query. A backend-specific sampler can fill it.
	GPUPercent    float64
	MemoryPercent float64
	LatencyMs     float64
	Underruns     uint64
	Timestamp     time.Time
}

// Sampler produces load samples for the controller. The audio latency
// and underrun fields are merged in by the monitor from the audio
// pipeline's own counters.
type Sampler interface {
	Sample() (Sample, error)
}

// systemSampler reads aggregate CPU and memory utilization through
// gopsutil. The zero-interval cpu.Percent call measures since the
// previous call, so the first sample of a session reads as 0.
type systemSampler struct{}

// NewSystemSampler returns the gopsutil-backed sampler.
func NewSystemSampler() Sampler {
	return &systemSampler{}
}

func (s *systemSampler) Sample() (Sample, error) {
	out := Sample{Timestamp: time.Now()}

	pct, err := cpu.Percent(0, false)
	if err == nil && len(pct) > 0 {
		out.CPUPercent = pct[0]
	}

	vm, err := mem.VirtualMemory()
	if err == nil {
		out.MemoryPercent = vm.UsedPercent
	}

	return out, nil
}
