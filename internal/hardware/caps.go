// Package hardware probes CPU instruction-set support, GPU backend
// availability and memory topology, and caches the result as an immutable
// snapshot consumed by the kernel dispatch table and the controllers.
package hardware

import (
	"fmt"
	"strings"
	"time"
)

// SIMDFeature is a bitmask of CPU instruction set extensions.
type SIMDFeature uint32

const (
	SIMDNone   SIMDFeature = 0
	SIMDSSE    SIMDFeature = 1 << 0
	SIMDSSE2   SIMDFeature = 1 << 1
	SIMDSSE3   SIMDFeature = 1 << 2
	SIMDSSSE3  SIMDFeature = 1 << 3
	SIMDSSE41  SIMDFeature = 1 << 4
	SIMDSSE42  SIMDFeature = 1 << 5
	SIMDAVX    SIMDFeature = 1 << 6
	SIMDAVX2   SIMDFeature = 1 << 7
	SIMDAVX512 SIMDFeature = 1 << 8
	SIMDFMA    SIMDFeature = 1 << 9
	SIMDNEON   SIMDFeature = 1 << 10
)

var simdNames = []struct {
	flag SIMDFeature
	name string
}{
	{SIMDSSE, "SSE"},
	{SIMDSSE2, "SSE2"},
	{SIMDSSE3, "SSE3"},
	{SIMDSSSE3, "SSSE3"},
	{SIMDSSE41, "SSE4.1"},
	{SIMDSSE42, "SSE4.2"},
	{SIMDAVX, "AVX"},
	{SIMDAVX2, "AVX2"},
	{SIMDAVX512, "AVX512"},
	{SIMDFMA, "FMA"},
	{SIMDNEON, "NEON"},
}

// Has reports whether all bits in want are set.
func (f SIMDFeature) Has(want SIMDFeature) bool {
	return f&want == want
}

func (f SIMDFeature) String() string {
	if f == SIMDNone {
		return "none"
	}
	var parts []string
	for _, e := range simdNames {
		if f&e.flag != 0 {
			parts = append(parts, e.name)
		}
	}
	return strings.Join(parts, "|")
}

// GPUBackend identifies the GPU compute backend detected on this system.
type GPUBackend int

const (
	GPUNone GPUBackend = iota
	GPUCUDA
	GPUOpenCL
	GPUMetal
	GPUVulkan
)

func (b GPUBackend) String() string {
	switch b {
	case GPUCUDA:
		return "CUDA"
	case GPUOpenCL:
		return "OpenCL"
	case GPUMetal:
		return "Metal"
	case GPUVulkan:
		return "Vulkan"
	default:
		return "None"
	}
}

// Capabilities is an immutable snapshot of detected hardware features.
// A new detection produces a new value; an existing snapshot is never
// mutated in place.
type Capabilities struct {
	// CPU
	Vendor        string
	Brand         string
	SIMD          SIMDFeature
	PhysicalCores int
	LogicalCores  int

	// Cache topology
	CacheLineBytes int
	L1CacheKB      int
	L2CacheKB      int
	L3CacheKB      int

	// GPU
	GPU          GPUBackend
	GPUAvailable bool
	GPUName      string

	// Memory
	TotalMemory     uint64
	AvailableMemory uint64

	// Derived
	PerformanceTier int // 1 (low) .. 5 (high)

	DetectedAt time.Time
	Cached     bool
}

// HasSIMD reports whether the snapshot supports every bit in f.
func (c *Capabilities) HasSIMD(f SIMDFeature) bool {
	return c.SIMD.Has(f)
}

// Summary renders a short multi-line description of the snapshot.
func (c *Capabilities) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CPU: %s (%d physical / %d logical cores)\n", c.Brand, c.PhysicalCores, c.LogicalCores)
	fmt.Fprintf(&b, "SIMD: %s\n", c.SIMD)
	fmt.Fprintf(&b, "Cache: L1 %d KB, L2 %d KB, L3 %d KB (line %d B)\n",
		c.L1CacheKB, c.L2CacheKB, c.L3CacheKB, c.CacheLineBytes)
	if c.GPUAvailable {
		fmt.Fprintf(&b, "GPU: %s (%s)\n", c.GPUName, c.GPU)
	} else {
		b.WriteString("GPU: not available\n")
	}
	fmt.Fprintf(&b, "Memory: %.1f GB total, %.1f GB available\n",
		float64(c.TotalMemory)/(1<<30), float64(c.AvailableMemory)/(1<<30))
	fmt.Fprintf(&b, "Performance tier: %d/5", c.PerformanceTier)
	return b.String()
}
