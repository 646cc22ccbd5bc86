// Package kernels maps logical operation names to capability-gated
// kernel implementations. Each operation registers one candidate per
// ISA tier; the table resolves the best candidate permitted by the
// detected hardware once and caches the result until the capability
// snapshot is invalidated.
package kernels

import "github.com/crlotwhite/libetude-sub002/internal/hardware"

// Kernel is one dispatched compute implementation. The actual SIMD/GPU
// bodies live outside this package; tests and callers register them as
// opaque functions.
type Kernel func(dst, a, b []float32)

// Tier identifies the implementation level of a kernel candidate.
type Tier int

const (
	TierGeneric Tier = iota
	TierSSE
	TierSSE2
	TierAVX
	TierAVX2
	TierNEON
	TierGPU
)

func (t Tier) String() string {
	switch t {
	case TierGeneric:
		return "generic"
	case TierSSE:
		return "sse"
	case TierSSE2:
		return "sse2"
	case TierAVX:
		return "avx"
	case TierAVX2:
		return "avx2"
	case TierNEON:
		return "neon"
	case TierGPU:
		return "gpu"
	default:
		return "unknown"
	}
}

// required returns the capability bits a tier needs. Generic needs
// nothing; GPU is gated on backend presence, not a SIMD bit.
func (t Tier) required() hardware.SIMDFeature {
	switch t {
	case TierSSE:
		return hardware.SIMDSSE
	case TierSSE2:
		return hardware.SIMDSSE2
	case TierAVX:
		return hardware.SIMDAVX
	case TierAVX2:
		return hardware.SIMDAVX2
	case TierNEON:
		return hardware.SIMDNEON
	default:
		return hardware.SIMDNone
	}
}

// priorityOrder lists tiers from most to least preferred during
// resolution.
var priorityOrder = []Tier{TierGPU, TierAVX2, TierAVX, TierSSE2, TierSSE, TierNEON, TierGeneric}

// Candidates holds the registered implementations for one operation,
// one slot per tier. Unset slots are skipped during resolution.
type Candidates struct {
	Generic Kernel
	SSE     Kernel
	SSE2    Kernel
	AVX     Kernel
	AVX2    Kernel
	NEON    Kernel
	GPU     Kernel
}

func (c *Candidates) at(t Tier) Kernel {
	switch t {
	case TierGeneric:
		return c.Generic
	case TierSSE:
		return c.SSE
	case TierSSE2:
		return c.SSE2
	case TierAVX:
		return c.AVX
	case TierAVX2:
		return c.AVX2
	case TierNEON:
		return c.NEON
	case TierGPU:
		return c.GPU
	default:
		return nil
	}
}

func (c *Candidates) empty() bool {
	for _, t := range priorityOrder {
		if c.at(t) != nil {
			return false
		}
	}
	return true
}
