//go:build amd64

package hardware

import "golang.org/x/sys/cpu"

// detectSIMD reads the CPU feature bits on amd64. SSE and SSE2 are part
// of the x86-64 baseline but are taken from CPUID anyway so the family
// invariant (higher tiers imply lower ones) holds by construction.
func detectSIMD() SIMDFeature {
	f := SIMDNone

	if cpu.X86.HasSSE2 {
		f |= SIMDSSE | SIMDSSE2
	}
	if cpu.X86.HasSSE3 {
		f |= SIMDSSE3
	}
	if cpu.X86.HasSSSE3 {
		f |= SIMDSSSE3
	}
	if cpu.X86.HasSSE41 {
		f |= SIMDSSE41
	}
	if cpu.X86.HasSSE42 {
		f |= SIMDSSE42
	}
	if cpu.X86.HasAVX {
		f |= SIMDAVX
	}
	if cpu.X86.HasAVX2 && cpu.X86.HasAVX {
		f |= SIMDAVX2
	}
	if cpu.X86.HasAVX512F && f.Has(SIMDAVX2) {
		f |= SIMDAVX512
	}
	if cpu.X86.HasFMA {
		f |= SIMDFMA
	}

	return f
}
