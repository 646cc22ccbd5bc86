//go:build !amd64 && !arm64

package hardware

// detectSIMD returns no SIMD support on architectures without a probe.
// Dispatch falls back to the generic kernel tier.
func detectSIMD() SIMDFeature {
	return SIMDNone
}
