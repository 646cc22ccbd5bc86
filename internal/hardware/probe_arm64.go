//go:build arm64

package hardware

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// detectSIMD reports NEON support on arm64. darwin does not populate
// cpu.ARM64, but NEON (Advanced SIMD) is architecturally mandatory on
// AArch64, so it is assumed there.
func detectSIMD() SIMDFeature {
	if cpu.ARM64.HasASIMD || runtime.GOOS == "darwin" {
		return SIMDNEON
	}
	return SIMDNone
}
