package hardware

// calculateTier grades the machine on a 1 (low) to 5 (high) scale from
// core count, GPU presence and installed memory. The adaptive policy
// controller uses the tier to pick its startup configuration.
func calculateTier(caps *Capabilities) int {
	score := 0

	switch {
	case caps.PhysicalCores >= 12:
		score += 3
	case caps.PhysicalCores >= 6:
		score += 2
	case caps.PhysicalCores >= 4:
		score += 1
	}

	if caps.GPUAvailable {
		score += 2
	}

	switch {
	case caps.TotalMemory >= 16<<30:
		score += 2
	case caps.TotalMemory >= 8<<30:
		score += 1
	}

	if caps.SIMD.Has(SIMDAVX2) || caps.SIMD.Has(SIMDNEON) {
		score++
	}

	// score 0..8 -> tier 1..5
	tier := 1 + score/2
	if tier > 5 {
		tier = 5
	}
	return tier
}

// OptimalThreadCount suggests a worker thread count for compute work:
// physical cores minus one reserved for the audio callback thread.
func (c *Capabilities) OptimalThreadCount() int {
	n := c.PhysicalCores - 1
	if n < 1 {
		n = 1
	}
	return n
}
