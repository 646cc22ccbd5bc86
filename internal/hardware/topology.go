package hardware

import "github.com/klauspost/cpuid/v2"

// probeTopology fills in vendor/brand strings, physical core count and
// cache sizes from CPUID. On platforms where CPUID reports nothing
// (some VMs, non-x86 hosts) the fields keep their zero values and the
// caller substitutes logical core count.
func probeTopology(caps *Capabilities) {
	caps.Vendor = cpuid.CPU.VendorString
	caps.Brand = cpuid.CPU.BrandName

	if n := cpuid.CPU.PhysicalCores; n > 0 {
		caps.PhysicalCores = n
	}

	caps.CacheLineBytes = cpuid.CPU.CacheLine
	if cpuid.CPU.Cache.L1D > 0 {
		caps.L1CacheKB = cpuid.CPU.Cache.L1D / 1024
	}
	if cpuid.CPU.Cache.L2 > 0 {
		caps.L2CacheKB = cpuid.CPU.Cache.L2 / 1024
	}
	if cpuid.CPU.Cache.L3 > 0 {
		caps.L3CacheKB = cpuid.CPU.Cache.L3 / 1024
	}
}
