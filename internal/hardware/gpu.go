package hardware

import (
	"os"
	"runtime"
)

// loader library locations checked per backend. Presence of the loader
// means the runtime can be initialized, not that a device is usable;
// callers still fall back to CPU kernels if kernel launch fails.
var gpuProbes = []struct {
	backend GPUBackend
	name    string
	paths   []string
}{
	{GPUCUDA, "NVIDIA CUDA", []string{
		"/usr/lib/x86_64-linux-gnu/libcuda.so.1",
		"/usr/lib64/libcuda.so.1",
		"/usr/lib/libcuda.so.1",
	}},
	{GPUVulkan, "Vulkan", []string{
		"/usr/lib/x86_64-linux-gnu/libvulkan.so.1",
		"/usr/lib64/libvulkan.so.1",
		"/usr/lib/libvulkan.so.1",
	}},
	{GPUOpenCL, "OpenCL", []string{
		"/usr/lib/x86_64-linux-gnu/libOpenCL.so.1",
		"/usr/lib64/libOpenCL.so.1",
		"/usr/lib/libOpenCL.so.1",
		"C:\\Windows\\System32\\OpenCL.dll",
	}},
}

// probeGPU detects the best available GPU backend. A missing backend is
// not an error: the GPU fields stay at "none" and kernel dispatch skips
// the GPU tier.
func probeGPU(caps *Capabilities) {
	// Metal ships with macOS on both Apple Silicon and Intel Macs.
	if runtime.GOOS == "darwin" {
		caps.GPU = GPUMetal
		caps.GPUAvailable = true
		caps.GPUName = "Apple Metal"
		return
	}

	for _, p := range gpuProbes {
		for _, path := range p.paths {
			if _, err := os.Stat(path); err == nil {
				caps.GPU = p.backend
				caps.GPUAvailable = true
				caps.GPUName = p.name
				return
			}
		}
	}
}
