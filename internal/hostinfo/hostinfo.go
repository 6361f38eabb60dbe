// Package hostinfo reports the CPU features and process memory footprint
// relevant to a training run.
package hostinfo

import (
	"os"

	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v3/process"
)

type Info struct {
	CPUBrand      string `json:"cpu_brand"`
	PhysicalCores int    `json:"physical_cores"`
	LogicalCores  int    `json:"logical_cores"`
	AVX2          bool   `json:"avx2"`
	FMA3          bool   `json:"fma3"`
	RSSBytes      uint64 `json:"rss_bytes"`
}

// Collect gathers CPU features and, when available, the current process RSS.
// A failed memory probe leaves RSSBytes at zero rather than failing the call.
func Collect() Info {
	info := Info{
		CPUBrand:      cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
		FMA3:          cpuid.CPU.Supports(cpuid.FMA3),
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return info
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		info.RSSBytes = mem.RSS
	}
	return info
}
