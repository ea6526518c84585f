package report

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo is a best-effort snapshot of the machine a batch ran on,
// embedded in the persisted report for offline comparison of runs.
type HostInfo struct {
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	CPUModel    string `json:"cpu_model,omitempty"`
	CPUThreads  int    `json:"cpu_threads,omitempty"`
	MemoryTotal uint64 `json:"memory_total_bytes,omitempty"`
}

// CollectHost gathers the host snapshot. Every probe is best effort;
// fields stay zero when a probe fails.
func CollectHost() HostInfo {
	info := HostInfo{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}
	if threads, err := cpu.Counts(true); err == nil {
		info.CPUThreads = threads
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemoryTotal = vm.Total
	}

	return info
}
