// Package sysinfo samples host and process statistics for the status surfaces.
package sysinfo

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is one sample. Host fields stay zero when gopsutil cannot read them.
type Snapshot struct {
	Platform       string  `json:"platform"`
	GoVersion      string  `json:"goVersion"`
	CPUCount       int     `json:"cpuCount"`
	CPUPercent     float64 `json:"cpuPercent"`
	MemUsedPercent float64 `json:"memUsedPercent"`
	MemUsedMB      uint64  `json:"memUsedMb"`
	MemTotalMB     uint64  `json:"memTotalMb"`
	HeapMB         uint64  `json:"heapMb"`
	Goroutines     int     `json:"goroutines"`
}

// Collect takes a sample. CPU usage is measured since the previous call.
func Collect() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s := Snapshot{
		GoVersion:  runtime.Version(),
		HeapMB:     ms.HeapAlloc / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
	}

	if n, err := cpu.Counts(true); err == nil {
		s.CPUCount = n
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemUsedPercent = vm.UsedPercent
		s.MemUsedMB = vm.Used / 1024 / 1024
		s.MemTotalMB = vm.Total / 1024 / 1024
	}
	if info, err := host.Info(); err == nil {
		s.Platform = info.Platform + " " + info.PlatformVersion
	}
	return s
}
