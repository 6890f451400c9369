package system

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Usage is a point-in-time resource sample of the current process.
type Usage struct {
	CPUSeconds    float64 // user + system time consumed so far
	RSSBytes      uint64
	SystemMemUsed float64 // percent
	LogicalCPUs   int
}

// Sample reads the current process's resource usage.
func Sample() (Usage, error) {
	u := Usage{LogicalCPUs: runtime.NumCPU()}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		u.LogicalCPUs = n
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return u, fmt.Errorf("process: %w", err)
	}
	if times, err := proc.Times(); err == nil {
		u.CPUSeconds = times.User + times.System
	}
	if mi, err := proc.MemoryInfo(); err == nil {
		u.RSSBytes = mi.RSS
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		u.SystemMemUsed = vm.UsedPercent
	}
	return u, nil
}

// Since returns the CPU time consumed between start and u, and u's RSS.
func (u Usage) Since(start Usage) Usage {
	d := u
	d.CPUSeconds = u.CPUSeconds - start.CPUSeconds
	if d.CPUSeconds < 0 {
		d.CPUSeconds = 0
	}
	return d
}

// MB converts bytes to mebibytes.
func MB(b uint64) float64 {
	return float64(b) / (1 << 20)
}
