package observability

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

// HostSnapshot is a point-in-time view of the machine the queue is
// running on, reported alongside per-worker queue depths so a caller
// can tell "queue is backed up" apart from "host is starved".
type HostSnapshot struct {
	CPUCores       int
	TotalMemoryMB  uint64
	UsedMemoryMB   uint64
	MemoryUsedPerc float64
}

// Host samples the current host. Failure to read memory stats degrades
// to zeros rather than erroring; diagnostics must never take the queue
// down.
func Host() HostSnapshot {
	snap := HostSnapshot{CPUCores: runtime.NumCPU()}
	v, err := mem.VirtualMemory()
	if err != nil {
		return snap
	}
	snap.TotalMemoryMB = v.Total / 1024 / 1024
	snap.UsedMemoryMB = v.Used / 1024 / 1024
	snap.MemoryUsedPerc = v.UsedPercent
	return snap
}
