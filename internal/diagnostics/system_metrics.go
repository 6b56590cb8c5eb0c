package diagnostics

import (
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryStatus is a point-in-time read of system memory.
type MemoryStatus struct {
	TotalMB     float64
	AvailableMB float64
	UsedPercent float64
}

// ReadMemoryStatus reads current system memory via gopsutil.
func ReadMemoryStatus() (MemoryStatus, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStatus{}, err
	}
	return MemoryStatus{
		TotalMB:     float64(vm.Total) / 1024 / 1024,
		AvailableMB: float64(vm.Available) / 1024 / 1024,
		UsedPercent: vm.UsedPercent,
	}, nil
}
