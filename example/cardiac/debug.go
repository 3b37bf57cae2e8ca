package main

// helper to watch RAM while training full volumes on CPU

import (
	"sync"
	"syscall"
)

// SI carries the subset of linux sysinfo the training loop reports.
// See http://man7.org/linux/man-pages/man2/sysinfo.2.html
type SI struct {
	TotalRam uint64     // total usable main memory size [kB]
	FreeRam  uint64     // available memory size [kB]
	mu       sync.Mutex // ensures atomic writes
}

var sis = &SI{}

// CPUInfo reads the current memory figures from the kernel.
func CPUInfo() *SI {
	si := &syscall.Sysinfo_t{}
	if err := syscall.Sysinfo(si); err != nil {
		panic("syscall.Sysinfo: " + err.Error())
	}

	sis.mu.Lock()
	defer sis.mu.Unlock()

	unit := uint64(si.Unit) * 1024 // kB
	sis.TotalRam = uint64(si.Totalram) / unit
	sis.FreeRam = uint64(si.Freeram) / unit

	return sis
}
