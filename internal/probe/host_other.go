//go:build !linux

package probe

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// HostRSS reads the resident set size through gopsutil on platforms without
// a Linux-style /proc.
type HostRSS struct {
	proc *process.Process
}

// NewHostRSS creates a reader for pid. procRoot is ignored on this platform
// and a zero pid means the current process.
func NewHostRSS(_ string, pid int) (*HostRSS, error) {
	if pid == 0 {
		pid = os.Getpid()
	}
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("%w: open process %d: %v", ErrProbeUnavailable, pid, err)
	}
	return &HostRSS{proc: proc}, nil
}

// ResidentSetMB returns the resident set size in megabytes.
func (h *HostRSS) ResidentSetMB() (float64, error) {
	info, err := h.proc.MemoryInfo()
	if err != nil {
		return 0, fmt.Errorf("%w: memory info: %v", ErrProbeUnavailable, err)
	}
	if info == nil || info.RSS == 0 {
		return 0, fmt.Errorf("%w: RSS not reported", ErrProbeUnavailable)
	}
	return float64(info.RSS) / bytesPerMB, nil
}
