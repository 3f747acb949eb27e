//go:build linux

package probe

import (
	"fmt"
	"os"

	"github.com/prometheus/procfs"
)

// HostRSS reads VmRSS from the process status file.
type HostRSS struct {
	fs  procfs.FS
	pid int
}

// NewHostRSS creates a reader for pid under procRoot. An empty procRoot means
// procfs.DefaultMountPoint and a zero pid means the current process.
func NewHostRSS(procRoot string, pid int) (*HostRSS, error) {
	if procRoot == "" {
		procRoot = procfs.DefaultMountPoint
	}
	if pid == 0 {
		pid = os.Getpid()
	}
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: open procfs %s: %v", ErrProbeUnavailable, procRoot, err)
	}
	return &HostRSS{fs: fs, pid: pid}, nil
}

// ResidentSetMB returns VmRSS in megabytes.
func (h *HostRSS) ResidentSetMB() (float64, error) {
	proc, err := h.fs.Proc(h.pid)
	if err != nil {
		return 0, fmt.Errorf("%w: open process %d: %v", ErrProbeUnavailable, h.pid, err)
	}
	status, err := proc.NewStatus()
	if err != nil {
		return 0, fmt.Errorf("%w: read status: %v", ErrProbeUnavailable, err)
	}
	// A running process always has resident pages, so zero means the
	// VmRSS line was missing (kernel threads, restricted /proc).
	if status.VmRSS == 0 {
		return 0, fmt.Errorf("%w: VmRSS not reported", ErrProbeUnavailable)
	}
	return float64(status.VmRSS) / bytesPerMB, nil
}
