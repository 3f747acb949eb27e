package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fxnlabs/xgpu-bench/internal/memmon"
)

const (
	smiBinary          = "nvidia-smi"
	defaultSMITimeout  = 5 * time.Second
	smiQueryMemoryFree = "--query-gpu=memory.free,memory.total"
)

// commandRunner runs a command and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// SMIDevice reads device memory by polling nvidia-smi. It is the slowest
// reader and only used when no runtime library is linked.
type SMIDevice struct {
	index   int
	timeout time.Duration
	run     commandRunner
	log     *zap.Logger
}

// NewSMIDevice creates an nvidia-smi reader for the device at index.
func NewSMIDevice(index int, timeout time.Duration, log *zap.Logger) *SMIDevice {
	if timeout <= 0 {
		timeout = defaultSMITimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SMIDevice{index: index, timeout: timeout, run: execRunner, log: log}
}

// IsAvailable reports whether nvidia-smi is on PATH.
func (d *SMIDevice) IsAvailable() bool {
	_, err := exec.LookPath(smiBinary)
	return err == nil
}

// DeviceMemory runs one nvidia-smi query. Values are reported in MiB.
func (d *SMIDevice) DeviceMemory() (memmon.DeviceReading, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	output, err := d.run(ctx, smiBinary,
		"--id="+strconv.Itoa(d.index),
		smiQueryMemoryFree,
		"--format=csv,noheader,nounits")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			d.log.Debug("nvidia-smi failed", zap.Error(err), zap.String("stderr", string(exitErr.Stderr)))
		}
		return memmon.UnavailableDevice(), fmt.Errorf("%w: nvidia-smi: %v", ErrProbeUnavailable, err)
	}
	return parseSMIMemory(output)
}

// Name identifies the probe.
func (d *SMIDevice) Name() string { return "nvidia-smi" }

// Close is a no-op.
func (d *SMIDevice) Close() error { return nil }

// parseSMIMemory parses the first "free, total" line of nvidia-smi CSV output.
func parseSMIMemory(output []byte) (memmon.DeviceReading, error) {
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		values := strings.Split(line, ",")
		if len(values) != 2 {
			return memmon.UnavailableDevice(), fmt.Errorf("%w: unexpected nvidia-smi line %q", ErrProbeUnavailable, line)
		}
		free, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
		if err != nil {
			return memmon.UnavailableDevice(), fmt.Errorf("%w: parse free memory: %v", ErrProbeUnavailable, err)
		}
		total, err := strconv.ParseFloat(strings.TrimSpace(values[1]), 64)
		if err != nil {
			return memmon.UnavailableDevice(), fmt.Errorf("%w: parse total memory: %v", ErrProbeUnavailable, err)
		}
		return memmon.DeviceReadingFromMB(free, total), nil
	}
	return memmon.UnavailableDevice(), fmt.Errorf("%w: empty nvidia-smi output", ErrProbeUnavailable)
}
