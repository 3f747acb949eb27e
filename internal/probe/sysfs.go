package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/fxnlabs/xgpu-bench/internal/memmon"
)

const (
	drmClassPath      = "class/drm"
	vramTotalFilename = "mem_info_vram_total"
	vramUsedFilename  = "mem_info_vram_used"
	defaultSysfsRoot  = "/sys"
)

var cardPattern = regexp.MustCompile(`^card[0-9]+$`)

// SysfsDevice reads VRAM counters exported by the amdgpu driver.
type SysfsDevice struct {
	card       string
	devicePath string
}

// NewSysfsDevice opens the card under sysfsRoot. card "" or "auto" selects the
// first card that exports VRAM counters.
func NewSysfsDevice(sysfsRoot, card string) (*SysfsDevice, error) {
	if sysfsRoot == "" {
		sysfsRoot = defaultSysfsRoot
	}
	if card == "" || card == "auto" {
		found, err := findVRAMCard(sysfsRoot)
		if err != nil {
			return nil, err
		}
		card = found
	}

	devicePath := filepath.Join(sysfsRoot, drmClassPath, card, "device")
	if _, err := os.Stat(filepath.Join(devicePath, vramTotalFilename)); err != nil {
		return nil, fmt.Errorf("%w: %s has no VRAM counters: %v", ErrProbeUnavailable, card, err)
	}
	return &SysfsDevice{card: card, devicePath: devicePath}, nil
}

// DeviceMemory reads total and used VRAM. Free is reported as total - used so
// that the derived used value matches the driver's counter.
func (d *SysfsDevice) DeviceMemory() (memmon.DeviceReading, error) {
	total, err := readUint(filepath.Join(d.devicePath, vramTotalFilename))
	if err != nil {
		return memmon.UnavailableDevice(), err
	}
	used, err := readUint(filepath.Join(d.devicePath, vramUsedFilename))
	if err != nil {
		return memmon.UnavailableDevice(), err
	}
	if used > total {
		return memmon.UnavailableDevice(), fmt.Errorf("%w: %s reports used %d > total %d", ErrProbeUnavailable, d.card, used, total)
	}
	return memmon.DeviceReadingFromBytes(total-used, total), nil
}

// Name identifies the probe.
func (d *SysfsDevice) Name() string { return "sysfs:" + d.card }

// Close is a no-op.
func (d *SysfsDevice) Close() error { return nil }

func findVRAMCard(sysfsRoot string) (string, error) {
	entries, err := os.ReadDir(filepath.Join(sysfsRoot, drmClassPath))
	if err != nil {
		return "", fmt.Errorf("%w: read drm class: %v", ErrProbeUnavailable, err)
	}

	var cards []string
	for _, entry := range entries {
		if cardPattern.MatchString(entry.Name()) {
			cards = append(cards, entry.Name())
		}
	}
	sort.Slice(cards, func(i, j int) bool {
		return cardIndex(cards[i]) < cardIndex(cards[j])
	})

	for _, card := range cards {
		path := filepath.Join(sysfsRoot, drmClassPath, card, "device", vramTotalFilename)
		if _, err := os.Stat(path); err == nil {
			return card, nil
		}
	}
	return "", fmt.Errorf("%w: no drm card exports %s", ErrProbeUnavailable, vramTotalFilename)
}

func cardIndex(card string) int {
	index, _ := strconv.Atoi(strings.TrimPrefix(card, "card"))
	return index
}

func readUint(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	value, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %v", ErrProbeUnavailable, filepath.Base(path), err)
	}
	return value, nil
}
