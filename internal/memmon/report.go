package memmon

import (
	"fmt"
	"strings"
)

const reportRule = "======================================================="

// Report renders the record as the fixed multi-section memory report. The
// output depends only on the record and label.
func (u Usage) Report(label string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n", reportRule)
	fmt.Fprintf(&b, "Memory Usage Report - %s\n", label)
	fmt.Fprintf(&b, "%s\n", reportRule)

	b.WriteString("System Memory (RAM):\n")
	fmt.Fprintf(&b, "  Initial: %.1f MB\n", u.InitialSystemMB)
	fmt.Fprintf(&b, "  Peak:    %.1f MB (%s)\n", u.PeakSystemMB, formatDelta(u.PeakSystemMB, u.InitialSystemMB, u.SystemDelta()))
	fmt.Fprintf(&b, "  Final:   %.1f MB\n", u.CurrentSystemMB)

	b.WriteString("\nGPU Memory:\n")
	fmt.Fprintf(&b, "  Total Available: %.1f MB\n", u.GPUTotalMB)
	fmt.Fprintf(&b, "  Initial Used:    %.1f MB\n", u.InitialGPUMB)
	fmt.Fprintf(&b, "  Peak Used:       %.1f MB (%s)\n", u.PeakGPUMB, formatDelta(u.PeakGPUMB, u.InitialGPUMB, u.GPUDelta()))
	fmt.Fprintf(&b, "  Final Used:      %.1f MB\n", u.CurrentGPUMB)
	fmt.Fprintf(&b, "  Current Free:    %.1f MB\n", u.GPUFreeMB)

	b.WriteString("\nMemory Efficiency:\n")
	if pct, ok := u.GPUUtilization(); ok {
		fmt.Fprintf(&b, "  GPU Utilization: %.1f%% (peak)\n", pct)
	} else {
		b.WriteString("  GPU Utilization: unknown (peak)\n")
	}
	fmt.Fprintf(&b, "  Memory Delta:    System %s, GPU %s\n",
		formatDelta(u.PeakSystemMB, u.InitialSystemMB, u.SystemDelta()),
		formatDelta(u.PeakGPUMB, u.InitialGPUMB, u.GPUDelta()))
	fmt.Fprintf(&b, "%s\n\n", reportRule)

	return b.String()
}

// formatDelta renders a peak delta, or "unknown" when either end of it is
// Unavailable.
func formatDelta(peak, initial, delta float64) string {
	if !IsValid(peak) || !IsValid(initial) {
		return "unknown"
	}
	return fmt.Sprintf("+%.1f MB", delta)
}
