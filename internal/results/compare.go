package results

import (
	"errors"
	"fmt"
	"math/cmplx"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultTolerance is the largest difference two points may have and still
// count as equal.
const DefaultTolerance = 1e-10

var (
	ErrLengthMismatch = errors.New("different lengths")
	ErrIndexMismatch  = errors.New("index mismatch")
)

// Comparison summarizes the pointwise difference of two data sets.
type Comparison struct {
	Equal       bool
	Err         error
	TotalPoints int
	EqualPoints int
	MaxDiff     float64
	MeanDiff    float64
	Tolerance   float64

	// StdDiff is the population standard deviation of the differences.
	StdDiff float64
}

// Compare measures |a[i] - b[i]| for every point. A length or index mismatch
// is reported in Comparison.Err and leaves Equal false.
func Compare(a, b []Point, tolerance float64) Comparison {
	c := Comparison{Tolerance: tolerance}
	if len(a) != len(b) {
		c.Err = fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
		return c
	}

	diffs := make([]float64, len(a))
	for i := range a {
		if a[i].Index != b[i].Index {
			c.Err = fmt.Errorf("%w at position %d: %d vs %d", ErrIndexMismatch, i, a[i].Index, b[i].Index)
			return c
		}
		diffs[i] = cmplx.Abs(a[i].Value - b[i].Value)
		if diffs[i] <= tolerance {
			c.EqualPoints++
		}
	}

	c.TotalPoints = len(a)
	if len(diffs) == 0 {
		c.Equal = true
		return c
	}
	c.MaxDiff = floats.Max(diffs)
	c.MeanDiff, c.StdDiff = stat.PopMeanStdDev(diffs, nil)
	c.Equal = c.MaxDiff <= tolerance
	return c
}

// CompareFiles compares every pair of files in order and returns the
// concatenated report.
func CompareFiles(files []*File, tolerance float64) (string, []Comparison) {
	var reports []string
	var comparisons []Comparison
	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			c := Compare(files[i].Points, files[j].Points, tolerance)
			comparisons = append(comparisons, c)
			reports = append(reports, FormatComparison(files[i], files[j], c))
		}
	}
	return strings.Join(reports, "\n"), comparisons
}

// FormatComparison renders a metadata diff followed by the data comparison.
func FormatComparison(a, b *File, c Comparison) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 80)

	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "COMPARISON: %s vs %s\n", filepath.Base(a.Path), filepath.Base(b.Path))
	sb.WriteString(rule + "\n")

	sb.WriteString("\nMETADATA COMPARISON:\n")
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	for _, key := range metadataKeys(a.Metadata, b.Metadata) {
		v1, ok := a.Metadata[key]
		if !ok {
			v1 = "N/A"
		}
		v2, ok := b.Metadata[key]
		if !ok {
			v2 = "N/A"
		}
		if v1 == v2 {
			fmt.Fprintf(&sb, "  %-20s: %s\n", key, v1)
		} else {
			fmt.Fprintf(&sb, "  %-20s: %s ≠ %s\n", key, v1, v2)
		}
	}

	sb.WriteString("\nDATA COMPARISON:\n")
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	if c.Err != nil {
		fmt.Fprintf(&sb, "  ERROR: %v\n", c.Err)
		return sb.String()
	}
	if c.Equal {
		sb.WriteString("  ✓ IDENTICAL within tolerance\n")
	} else {
		sb.WriteString("  ✗ DIFFERENCES FOUND\n")
	}
	fmt.Fprintf(&sb, "  Total points:     %s\n", humanize.Comma(int64(c.TotalPoints)))
	fmt.Fprintf(&sb, "  Equal points:     %s\n", humanize.Comma(int64(c.EqualPoints)))
	fmt.Fprintf(&sb, "  Max difference:   %.2e\n", c.MaxDiff)
	fmt.Fprintf(&sb, "  Mean difference:  %.2e\n", c.MeanDiff)
	fmt.Fprintf(&sb, "  Std difference:   %.2e\n", c.StdDiff)
	fmt.Fprintf(&sb, "  Tolerance:        %.2e\n", c.Tolerance)
	return sb.String()
}

func metadataKeys(a, b map[string]string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
