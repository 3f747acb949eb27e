// Package results reads, writes and compares correlator result files.
//
// A result file is a block of "# Key: Value" header lines followed by one
// "index real imag" line per visibility.
package results

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
)

// DefaultTitle heads every result file.
const DefaultTitle = "xGPU Texture Compatibility Test Results"

// Header keys.
const (
	KeyGenerated   = "Generated"
	KeyCUDAVersion = "CUDA Version"
	KeySystem      = "System"
	KeyTextureDim  = "Texture Dimension"
	KeyMatLength   = "Matrix Length"
	KeySeed        = "Test Seed"
	KeyExecTime    = "Execution Time"
	KeyDigest      = "Digest"
	KeyDataFormat  = "Data Format"
)

const dataFormat = "index real_part imag_part"

// Metadata is the header of a result file.
type Metadata struct {
	Title       string
	Generated   time.Time
	CUDAVersion string
	System      string
	MatLength   int
	Seed        uint64
	ExecTime    time.Duration
	Digest      string

	// TextureDim is the texture dimension the library was built with, 0 when unknown.
	TextureDim int
}

// TextureDimString renders the texture dimension as it appears in headers.
func (m Metadata) TextureDimString() string {
	if m.TextureDim <= 0 {
		return "undefined"
	}
	return fmt.Sprintf("%d", m.TextureDim)
}

// Digest returns the Keccak-256 hash of the visibilities, encoded as
// little-endian float32 real/imag pairs.
func Digest(data []complex64) string {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[8*i:], math.Float32bits(real(v)))
		binary.LittleEndian.PutUint32(buf[8*i+4:], math.Float32bits(imag(v)))
	}
	return crypto.Keccak256Hash(buf).Hex()
}

// FileName returns the conventional name of a result file.
func FileName(textureDim int, cudaVersion string) string {
	if textureDim <= 0 {
		return fmt.Sprintf("results_unknown_cuda%s.txt", cudaVersion)
	}
	return fmt.Sprintf("results_%dd_cuda%s.txt", textureDim, cudaVersion)
}

// Write writes the header and one line per element of data. An empty Digest
// is computed from data.
func Write(w io.Writer, meta Metadata, data []complex64) error {
	if meta.Title == "" {
		meta.Title = DefaultTitle
	}
	if meta.Digest == "" {
		meta.Digest = Digest(data)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n", meta.Title)
	fmt.Fprintf(bw, "# %s: %s\n", KeyGenerated, meta.Generated.Format(time.ANSIC))
	fmt.Fprintf(bw, "# %s: %s\n", KeyCUDAVersion, meta.CUDAVersion)
	fmt.Fprintf(bw, "# %s: %s\n", KeySystem, meta.System)
	fmt.Fprintf(bw, "# %s: %s\n", KeyTextureDim, meta.TextureDimString())
	fmt.Fprintf(bw, "# %s: %d\n", KeyMatLength, meta.MatLength)
	fmt.Fprintf(bw, "# %s: %d\n", KeySeed, meta.Seed)
	fmt.Fprintf(bw, "# %s: %.6f seconds\n", KeyExecTime, meta.ExecTime.Seconds())
	fmt.Fprintf(bw, "# %s: %s\n", KeyDigest, meta.Digest)
	fmt.Fprintf(bw, "# %s: %s\n", KeyDataFormat, dataFormat)

	for i, v := range data {
		if _, err := fmt.Fprintf(bw, "%d %.15e %.15e\n", i, float64(real(v)), float64(imag(v))); err != nil {
			return fmt.Errorf("write line %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// Save writes a result file named by FileName into dir and returns its path.
func Save(dir string, meta Metadata, data []complex64) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, FileName(meta.TextureDim, meta.CUDAVersion))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create result file: %w", err)
	}
	if err := Write(f, meta, data); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close result file: %w", err)
	}
	return path, nil
}
