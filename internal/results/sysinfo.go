package results

import (
	"context"
	"os/exec"
	"regexp"
	"time"
)

// UnknownVersion is reported when no CUDA compiler can be queried.
const UnknownVersion = "unknown"

var nvccCandidates = []string{"/usr/local/cuda/bin/nvcc", "nvcc"}

var nvccRelease = regexp.MustCompile(`release ([^,\s]+)`)

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CUDAVersion returns the release reported by nvcc, such as "12.2", or
// UnknownVersion.
func CUDAVersion(ctx context.Context) string {
	return cudaVersion(ctx, execRunner)
}

func cudaVersion(ctx context.Context, run commandRunner) string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, nvcc := range nvccCandidates {
		output, err := run(ctx, nvcc, "--version")
		if err != nil {
			continue
		}
		if version, ok := parseNVCCRelease(output); ok {
			return version
		}
	}
	return UnknownVersion
}

func parseNVCCRelease(output []byte) (string, bool) {
	m := nvccRelease.FindSubmatch(output)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}
