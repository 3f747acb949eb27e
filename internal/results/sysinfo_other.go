//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package results

import "runtime"

// SystemInfo returns the operating system name; uname is not available here.
func SystemInfo() string {
	return runtime.GOOS
}
