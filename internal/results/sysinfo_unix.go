//go:build linux || darwin || freebsd || netbsd || openbsd

package results

import (
	"golang.org/x/sys/unix"
)

// SystemInfo returns "sysname release" from uname, or "unknown".
func SystemInfo() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return UnknownVersion
	}
	return unix.ByteSliceToString(u.Sysname[:]) + " " + unix.ByteSliceToString(u.Release[:])
}
