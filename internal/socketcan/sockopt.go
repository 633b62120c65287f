//go:build linux

package socketcan

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// setsockoptBytes passes b verbatim as the option value. An empty b sets a
// zero-length option (used to install an empty filter list).
func setsockoptBytes(fd, level, name int, b []byte) error {
	var p unsafe.Pointer
	if len(b) > 0 {
		p = unsafe.Pointer(&b[0])
	}
	_, _, e := unix.Syscall6(unix.SYS_SETSOCKOPT,
		uintptr(fd), uintptr(level), uintptr(name),
		uintptr(p), uintptr(len(b)), 0)
	if e != 0 {
		return e
	}
	return nil
}

// getsockoptBytes fills b and returns the number of bytes the kernel copied.
func getsockoptBytes(fd, level, name int, b []byte) (int, error) {
	var p unsafe.Pointer
	if len(b) > 0 {
		p = unsafe.Pointer(&b[0])
	}
	l := uint32(len(b)) // socklen_t
	_, _, e := unix.Syscall6(unix.SYS_GETSOCKOPT,
		uintptr(fd), uintptr(level), uintptr(name),
		uintptr(p), uintptr(unsafe.Pointer(&l)), 0)
	if e != 0 {
		return 0, e
	}
	if int(l) > len(b) {
		return 0, unix.ERANGE
	}
	return int(l), nil
}
