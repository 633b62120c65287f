//go:build linux

package socketcan

import (
	"golang.org/x/sys/unix"
)

// ResolveInterfaceName maps an interface name to its kernel index the way
// if_nametoindex(3) does. Index 0 is never returned with a nil error.
func ResolveInterfaceName(name string) (uint32, error) {
	const op = "if_nametoindex"
	if name == "" {
		return 0, &Error{Op: op, Errno: unix.EINVAL}
	}
	ifr, err := unix.NewIfreq(name) // EINVAL when longer than IFNAMSIZ-1
	if err != nil {
		return 0, wrapErr(op, err)
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	defer unix.Close(fd)
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFINDEX, ifr); err != nil {
		return 0, wrapErr(op, err)
	}
	idx := ifr.Uint32()
	if idx == 0 {
		return 0, &Error{Op: op, Errno: unix.ENODEV}
	}
	return idx, nil
}
