//go:build !linux

package socketcan

import "errors"

// ErrUnsupported is returned by every socket entry point on non-linux builds.
var ErrUnsupported = errors.New("socketcan: raw CAN sockets require linux")
