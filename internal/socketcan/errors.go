//go:build linux

package socketcan

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrBounds is returned when an offset/length window does not fit the buffer.
	ErrBounds = errors.New("socketcan: buffer window out of range")
	// ErrScratchAlloc is returned when the filter retrieval buffer cannot be obtained.
	// It is distinct from a kernel option failure so callers can tell them apart.
	ErrScratchAlloc = errors.New("socketcan: scratch buffer allocation failed")
	// ErrNotFlag is returned when a non-boolean option is used as a flag.
	ErrNotFlag = errors.New("socketcan: option is not a boolean flag")
)

// Error is a failed kernel call. The system error code is captured at the
// point of failure, so later calls cannot disturb it.
type Error struct {
	Op    string
	Errno unix.Errno
}

func (e *Error) Error() string { return e.Op + ": " + e.Errno.Error() }

func (e *Error) Unwrap() error { return e.Errno }

// Code returns the numeric system error code.
func (e *Error) Code() int { return int(e.Errno) }

// Timeout reports whether the error is a would-block or timeout condition.
func (e *Error) Timeout() bool { return e.Errno.Timeout() }

// wrapErr converts a syscall failure into *Error. Non-errno failures are
// wrapped with the op for context.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return &Error{Op: op, Errno: errno}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Errno returns the system error code carried by err, or 0 when err carries none.
func Errno(err error) int {
	var se *Error
	if errors.As(err, &se) {
		return se.Code()
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}

// Errstr renders a system error code as strerror(3) would.
func Errstr(code int) string { return unix.Errno(code).Error() }
