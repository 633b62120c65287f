//go:build linux

package socketcan

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// window returns buf[offset:offset+length] or false when it does not fit.
func window(buf []byte, offset, length int) ([]byte, bool) {
	if offset < 0 || length < 0 || offset > len(buf) || length > len(buf)-offset {
		return nil, false
	}
	return buf[offset : offset+length], true
}

func boundsErr(op string) error {
	return fmt.Errorf("%w: %w", ErrBounds, &Error{Op: op, Errno: unix.EINVAL})
}

// Write writes buf[offset:offset+length] with a single write(2). A short
// write is returned as a smaller count, not an error; the caller decides
// whether to continue.
func (s *Socket) Write(buf []byte, offset, length int) (int, error) {
	p, ok := window(buf, offset, length)
	if !ok {
		return 0, boundsErr("write")
	}
	n, err := unix.Write(s.fd, p)
	if err != nil {
		return 0, wrapErr("write", err)
	}
	return n, nil
}

// Read reads into buf[offset:offset+length] with a single read(2). On a
// non-blocking socket with nothing queued the error carries EAGAIN.
func (s *Socket) Read(buf []byte, offset, length int) (int, error) {
	p, ok := window(buf, offset, length)
	if !ok {
		return 0, boundsErr("read")
	}
	n, err := unix.Read(s.fd, p)
	if err != nil {
		return 0, wrapErr("read", err)
	}
	return n, nil
}
