//go:build linux

package socketcan

import "golang.org/x/sys/unix"

// Poll event bits.
const (
	PollIn   = unix.POLLIN
	PollPri  = unix.POLLPRI
	PollOut  = unix.POLLOUT
	PollErr  = unix.POLLERR
	PollHup  = unix.POLLHUP
	PollNval = unix.POLLNVAL
)

// Poll waits up to timeoutMillis for the requested events on this socket
// and returns the observed events. 0 returns immediately, a negative
// timeout blocks indefinitely. A timeout yields (0, nil). EINTR is returned
// to the caller, not retried.
func (s *Socket) Poll(events int16, timeoutMillis int) (int16, error) {
	if s.fd < 0 { // poll(2) silently skips negative descriptors
		return 0, &Error{Op: "poll", Errno: unix.EBADF}
	}
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: events}}
	n, err := unix.Poll(fds, timeoutMillis)
	if err != nil {
		return 0, wrapErr("poll", err)
	}
	if n == 0 {
		return 0, nil
	}
	if fds[0].Revents&unix.POLLNVAL != 0 {
		return fds[0].Revents, &Error{Op: "poll", Errno: unix.EBADF}
	}
	return fds[0].Revents, nil
}
