//go:build linux

package socketcan

import (
	"math"

	"golang.org/x/sys/unix"
)

// Socket wraps a caller-owned CAN socket descriptor. It holds no other
// state: every query re-reads the kernel. Concurrent use follows the kernel's
// rules for the descriptor; no locking is added here.
type Socket struct {
	fd int
}

// NewRaw opens a CAN_RAW socket.
func NewRaw() (*Socket, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return nil, wrapErr("socket(AF_CAN, CAN_RAW)", err)
	}
	return &Socket{fd: fd}, nil
}

// FromFD adopts an existing descriptor. Ownership stays with the caller
// until Close is called.
func FromFD(fd int) *Socket { return &Socket{fd: fd} }

// FD returns the underlying descriptor, or -1 after Close.
func (s *Socket) FD() int { return s.fd }

// Bind associates the socket with an interface index. rx and tx are the
// address pair used by point-to-point protocols (ISO-TP); raw sockets leave
// them zero. Index 0 binds a raw socket to every CAN interface.
func (s *Socket) Bind(ifindex, rx, tx uint32) error {
	if ifindex > math.MaxInt32 {
		return &Error{Op: "bind", Errno: unix.EINVAL}
	}
	sa := &unix.SockaddrCAN{Ifindex: int(ifindex), RxID: rx, TxID: tx}
	return wrapErr("bind", unix.Bind(s.fd, sa))
}

// Close releases the descriptor. Further calls on s fail with EBADF instead
// of touching a descriptor number the process may have reused.
func (s *Socket) Close() error {
	fd := s.fd
	s.fd = -1
	return wrapErr("close", unix.Close(fd))
}

// SetBlocking toggles O_NONBLOCK, preserving every other status flag.
func (s *Socket) SetBlocking(blocking bool) error {
	flags, err := unix.FcntlInt(uintptr(s.fd), unix.F_GETFL, 0)
	if err != nil {
		return wrapErr("fcntl(F_GETFL)", err)
	}
	if blocking {
		flags &^= unix.O_NONBLOCK
	} else {
		flags |= unix.O_NONBLOCK
	}
	_, err = unix.FcntlInt(uintptr(s.fd), unix.F_SETFL, flags)
	return wrapErr("fcntl(F_SETFL)", err)
}

// Blocking reports whether O_NONBLOCK is clear.
func (s *Socket) Blocking() (bool, error) {
	flags, err := unix.FcntlInt(uintptr(s.fd), unix.F_GETFL, 0)
	if err != nil {
		return false, wrapErr("fcntl(F_GETFL)", err)
	}
	return flags&unix.O_NONBLOCK == 0, nil
}

// maxTimeoutMicros keeps the nanosecond conversion inside int64.
const maxTimeoutMicros = math.MaxInt64 / 1000

// timevalParts splits a microsecond count into (seconds, microseconds).
// Counts beyond what a timeval can carry are clamped.
func timevalParts(micros uint64) (sec, usec int64) {
	if micros > maxTimeoutMicros {
		micros = maxTimeoutMicros
	}
	return int64(micros / 1_000_000), int64(micros % 1_000_000)
}

func microsToTimeval(micros uint64) unix.Timeval {
	sec, usec := timevalParts(micros)
	return unix.NsecToTimeval(sec*1_000_000_000 + usec*1_000)
}

func timevalToMicros(tv *unix.Timeval) uint64 {
	sec, nsec := tv.Unix()
	if sec < 0 || nsec < 0 {
		return 0
	}
	return uint64(sec)*1_000_000 + uint64(nsec)/1_000
}

// SetTimeouts applies SO_RCVTIMEO then SO_SNDTIMEO. Zero means no timeout.
// When the receive timeout is rejected the send timeout is left untouched.
func (s *Socket) SetTimeouts(readMicros, writeMicros uint64) error {
	rtv := microsToTimeval(readMicros)
	if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &rtv); err != nil {
		return wrapErr("setsockopt(SO_RCVTIMEO)", err)
	}
	wtv := microsToTimeval(writeMicros)
	return wrapErr("setsockopt(SO_SNDTIMEO)", unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &wtv))
}

// Timeouts reads back the receive and send timeouts in microseconds, as
// rounded by the kernel.
func (s *Socket) Timeouts() (readMicros, writeMicros uint64, err error) {
	rtv, err := unix.GetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO)
	if err != nil {
		return 0, 0, wrapErr("getsockopt(SO_RCVTIMEO)", err)
	}
	wtv, err := unix.GetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO)
	if err != nil {
		return 0, 0, wrapErr("getsockopt(SO_SNDTIMEO)", err)
	}
	return timevalToMicros(rtv), timevalToMicros(wtv), nil
}
