//go:build linux

package socketcan

import (
	"errors"
	"fmt"
	"time"

	"github.com/kstaniek/go-cansock/internal/can"
)

// ErrShortTransfer is returned when a frame was only partly read or written.
var ErrShortTransfer = errors.New("socketcan: short frame transfer")

// Config describes how Open prepares a raw socket before binding.
type Config struct {
	Interface string
	// Filters replaces the kernel default (accept all) when non-nil. An empty,
	// non-nil slice receives no data frames.
	Filters      []can.Filter
	JoinFilters  bool
	FDFrames     bool
	NoLoopback   bool
	ReceiveOwn   bool
	ErrorMask    uint32
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	NonBlocking  bool
}

// Device is a frame-level handle on a bound raw CAN socket.
type Device struct {
	sock    *Socket
	ifindex uint32
	fd      bool
	buf     [can.FDMTU]byte
}

// Open resolves the interface, creates a raw socket, applies cfg and binds.
// The socket is closed again if any step fails.
func Open(cfg Config) (*Device, error) {
	ifindex, err := ResolveInterfaceName(cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("if %q: %w", cfg.Interface, err)
	}
	s, err := NewRaw()
	if err != nil {
		return nil, err
	}
	if err := configure(s, cfg); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.Bind(ifindex, 0, 0); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("bind(can@%s): %w", cfg.Interface, err)
	}
	return &Device{sock: s, ifindex: ifindex, fd: cfg.FDFrames}, nil
}

func configure(s *Socket, cfg Config) error {
	if cfg.Filters != nil {
		if err := s.SetFilterList(cfg.Filters); err != nil {
			return err
		}
	}
	if cfg.JoinFilters {
		if err := s.SetJoinFilters(true); err != nil {
			return err
		}
	}
	if cfg.FDFrames {
		if err := s.SetAllowFDFrames(true); err != nil {
			return fmt.Errorf("enable CAN FD: %w", err)
		}
	}
	if cfg.NoLoopback {
		if err := s.SetLoopback(false); err != nil {
			return err
		}
	}
	if cfg.ReceiveOwn {
		if err := s.SetReceiveOwnMessages(true); err != nil {
			return err
		}
	}
	if cfg.ErrorMask != 0 {
		if err := s.SetErrorFilter(cfg.ErrorMask); err != nil {
			return err
		}
	}
	if cfg.ReadTimeout > 0 || cfg.WriteTimeout > 0 {
		if err := s.SetTimeouts(uint64(cfg.ReadTimeout.Microseconds()), uint64(cfg.WriteTimeout.Microseconds())); err != nil {
			return err
		}
	}
	if cfg.NonBlocking {
		if err := s.SetBlocking(false); err != nil {
			return err
		}
	}
	return nil
}

// Socket exposes the underlying socket for option queries.
func (d *Device) Socket() *Socket { return d.sock }

// Ifindex is the interface index the socket is bound to.
func (d *Device) Ifindex() uint32 { return d.ifindex }

func (d *Device) Close() error { return d.sock.Close() }

// ReadFrame reads one frame. With FD frames enabled the kernel delivers
// either a 16-byte classic or a 72-byte FD frame.
func (d *Device) ReadFrame(fr *can.Frame) error {
	size := can.MTU
	if d.fd {
		size = can.FDMTU
	}
	n, err := d.sock.Read(d.buf[:], 0, size)
	if err != nil {
		return err
	}
	if n != can.MTU && n != can.FDMTU {
		return fmt.Errorf("%w: read %d bytes", ErrShortTransfer, n)
	}
	return fr.UnmarshalBinary(d.buf[:n])
}

// WriteFrame writes one frame. FD frames need FDFrames in Config.
func (d *Device) WriteFrame(fr can.Frame) error {
	var buf [can.FDMTU]byte
	n, err := fr.MarshalTo(buf[:])
	if err != nil {
		return err
	}
	w, err := d.sock.Write(buf[:], 0, n)
	if err != nil {
		return err
	}
	if w != n {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrShortTransfer, w, n)
	}
	return nil
}

// WaitReadable polls for a readable frame for up to timeout. A pending socket
// error or hang-up also reports ready: only a read clears it, and ReadFrame
// then returns the error.
func (d *Device) WaitReadable(timeout time.Duration) (bool, error) {
	ev, err := d.sock.Poll(PollIn, int(timeout.Milliseconds()))
	if err != nil {
		return false, err
	}
	return ev&(PollIn|PollErr|PollHup) != 0, nil
}
