//go:build linux

package socketcan

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Option names one of the CAN_RAW socket options handled here.
type Option int

const (
	OptLoopback Option = iota
	OptReceiveOwnMessages
	OptJoinFilters
	OptAllowFDFrames
	OptErrorMask
)

var optionNames = [...]string{
	OptLoopback:           "CAN_RAW_LOOPBACK",
	OptReceiveOwnMessages: "CAN_RAW_RECV_OWN_MSGS",
	OptJoinFilters:        "CAN_RAW_JOIN_FILTERS",
	OptAllowFDFrames:      "CAN_RAW_FD_FRAMES",
	OptErrorMask:          "CAN_RAW_ERR_FILTER",
}

var optionIDs = [...]int{
	OptLoopback:           unix.CAN_RAW_LOOPBACK,
	OptReceiveOwnMessages: unix.CAN_RAW_RECV_OWN_MSGS,
	OptJoinFilters:        unix.CAN_RAW_JOIN_FILTERS,
	OptAllowFDFrames:      unix.CAN_RAW_FD_FRAMES,
	OptErrorMask:          unix.CAN_RAW_ERR_FILTER,
}

// Flags lists the boolean options.
var Flags = []Option{OptLoopback, OptReceiveOwnMessages, OptJoinFilters, OptAllowFDFrames}

func (o Option) String() string {
	if o < 0 || int(o) >= len(optionNames) {
		return fmt.Sprintf("Option(%d)", int(o))
	}
	return optionNames[o]
}

func (o Option) valid() bool { return o >= 0 && int(o) < len(optionIDs) }

// IsFlag reports whether o is a boolean option.
func (o Option) IsFlag() bool { return o.valid() && o != OptErrorMask }

// SetOption writes the raw 32-bit value of o.
func (s *Socket) SetOption(o Option, v uint32) error {
	op := "setsockopt(" + o.String() + ")"
	if !o.valid() {
		return &Error{Op: op, Errno: unix.ENOPROTOOPT}
	}
	return wrapErr(op, unix.SetsockoptInt(s.fd, unix.SOL_CAN_RAW, optionIDs[o], int(int32(v))))
}

// Option reads the raw 32-bit value of o.
func (s *Socket) Option(o Option) (uint32, error) {
	op := "getsockopt(" + o.String() + ")"
	if !o.valid() {
		return 0, &Error{Op: op, Errno: unix.ENOPROTOOPT}
	}
	v, err := unix.GetsockoptInt(s.fd, unix.SOL_CAN_RAW, optionIDs[o])
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return uint32(v), nil
}

// SetFlag enables or disables a boolean option.
func (s *Socket) SetFlag(o Option, on bool) error {
	if !o.IsFlag() {
		return fmt.Errorf("%w: %s", ErrNotFlag, o)
	}
	var v uint32
	if on {
		v = 1
	}
	return s.SetOption(o, v)
}

// Flag reads a boolean option; any non-zero value is true.
func (s *Socket) Flag(o Option) (bool, error) {
	if !o.IsFlag() {
		return false, fmt.Errorf("%w: %s", ErrNotFlag, o)
	}
	v, err := s.Option(o)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (s *Socket) SetLoopback(on bool) error { return s.SetFlag(OptLoopback, on) }
func (s *Socket) Loopback() (bool, error) { return s.Flag(OptLoopback) }

func (s *Socket) SetReceiveOwnMessages(on bool) error { return s.SetFlag(OptReceiveOwnMessages, on) }
func (s *Socket) ReceiveOwnMessages() (bool, error) { return s.Flag(OptReceiveOwnMessages) }

func (s *Socket) SetJoinFilters(on bool) error { return s.SetFlag(OptJoinFilters, on) }
func (s *Socket) JoinFilters() (bool, error) { return s.Flag(OptJoinFilters) }

func (s *Socket) SetAllowFDFrames(on bool) error { return s.SetFlag(OptAllowFDFrames, on) }
func (s *Socket) AllowFDFrames() (bool, error) { return s.Flag(OptAllowFDFrames) }

// SetErrorFilter selects which error frame classes (CAN_ERR_* bits) are
// delivered to the socket.
func (s *Socket) SetErrorFilter(mask uint32) error { return s.SetOption(OptErrorMask, mask) }

// ErrorFilter returns the error class mask. Failure is reported only through
// the error, so every 32-bit mask is a legal result.
func (s *Socket) ErrorFilter() (uint32, error) { return s.Option(OptErrorMask) }
