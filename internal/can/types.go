package can

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// SocketCAN flag bits for can_id (same values as <linux/can.h>)
const (
	CAN_EFF_FLAG = 0x80000000
	CAN_RTR_FLAG = 0x40000000
	CAN_ERR_FLAG = 0x20000000
	CAN_SFF_MASK = 0x7FF
	CAN_EFF_MASK = 0x1FFFFFFF
	CAN_ERR_MASK = 0x1FFFFFFF
)

// Frame sizes as exchanged with a raw CAN socket.
const (
	MTU   = 16 // struct can_frame
	FDMTU = 72 // struct canfd_frame

	MaxLen   = 8
	MaxFDLen = 64
)

// canfd_frame.flags
const (
	FDFlagBRS = 0x01 // bit rate switch
	FDFlagESI = 0x02 // error state indicator
	FDFlagFDF = 0x04 // mark as CAN FD frame (kernels >= 6.3)
)

var (
	// ErrInvalidLength is returned when a payload length does not fit the frame kind.
	ErrInvalidLength = errors.New("can: invalid length")
	// ErrShortBuffer is returned when a wire buffer is smaller than the frame layout.
	ErrShortBuffer = errors.New("can: short buffer")
)

// Frame is a CAN or CAN FD frame holder.
// CANID contains EFF/RTR/ERR flags in its upper bits like SocketCAN.
// Len is payload length (0..8 for classic, 0..64 for FD); only the first Len bytes are valid.
type Frame struct {
	CANID uint32
	Len   uint8
	FD    bool
	Flags uint8 // FD only
	Data  [MaxFDLen]byte
}

func (f Frame) CopyShallow() Frame { // handy for tests
	var g Frame
	g.CANID, g.Len, g.FD, g.Flags = f.CANID, f.Len, f.FD, f.Flags
	copy(g.Data[:], f.Data[:])
	return g
}

// Extended reports whether the frame carries a 29-bit identifier.
func (f Frame) Extended() bool { return f.CANID&CAN_EFF_FLAG != 0 }

// ID returns the identifier without flag bits. For error frames it is the
// error class (CAN_ERR_MASK).
func (f Frame) ID() uint32 {
	if f.Extended() || f.CANID&CAN_ERR_FLAG != 0 {
		return f.CANID & CAN_EFF_MASK
	}
	return f.CANID & CAN_SFF_MASK
}

// Payload returns the valid data bytes.
func (f *Frame) Payload() []byte { return f.Data[:f.Len] }

// Size returns the wire size for the frame kind.
func (f Frame) Size() int {
	if f.FD {
		return FDMTU
	}
	return MTU
}

func (f Frame) validate() error {
	max := uint8(MaxLen)
	if f.FD {
		max = MaxFDLen
	}
	if f.Len > max {
		return fmt.Errorf("%w: %d", ErrInvalidLength, f.Len)
	}
	return nil
}

// MarshalTo writes the kernel layout of f into b and returns the bytes used.
//
// struct can_frame / canfd_frame (linux/can.h):
//
//	can_id  u32   [0:4]  (includes EFF/RTR/ERR flags, host byte order)
//	len     u8    [4]
//	flags   u8    [5]    (FD) / pad (classic)
//	res0    u8    [6]
//	res1    u8    [7]    (FD) / len8_dlc (classic)
//	data          [8:16] classic, [8:72] FD
func (f Frame) MarshalTo(b []byte) (int, error) {
	if err := f.validate(); err != nil {
		return 0, err
	}
	n := f.Size()
	if len(b) < n {
		return 0, ErrShortBuffer
	}
	clear(b[:n])
	binary.NativeEndian.PutUint32(b[0:4], f.CANID)
	b[4] = f.Len
	if f.FD {
		b[5] = f.Flags
	}
	copy(b[8:n], f.Data[:f.Len])
	return n, nil
}

// MarshalBinary returns the kernel layout of f.
func (f Frame) MarshalBinary() ([]byte, error) {
	b := make([]byte, f.Size())
	if _, err := f.MarshalTo(b); err != nil {
		return nil, err
	}
	return b, nil
}

// UnmarshalBinary decodes a 16-byte classic or 72-byte FD frame. The frame kind
// is derived from the buffer length, as the kernel reports it through read(2).
func (f *Frame) UnmarshalBinary(b []byte) error {
	var fd bool
	switch len(b) {
	case MTU:
	case FDMTU:
		fd = true
	default:
		return fmt.Errorf("%w: %d bytes", ErrShortBuffer, len(b))
	}
	ln := b[4]
	if (!fd && ln > MaxLen) || ln > MaxFDLen {
		return fmt.Errorf("%w: %d", ErrInvalidLength, ln)
	}
	*f = Frame{}
	f.CANID = binary.NativeEndian.Uint32(b[0:4])
	f.Len = ln
	f.FD = fd
	if fd {
		f.Flags = b[5]
	}
	copy(f.Data[:], b[8:8+int(ln)])
	return nil
}
