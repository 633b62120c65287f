package can

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is returned by ParseFrame for malformed frame text.
var ErrSyntax = errors.New("can: invalid frame syntax")

// ParseFrame parses the compact frame notation used by can-utils:
//
//	123#DEADBEEF     standard id, classic data (3 hex digits)
//	1F334455#1122    extended id (8 hex digits)
//	20000040#...     error frame (8 hex digits with CAN_ERR_FLAG set)
//	123#R / 123#R4   remote request, optional length
//	123##1AABBCC     CAN FD, first nibble after ## holds the FD flags
//
// Data bytes may be separated by dots ("11.22.33").
func ParseFrame(s string) (Frame, error) {
	var f Frame
	idPart, rest, ok := strings.Cut(s, "#")
	if !ok {
		return f, fmt.Errorf("%w: missing '#' in %q", ErrSyntax, s)
	}
	switch len(idPart) {
	case 3:
		id, err := strconv.ParseUint(idPart, 16, 32)
		if err != nil || id > CAN_SFF_MASK {
			return f, fmt.Errorf("%w: bad standard id %q", ErrSyntax, idPart)
		}
		f.CANID = uint32(id)
	case 8:
		id, err := strconv.ParseUint(idPart, 16, 32)
		if err != nil || id > CAN_EFF_MASK|CAN_ERR_FLAG {
			return f, fmt.Errorf("%w: bad extended id %q", ErrSyntax, idPart)
		}
		f.CANID = uint32(id)
		if f.CANID&CAN_ERR_FLAG == 0 {
			f.CANID |= CAN_EFF_FLAG
		}
	default:
		return f, fmt.Errorf("%w: id must have 3 or 8 hex digits, got %q", ErrSyntax, idPart)
	}

	if strings.HasPrefix(rest, "#") { // FD
		rest = rest[1:]
		if rest == "" {
			return f, fmt.Errorf("%w: missing FD flags in %q", ErrSyntax, s)
		}
		flags, err := strconv.ParseUint(rest[:1], 16, 8)
		if err != nil {
			return f, fmt.Errorf("%w: bad FD flags %q", ErrSyntax, rest[:1])
		}
		f.FD = true
		f.Flags = uint8(flags)
		rest = rest[1:]
	} else if len(rest) > 0 && (rest[0] == 'R' || rest[0] == 'r') {
		f.CANID |= CAN_RTR_FLAG
		if len(rest) > 1 {
			n, err := strconv.ParseUint(rest[1:], 10, 8)
			if err != nil || n > MaxLen {
				return f, fmt.Errorf("%w: bad RTR length %q", ErrSyntax, rest[1:])
			}
			f.Len = uint8(n)
		}
		return f, nil
	}

	raw, err := hex.DecodeString(strings.ReplaceAll(rest, ".", ""))
	if err != nil {
		return f, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	max := MaxLen
	if f.FD {
		max = MaxFDLen
	}
	if len(raw) > max {
		return f, fmt.Errorf("%w: %d data bytes", ErrInvalidLength, len(raw))
	}
	f.Len = uint8(len(raw))
	copy(f.Data[:], raw)
	return f, nil
}

// String formats f in the notation accepted by ParseFrame.
func (f Frame) String() string {
	var b strings.Builder
	switch {
	case f.CANID&CAN_ERR_FLAG != 0:
		fmt.Fprintf(&b, "%08X#", f.CANID&(CAN_ERR_MASK|CAN_ERR_FLAG))
	case f.Extended():
		fmt.Fprintf(&b, "%08X#", f.ID())
	default:
		fmt.Fprintf(&b, "%03X#", f.ID())
	}
	switch {
	case f.FD:
		fmt.Fprintf(&b, "#%X", f.Flags&0x0F)
	case f.CANID&CAN_RTR_FLAG != 0:
		b.WriteByte('R')
		if f.Len > 0 {
			b.WriteString(strconv.Itoa(int(f.Len)))
		}
		return b.String()
	}
	b.WriteString(strings.ToUpper(hex.EncodeToString(f.Data[:f.Len])))
	return b.String()
}
