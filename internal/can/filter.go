package can

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// FilterSize is sizeof(struct can_filter).
const FilterSize = 8

// CAN_INV_FILTER inverts the match of a filter when set in Filter.ID.
const CAN_INV_FILTER = 0x20000000

// Filter is one acceptance rule: a frame matches when
// received_can_id & Mask == ID & Mask.
type Filter struct {
	ID   uint32
	Mask uint32
}

func StdFilter(id uint32) Filter { return Filter{ID: id, Mask: CAN_SFF_MASK} }

func StdInvFilter(id uint32) Filter { return Filter{ID: id | CAN_INV_FILTER, Mask: CAN_SFF_MASK} }

func ExtFilter(id uint32) Filter {
	return Filter{ID: id | CAN_EFF_FLAG, Mask: CAN_EFF_MASK | CAN_EFF_FLAG}
}

func ExtInvFilter(id uint32) Filter {
	return Filter{ID: id | CAN_EFF_FLAG | CAN_INV_FILTER, Mask: CAN_EFF_MASK | CAN_EFF_FLAG}
}

// Match reports whether a frame id passes this single filter.
func (f Filter) Match(canID uint32) bool {
	hit := canID&f.Mask == f.ID&^CAN_INV_FILTER&f.Mask
	if f.ID&CAN_INV_FILTER != 0 {
		return !hit
	}
	return hit
}

func (f Filter) String() string { return fmt.Sprintf("%08X:%08X", f.ID, f.Mask) }

// ParseFilter parses "id:mask" (hex) or "id~mask" for an inverted filter.
func ParseFilter(s string) (Filter, error) {
	inv := false
	idStr, maskStr, ok := strings.Cut(s, ":")
	if !ok {
		idStr, maskStr, ok = strings.Cut(s, "~")
		inv = ok
	}
	if !ok {
		return Filter{}, fmt.Errorf("%w: filter %q wants id:mask", ErrSyntax, s)
	}
	id, err := strconv.ParseUint(idStr, 16, 32)
	if err != nil {
		return Filter{}, fmt.Errorf("%w: filter id %q", ErrSyntax, idStr)
	}
	mask, err := strconv.ParseUint(maskStr, 16, 32)
	if err != nil {
		return Filter{}, fmt.Errorf("%w: filter mask %q", ErrSyntax, maskStr)
	}
	f := Filter{ID: uint32(id), Mask: uint32(mask)}
	if inv {
		f.ID |= CAN_INV_FILTER
	}
	return f, nil
}

// EncodeFilters serializes fs into the layout CAN_RAW_FILTER expects:
// consecutive {id u32, mask u32} records in host byte order, no count prefix.
func EncodeFilters(fs []Filter) []byte {
	b := make([]byte, len(fs)*FilterSize)
	for i, f := range fs {
		binary.NativeEndian.PutUint32(b[i*FilterSize:], f.ID)
		binary.NativeEndian.PutUint32(b[i*FilterSize+4:], f.Mask)
	}
	return b
}

// DecodeFilters is the inverse of EncodeFilters.
func DecodeFilters(b []byte) ([]Filter, error) {
	if len(b)%FilterSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrInvalidLength, len(b), FilterSize)
	}
	fs := make([]Filter, len(b)/FilterSize)
	for i := range fs {
		fs[i].ID = binary.NativeEndian.Uint32(b[i*FilterSize:])
		fs[i].Mask = binary.NativeEndian.Uint32(b[i*FilterSize+4:])
	}
	return fs, nil
}
