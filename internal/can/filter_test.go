package can

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeFilters_Layout(t *testing.T) {
	fs := []Filter{{ID: 0x123, Mask: 0x7FF}, {ID: 0x80000456, Mask: 0x9FFFFFFF}}
	b := EncodeFilters(fs)
	if len(b) != 2*FilterSize {
		t.Fatalf("expected %d bytes got %d", 2*FilterSize, len(b))
	}
	want := []uint32{0x123, 0x7FF, 0x80000456, 0x9FFFFFFF}
	for i, w := range want {
		if got := binary.NativeEndian.Uint32(b[i*4:]); got != w {
			t.Fatalf("word %d: got 0x%X want 0x%X", i, got, w)
		}
	}
	back, err := DecodeFilters(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(back) != 2 || back[0] != fs[0] || back[1] != fs[1] {
		t.Fatalf("round trip mismatch: %v", back)
	}
}

func TestEncodeFilters_Empty(t *testing.T) {
	if b := EncodeFilters(nil); len(b) != 0 {
		t.Fatalf("expected empty encoding, got %d bytes", len(b))
	}
	fs, err := DecodeFilters(nil)
	if err != nil || len(fs) != 0 {
		t.Fatalf("decode empty: %v %v", fs, err)
	}
}

func TestDecodeFilters_Misaligned(t *testing.T) {
	if _, err := DecodeFilters(make([]byte, 12)); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		f    Filter
		id   uint32
		want bool
	}{
		{StdFilter(0x123), 0x123, true},
		{StdFilter(0x123), 0x124, false},
		{StdInvFilter(0x123), 0x123, false},
		{StdInvFilter(0x123), 0x124, true},
		{ExtFilter(0x1ABCDE), 0x1ABCDE | CAN_EFF_FLAG, true},
		{ExtFilter(0x1ABCDE), 0x1ABCDE, false},
		{ExtInvFilter(0x1ABCDE), 0x1ABCDE | CAN_EFF_FLAG, false},
		{Filter{ID: 0, Mask: 0}, 0x555, true},
	}
	for i, tc := range tests {
		if got := tc.f.Match(tc.id); got != tc.want {
			t.Fatalf("case %d (%v, 0x%X): got %v want %v", i, tc.f, tc.id, got, tc.want)
		}
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("123:7FF")
	if err != nil || f != (Filter{ID: 0x123, Mask: 0x7FF}) {
		t.Fatalf("got %v %v", f, err)
	}
	f, err = ParseFilter("123~7FF")
	if err != nil || f != (Filter{ID: 0x123 | CAN_INV_FILTER, Mask: 0x7FF}) {
		t.Fatalf("inverted: got %v %v", f, err)
	}
	for _, in := range []string{"123", "xyz:7FF", "123:zz"} {
		if _, err := ParseFilter(in); !errors.Is(err, ErrSyntax) {
			t.Fatalf("%q: expected ErrSyntax, got %v", in, err)
		}
	}
}
