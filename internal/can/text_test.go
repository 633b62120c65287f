package can

import (
	"errors"
	"testing"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		in    string
		id    uint32
		data  string
		fd    bool
		flags uint8
	}{
		{"123#DEADBEEF", 0x123, "\xDE\xAD\xBE\xEF", false, 0},
		{"7FF#", 0x7FF, "", false, 0},
		{"1F334455#11.22.33", 0x1F334455 | CAN_EFF_FLAG, "\x11\x22\x33", false, 0},
		{"123##1AABB", 0x123, "\xAA\xBB", true, FDFlagBRS},
		{"123#R", 0x123 | CAN_RTR_FLAG, "", false, 0},
	}
	for _, tc := range tests {
		f, err := ParseFrame(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if f.CANID != tc.id || string(f.Payload()) != tc.data || f.FD != tc.fd || f.Flags != tc.flags {
			t.Fatalf("%s: got id=0x%X data=% X fd=%v flags=%d", tc.in, f.CANID, f.Payload(), f.FD, f.Flags)
		}
	}
}

func TestParseFrame_RTRLength(t *testing.T) {
	f, err := ParseFrame("321#R4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Len != 4 || f.CANID&CAN_RTR_FLAG == 0 {
		t.Fatalf("unexpected frame %+v", f)
	}
}

func TestParseFrame_Errors(t *testing.T) {
	for _, in := range []string{
		"123",                    // no separator
		"12#00",                  // short id
		"800#00",                 // std id out of range
		"4FFFFFFF#00",            // ext id out of range
		"123#0",                  // odd hex
		"123#001122334455667788", // 9 bytes classic
		"123##",                  // missing flags
		"123#R9",                 // rtr len
	} {
		if _, err := ParseFrame(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
	if _, err := ParseFrame("123#001122334455667788"); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestFrameString_RoundTrip(t *testing.T) {
	for _, in := range []string{"123#DEADBEEF", "1F334455#", "123##1AABB", "123#R", "321#R4", "000#00"} {
		f, err := ParseFrame(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got := f.String(); got != in {
			t.Fatalf("String() = %q want %q", got, in)
		}
	}
}

func TestFrameString_ErrorFrame(t *testing.T) {
	busOff := Frame{CANID: CAN_ERR_FLAG | 0x040, Len: 8}
	data := Frame{CANID: 0x040, Len: 8}
	if got := busOff.String(); got != "20000040#0000000000000000" {
		t.Fatalf("error frame String() = %q", got)
	}
	if busOff.String() == data.String() {
		t.Fatalf("error frame must not print like data frame %q", data.String())
	}
	if busOff.ID() != 0x040 {
		t.Fatalf("error class: got 0x%X", busOff.ID())
	}
	f, err := ParseFrame(busOff.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.CANID != busOff.CANID || f.Extended() {
		t.Fatalf("round trip: got CANID 0x%08X", f.CANID)
	}
}
