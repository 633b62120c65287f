// Package capture writes received frames as a pcap stream readable by
// Wireshark and tcpdump (LINKTYPE_CAN_SOCKETCAN).
package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/kstaniek/go-cansock/internal/can"
)

// LinkTypeSocketCAN is LINKTYPE_CAN_SOCKETCAN from the tcpdump link-type registry.
const LinkTypeSocketCAN layers.LinkType = 227

// Writer appends frames to a pcap stream. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	w   *pcapgo.Writer
	buf [can.FDMTU]byte
}

// NewWriter writes the pcap file header to w.
func NewWriter(w io.Writer) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(can.FDMTU, LinkTypeSocketCAN); err != nil {
		return nil, fmt.Errorf("pcap header: %w", err)
	}
	return &Writer{w: pw}, nil
}

// Encode renders fr in the capture layout: the kernel frame layout with
// can_id in network byte order.
func Encode(b []byte, fr can.Frame) (int, error) {
	n, err := fr.MarshalTo(b)
	if err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(b[0:4], fr.CANID)
	return n, nil
}

// WriteFrame records fr with timestamp ts.
func (w *Writer) WriteFrame(ts time.Time, fr can.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := Encode(w.buf[:], fr)
	if err != nil {
		return err
	}
	ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: n, Length: n}
	return w.w.WritePacket(ci, w.buf[:n])
}
