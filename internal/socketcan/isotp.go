//go:build linux

package socketcan

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// ISO-TP socket options (linux/can/isotp.h).
const (
	solCANISOTP = unix.SOL_CAN_BASE + unix.CAN_ISOTP

	isotpOpts     = 1
	isotpRecvFC   = 2
	isotpTxSTmin  = 3
	isotpRxSTmin  = 4
	isotpLLOpts   = 5
	isotpOptsSize = 12
	isotpFCSize   = 3
	isotpLLSize   = 3
)

// ISO-TP option flags (can_isotp_options.flags).
const (
	ISOTPListenMode   = 0x0001
	ISOTPExtendAddr   = 0x0002
	ISOTPTxPadding    = 0x0004
	ISOTPRxPadding    = 0x0008
	ISOTPChkPadLen    = 0x0010
	ISOTPChkPadData   = 0x0020
	ISOTPHalfDuplex   = 0x0040
	ISOTPForceTxSTmin = 0x0080
	ISOTPForceRxSTmin = 0x0100
	ISOTPRxExtAddr    = 0x0200
	ISOTPWaitTxDone   = 0x0400
)

// NewISOTP opens a CAN_ISOTP socket. Bind it with the rx/tx address pair.
func NewISOTP() (*Socket, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, unix.CAN_ISOTP)
	if err != nil {
		return nil, wrapErr("socket(AF_CAN, CAN_ISOTP)", err)
	}
	return &Socket{fd: fd}, nil
}

// ISOTPOptions mirrors struct can_isotp_options.
type ISOTPOptions struct {
	Flags        uint32
	FrameTxTime  uint32 // nanoseconds
	ExtAddress   uint8
	TxPadding    uint8
	RxPadding    uint8
	RxExtAddress uint8
}

// ISOTPFlowControl mirrors struct can_isotp_fc_options.
type ISOTPFlowControl struct {
	BlockSize uint8
	STmin     uint8
	WFTmax    uint8
}

// ISOTPLinkLayer mirrors struct can_isotp_ll_options.
type ISOTPLinkLayer struct {
	MTU     uint8 // 16 classic, 72 FD
	TxDL    uint8
	TxFlags uint8
}

func (o ISOTPOptions) marshal() []byte {
	b := make([]byte, isotpOptsSize)
	binary.NativeEndian.PutUint32(b[0:4], o.Flags)
	binary.NativeEndian.PutUint32(b[4:8], o.FrameTxTime)
	b[8], b[9], b[10], b[11] = o.ExtAddress, o.TxPadding, o.RxPadding, o.RxExtAddress
	return b
}

func (o *ISOTPOptions) unmarshal(b []byte) {
	o.Flags = binary.NativeEndian.Uint32(b[0:4])
	o.FrameTxTime = binary.NativeEndian.Uint32(b[4:8])
	o.ExtAddress, o.TxPadding, o.RxPadding, o.RxExtAddress = b[8], b[9], b[10], b[11]
}

func (s *Socket) getFixed(op string, name, size int) ([]byte, error) {
	b := make([]byte, size)
	n, err := getsockoptBytes(s.fd, solCANISOTP, name, b)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	if n != size {
		return nil, &Error{Op: op, Errno: unix.EPROTO}
	}
	return b, nil
}

func (s *Socket) SetISOTPOptions(o ISOTPOptions) error {
	return wrapErr("setsockopt(CAN_ISOTP_OPTS)", setsockoptBytes(s.fd, solCANISOTP, isotpOpts, o.marshal()))
}

func (s *Socket) ISOTPOptions() (ISOTPOptions, error) {
	var o ISOTPOptions
	b, err := s.getFixed("getsockopt(CAN_ISOTP_OPTS)", isotpOpts, isotpOptsSize)
	if err != nil {
		return o, err
	}
	o.unmarshal(b)
	return o, nil
}

func (s *Socket) SetISOTPFlowControl(fc ISOTPFlowControl) error {
	b := []byte{fc.BlockSize, fc.STmin, fc.WFTmax}
	return wrapErr("setsockopt(CAN_ISOTP_RECV_FC)", setsockoptBytes(s.fd, solCANISOTP, isotpRecvFC, b))
}

func (s *Socket) ISOTPFlowControl() (ISOTPFlowControl, error) {
	b, err := s.getFixed("getsockopt(CAN_ISOTP_RECV_FC)", isotpRecvFC, isotpFCSize)
	if err != nil {
		return ISOTPFlowControl{}, err
	}
	return ISOTPFlowControl{BlockSize: b[0], STmin: b[1], WFTmax: b[2]}, nil
}

// SetISOTPLinkLayer sets the link layer options. The kernel only accepts
// these before the socket is bound.
func (s *Socket) SetISOTPLinkLayer(ll ISOTPLinkLayer) error {
	b := []byte{ll.MTU, ll.TxDL, ll.TxFlags}
	return wrapErr("setsockopt(CAN_ISOTP_LL_OPTS)", setsockoptBytes(s.fd, solCANISOTP, isotpLLOpts, b))
}

func (s *Socket) ISOTPLinkLayer() (ISOTPLinkLayer, error) {
	b, err := s.getFixed("getsockopt(CAN_ISOTP_LL_OPTS)", isotpLLOpts, isotpLLSize)
	if err != nil {
		return ISOTPLinkLayer{}, err
	}
	return ISOTPLinkLayer{MTU: b[0], TxDL: b[1], TxFlags: b[2]}, nil
}

// SetISOTPTxSTmin forces the minimum gap between transmitted consecutive
// frames, in nanoseconds.
func (s *Socket) SetISOTPTxSTmin(nanos uint32) error {
	return wrapErr("setsockopt(CAN_ISOTP_TX_STMIN)", unix.SetsockoptInt(s.fd, solCANISOTP, isotpTxSTmin, int(int32(nanos))))
}

func (s *Socket) ISOTPTxSTmin() (uint32, error) {
	v, err := unix.GetsockoptInt(s.fd, solCANISOTP, isotpTxSTmin)
	if err != nil {
		return 0, wrapErr("getsockopt(CAN_ISOTP_TX_STMIN)", err)
	}
	return uint32(v), nil
}

// SetISOTPRxSTmin ignores received consecutive frames arriving faster than
// nanos.
func (s *Socket) SetISOTPRxSTmin(nanos uint32) error {
	return wrapErr("setsockopt(CAN_ISOTP_RX_STMIN)", unix.SetsockoptInt(s.fd, solCANISOTP, isotpRxSTmin, int(int32(nanos))))
}

func (s *Socket) ISOTPRxSTmin() (uint32, error) {
	v, err := unix.GetsockoptInt(s.fd, solCANISOTP, isotpRxSTmin)
	if err != nil {
		return 0, wrapErr("getsockopt(CAN_ISOTP_RX_STMIN)", err)
	}
	return uint32(v), nil
}
