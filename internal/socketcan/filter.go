//go:build linux

package socketcan

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/kstaniek/go-cansock/internal/can"
)

// filterScratchSize fits the largest list the kernel accepts
// (CAN_RAW_FILTER_MAX entries). The kernel does not report the installed
// count up front, so retrieval always offers this much room.
const filterScratchSize = unix.CAN_RAW_FILTER_MAX * can.FilterSize

var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, filterScratchSize)
		return &b
	},
}

// acquireScratch hands out a retrieval buffer and its release func.
// Tests replace it to simulate allocation failure.
var acquireScratch = func(n int) ([]byte, func(), error) {
	p, ok := scratchPool.Get().(*[]byte)
	if !ok || p == nil || cap(*p) < n {
		return nil, nil, ErrScratchAlloc
	}
	return (*p)[:n], func() { scratchPool.Put(p) }, nil
}

// SetFilters installs raw as the receive filter list, replacing any
// previous list. raw must hold whole can.FilterSize records; an empty raw
// installs an empty list (the socket then receives no data frames).
func (s *Socket) SetFilters(raw []byte) error {
	const op = "setsockopt(CAN_RAW_FILTER)"
	if len(raw)%can.FilterSize != 0 {
		return &Error{Op: op, Errno: unix.EINVAL}
	}
	return wrapErr(op, setsockoptBytes(s.fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, raw))
}

// Filters returns a copy of the installed filter list in the same layout
// SetFilters accepts.
func (s *Socket) Filters() ([]byte, error) {
	const op = "getsockopt(CAN_RAW_FILTER)"
	buf, release, err := acquireScratch(filterScratchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScratchAlloc, &Error{Op: op, Errno: unix.ENOMEM})
	}
	defer release()
	n, err := getsockoptBytes(s.fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, buf)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	return out, nil
}

// SetFilterList encodes fs and installs it.
func (s *Socket) SetFilterList(fs []can.Filter) error {
	return s.SetFilters(can.EncodeFilters(fs))
}

// FilterList returns the installed filters decoded.
func (s *Socket) FilterList() ([]can.Filter, error) {
	raw, err := s.Filters()
	if err != nil {
		return nil, err
	}
	return can.DecodeFilters(raw)
}
