//go:build linux

package socketcan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/kstaniek/go-cansock/internal/can"
	"github.com/kstaniek/go-cansock/internal/metrics"
)

type blockingDev struct {
	mu      sync.Mutex
	gate    chan struct{}
	written []can.Frame
	fail    error
}

func (d *blockingDev) ReadFrame(*can.Frame) error               { return errors.New("not readable") }
func (d *blockingDev) WaitReadable(time.Duration) (bool, error) { return false, nil }
func (d *blockingDev) Close() error                             { return nil }

func (d *blockingDev) WriteFrame(fr can.Frame) error {
	if d.gate != nil {
		<-d.gate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return d.fail
	}
	d.written = append(d.written, fr)
	return nil
}

func TestTXWriterDrainsOnClose(t *testing.T) {
	dev := &blockingDev{}
	before := metrics.Snap()
	w := NewTXWriter(context.Background(), dev, 16)
	for i := 0; i < 10; i++ {
		require.NoError(t, w.SendFrame(can.Frame{CANID: uint32(i)}))
	}
	w.Close()
	require.Len(t, dev.written, 10)
	for i, fr := range dev.written {
		assert.Equal(t, uint32(i), fr.CANID)
	}
	assert.Equal(t, before.Tx+10, metrics.Snap().Tx)
}

func TestTXWriterOverflow(t *testing.T) {
	dev := &blockingDev{gate: make(chan struct{})}
	w := NewTXWriter(context.Background(), dev, 1)
	defer func() { close(dev.gate); w.Close() }()

	// The worker takes the first frame and blocks on the gate; the second
	// fills the queue.
	require.NoError(t, w.SendFrame(can.Frame{CANID: 1}))
	require.Eventually(t, func() bool { return w.Pending() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, w.SendFrame(can.Frame{CANID: 2}))
	err := w.SendFrame(can.Frame{CANID: 3})
	assert.True(t, errors.Is(err, ErrTxOverflow), "got %v", err)
}

func TestTXWriterCountsWriteErrors(t *testing.T) {
	dev := &blockingDev{fail: errors.New("bus off")}
	before := metrics.Snap()
	w := NewTXWriter(context.Background(), dev, 4)
	require.NoError(t, w.SendFrame(can.Frame{}))
	w.Close()
	assert.Equal(t, before.Errors+1, metrics.Snap().Errors)
	assert.Equal(t, before.Tx, metrics.Snap().Tx)
	n, err := w.Failures()
	assert.Equal(t, 1, n)
	assert.EqualError(t, err, "bus off")
}

func TestTXWriterKeepsFirstWriteError(t *testing.T) {
	dev := &blockingDev{fail: &Error{Op: "write", Errno: unix.ENETDOWN}}
	w := NewTXWriter(context.Background(), dev, 4)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.SendFrame(can.Frame{CANID: uint32(i)}))
	}
	w.Close()
	n, err := w.Failures()
	assert.Equal(t, 3, n)
	assert.ErrorIs(t, err, unix.ENETDOWN)
}
