//go:build linux

package socketcan

import (
	"context"
	"errors"
	"sync"

	"github.com/kstaniek/go-cansock/internal/can"
	"github.com/kstaniek/go-cansock/internal/logging"
	"github.com/kstaniek/go-cansock/internal/metrics"
	"github.com/kstaniek/go-cansock/internal/transport"
)

var ErrTxOverflow = errors.New("socketcan tx overflow")

// Dev is the minimal interface needed by the dump loop and TXWriter.
// Implemented by *Device in production and by fakes in tests.
type Dev interface {
	transport.FrameSource
	transport.Waiter
	WriteFrame(can.Frame) error
	Close() error
}

var _ Dev = (*Device)(nil)

// TXWriter funnels all raw socket writes through a single goroutine.
// Write failures are logged and counted; the first one is kept for Failures.
type TXWriter struct {
	base *transport.AsyncTx[can.Frame]

	mu       sync.Mutex
	firstErr error
	failed   int
}

var _ transport.FrameSink = (*TXWriter)(nil)

// NewTXWriter creates a TXWriter with a buffered queue of size buf.
func NewTXWriter(parent context.Context, dev Dev, buf int) *TXWriter {
	w := &TXWriter{}
	hooks := transport.Hooks{
		OnError: func(err error) {
			metrics.IncError(metrics.ErrSocketWrite)
			logging.L().Warn("socketcan_write_error", "error", err)
			w.recordErr(err)
		},
		OnAfter: func() { metrics.IncTx() },
		OnDrop: func() error {
			metrics.IncError(metrics.ErrTxOverflow)
			return ErrTxOverflow
		},
	}
	w.base = transport.NewAsyncTx(parent, buf, dev.WriteFrame, hooks)
	return w
}

func (w *TXWriter) recordErr(err error) {
	w.mu.Lock()
	if w.firstErr == nil {
		w.firstErr = err
	}
	w.failed++
	w.mu.Unlock()
}

// Failures returns how many writes failed so far and the first error.
// Call it after Close for the final result.
func (w *TXWriter) Failures() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failed, w.firstErr
}

// SendFrame queues a frame for asynchronous write (drops with ErrTxOverflow if the queue is full).
func (w *TXWriter) SendFrame(fr can.Frame) error { return w.base.Send(fr) }

// Pending reports frames still queued.
func (w *TXWriter) Pending() int { return w.base.Pending() }

// Close drains the queue and waits for the worker goroutine to finish.
func (w *TXWriter) Close() { w.base.Close() }

