package transport

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kstaniek/go-cansock/internal/can"
)

var (
	errOverflow = errors.New("overflow")
	errSendFail = errors.New("send fail")
)

// TestAsyncTxSuccess verifies frames are sent and hooks fire.
func TestAsyncTxSuccess(t *testing.T) {
	var sent atomic.Int64
	var after atomic.Int64
	ax := NewAsyncTx(context.Background(), 4, func(fr can.Frame) error {
		sent.Add(1)
		return nil
	}, Hooks{OnAfter: func() { after.Add(1) }})
	defer ax.Close()
	for i := 0; i < 3; i++ {
		if err := ax.Send(can.Frame{CANID: uint32(i)}); err != nil {
			t.Fatalf("unexpected send error: %v", err)
		}
	}
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) && after.Load() < 3 {
		time.Sleep(5 * time.Millisecond)
	}
	if sent.Load() != 3 || after.Load() != 3 {
		t.Fatalf("expected 3 sent & after, got sent=%d after=%d", sent.Load(), after.Load())
	}
}

// TestAsyncTxOverflow ensures OnDrop is invoked when buffer full.
func TestAsyncTxOverflow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var drops atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})
	ax := NewAsyncTx(ctx, 1, func(fr can.Frame) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}, Hooks{OnDrop: func() error { drops.Add(1); return errOverflow }})
	defer func() { close(release); ax.Close() }()
	// First frame is picked up by the worker, which then blocks.
	if err := ax.Send(can.Frame{}); err != nil {
		t.Fatalf("unexpected error enqueue first: %v", err)
	}
	<-started
	// Second fills the buffer, third overflows.
	if err := ax.Send(can.Frame{}); err != nil {
		t.Fatalf("unexpected error enqueue second: %v", err)
	}
	if err := ax.Send(can.Frame{}); !errors.Is(err, errOverflow) {
		t.Fatalf("expected overflow error, got %v", err)
	}
	if drops.Load() != 1 {
		t.Fatalf("expected 1 drop, got %d", drops.Load())
	}
}

// TestAsyncTxSendError triggers OnError hook.
func TestAsyncTxSendError(t *testing.T) {
	var errs atomic.Int64
	ax := NewAsyncTx(context.Background(), 2, func(fr can.Frame) error { return errSendFail }, Hooks{OnError: func(error) { errs.Add(1) }})
	_ = ax.Send(can.Frame{})
	ax.Close()
	if errs.Load() != 1 {
		t.Fatalf("expected error hook invocation, got %d", errs.Load())
	}
}

// TestAsyncTxCloseDrains delivers everything queued before Close returns.
func TestAsyncTxCloseDrains(t *testing.T) {
	var sent atomic.Int64
	ax := NewAsyncTx(context.Background(), 64, func(fr can.Frame) error {
		time.Sleep(time.Millisecond)
		sent.Add(1)
		return nil
	}, Hooks{})
	for i := 0; i < 20; i++ {
		if err := ax.Send(can.Frame{CANID: uint32(i)}); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	ax.Close()
	if sent.Load() != 20 {
		t.Fatalf("expected 20 frames delivered before Close returned, got %d", sent.Load())
	}
	if ax.Pending() != 0 {
		t.Fatalf("expected empty queue, got %d", ax.Pending())
	}
}

// TestAsyncTxCancelAbandons stops without draining once the context is cancelled.
func TestAsyncTxCancelAbandons(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var sent atomic.Int64
	block := make(chan struct{})
	ax := NewAsyncTx(ctx, 8, func(fr can.Frame) error {
		<-block
		sent.Add(1)
		return nil
	}, Hooks{})
	for i := 0; i < 5; i++ {
		_ = ax.Send(can.Frame{})
	}
	cancel()
	close(block)
	ax.Close()
	if sent.Load() >= 5 {
		t.Fatalf("expected cancelled writer to abandon queue, sent=%d", sent.Load())
	}
}

func TestAsyncTxSendAfterClose(t *testing.T) {
	tx := NewAsyncTx(context.Background(), 2, func(fr can.Frame) error { return nil }, Hooks{})
	tx.Close()
	if err := tx.Send(can.Frame{CANID: 123}); !errors.Is(err, ErrAsyncTxClosed) {
		t.Fatalf("expected ErrAsyncTxClosed, got %v", err)
	}
}

func TestAsyncTxCloseConcurrentSend(t *testing.T) {
	for i := 0; i < 100; i++ {
		ax := NewAsyncTx(context.Background(), 1, func(fr can.Frame) error { return nil }, Hooks{})
		done := make(chan error, 1)
		go func() {
			done <- ax.Send(can.Frame{})
		}()
		time.Sleep(time.Millisecond)
		ax.Close()
		if err := <-done; err != nil && !errors.Is(err, ErrAsyncTxClosed) {
			t.Fatalf("iteration %d: unexpected send error %v", i, err)
		}
	}
}
