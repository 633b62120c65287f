//go:build linux

package main

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/kstaniek/go-cansock/internal/can"
)

// fakeDev is a scripted socketcan.Dev.
type fakeDev struct {
	mu       sync.Mutex
	rx       []can.Frame
	readErr  error
	writeErr error
	onIdle   func()
	written  []can.Frame
	closed   bool
}

func (f *fakeDev) WaitReadable(time.Duration) (bool, error) {
	f.mu.Lock()
	ready := f.readErr != nil || len(f.rx) > 0
	idle := f.onIdle
	f.mu.Unlock()
	if !ready && idle != nil {
		idle()
	}
	return ready, nil
}

func (f *fakeDev) ReadFrame(fr *can.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return f.readErr
	}
	*fr = f.rx[0]
	f.rx = f.rx[1:]
	return nil
}

func (f *fakeDev) WriteFrame(fr can.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, fr)
	return nil
}

func (f *fakeDev) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeDev) sent() []can.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]can.Frame(nil), f.written...)
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
