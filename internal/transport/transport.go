package transport

import (
	"time"

	"github.com/kstaniek/go-cansock/internal/can"
)

// FrameSink is a generic CAN frame transmission target.
type FrameSink interface {
	SendFrame(can.Frame) error
}

// FrameSource yields received frames, one per call.
type FrameSource interface {
	ReadFrame(*can.Frame) error
}

// Waiter reports readiness of a FrameSource within a timeout.
type Waiter interface {
	WaitReadable(timeout time.Duration) (bool, error)
}
