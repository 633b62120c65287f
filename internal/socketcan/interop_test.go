//go:build linux

package socketcan

import (
	"testing"
	"time"

	brutella "github.com/brutella/can"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstaniek/go-cansock/internal/can"
)

type frameChan chan brutella.Frame

func (c frameChan) Handle(f brutella.Frame) {
	select {
	case c <- f:
	default:
	}
}

// peerBus attaches an independent SocketCAN client to vcan0.
func peerBus(t *testing.T) (*brutella.Bus, frameChan) {
	t.Helper()
	if _, err := ResolveInterfaceName(testIface); err != nil {
		t.Skipf("%s unavailable: %v", testIface, err)
	}
	bus, err := brutella.NewBusForInterfaceWithName(testIface)
	if err != nil {
		t.Skipf("peer bus on %s: %v", testIface, err)
	}
	rx := make(frameChan, 16)
	bus.Subscribe(rx)
	go func() { _ = bus.ConnectAndPublish() }()
	t.Cleanup(func() { _ = bus.Disconnect() })
	return bus, rx
}

func TestInteropDeviceToPeer(t *testing.T) {
	_, rx := peerBus(t)
	dev, err := Open(Config{Interface: testIface})
	require.NoError(t, err)
	defer dev.Close()

	out := can.Frame{CANID: 0x1F334455 | can.CAN_EFF_FLAG, Len: 3, Data: [64]byte{0xCA, 0xFE, 0x01}}
	require.NoError(t, dev.WriteFrame(out))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case f := <-rx:
			if f.ID != out.CANID {
				continue
			}
			assert.Equal(t, out.Len, f.Length)
			assert.Equal(t, out.Data[:3], f.Data[:3])
			return
		case <-deadline:
			t.Fatalf("peer did not receive %s", out)
		}
	}
}

func TestInteropPeerToDevice(t *testing.T) {
	bus, _ := peerBus(t)
	dev, err := Open(Config{Interface: testIface, Filters: []can.Filter{can.StdFilter(0x321)}})
	require.NoError(t, err)
	defer dev.Close()

	require.NoError(t, bus.Publish(brutella.Frame{ID: 0x321, Length: 2, Data: [8]uint8{0xBE, 0xEF}}))

	ready, err := dev.WaitReadable(2 * time.Second)
	require.NoError(t, err)
	require.True(t, ready, "no frame from peer")
	var fr can.Frame
	require.NoError(t, dev.ReadFrame(&fr))
	assert.Equal(t, uint32(0x321), fr.CANID)
	assert.Equal(t, []byte{0xBE, 0xEF}, fr.Payload())
	assert.False(t, fr.FD)
}
