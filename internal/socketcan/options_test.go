//go:build linux

package socketcan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestOptionNames(t *testing.T) {
	assert.Equal(t, "CAN_RAW_LOOPBACK", OptLoopback.String())
	assert.Equal(t, "CAN_RAW_ERR_FILTER", OptErrorMask.String())
	assert.Equal(t, "Option(42)", Option(42).String())
	for _, o := range Flags {
		assert.True(t, o.IsFlag(), o.String())
	}
	assert.False(t, OptErrorMask.IsFlag())
	assert.False(t, Option(-1).IsFlag())
}

func TestOptionRejectsUnknown(t *testing.T) {
	a, _ := socketPair(t)
	err := a.SetOption(Option(42), 1)
	assert.True(t, errors.Is(err, unix.ENOPROTOOPT), "got %v", err)
	_, err = a.Option(Option(42))
	assert.True(t, errors.Is(err, unix.ENOPROTOOPT), "got %v", err)
}

func TestFlagRejectsErrorMask(t *testing.T) {
	a, _ := socketPair(t)
	assert.True(t, errors.Is(a.SetFlag(OptErrorMask, true), ErrNotFlag))
	_, err := a.Flag(OptErrorMask)
	assert.True(t, errors.Is(err, ErrNotFlag))
}
