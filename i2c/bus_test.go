package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestGenericBus_WriteThenRead(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x10, W: []byte{0x00}},
			{Addr: 0x10, R: []byte{0x7B, 0x00}},
		},
		DontPanic: true,
	}
	bus := NewBus(playback)
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddr(ctx, 0x10, []byte{0x00}))
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x10, buf))
	assert.Equal(t, []byte{0x7B, 0x00}, buf)
	require.NoError(t, bus.Close())
}

func TestGenericBus_UnexpectedTransaction(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x10, W: []byte{0x26, 0x0A, 0x00}}},
		DontPanic: true,
	}
	bus := NewBus(playback)
	err := bus.WriteToAddr(context.Background(), 0x11, []byte{0x26, 0x0A, 0x00})
	assert.Error(t, err)
}
