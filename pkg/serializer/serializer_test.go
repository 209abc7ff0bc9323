package serializer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/gmsl-hub/gmsl-go/pkg/bus"
	"github.com/gmsl-hub/gmsl-go/pkg/bus/mocks"
	"github.com/gmsl-hub/gmsl-go/pkg/delay"
)

func TestModeValues(t *testing.T) {
	assert.Equal(t, uint8(0x47), ConfigMode)
	assert.Equal(t, uint8(0x87), ActiveMode)
	assert.Equal(t, uint8(0x84), DBL|HVEn)
	assert.Equal(t, uint8(0xc3), StreamOn)
	assert.Equal(t, uint8(0x43), StreamOff)
}

func TestBringupSteps(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x40, W: []byte{0x04, 0x47}},
			{Addr: 0x40, W: []byte{0x07, 0x84}},
			{Addr: 0x40, W: []byte{0x0e, 0x02}},
			{Addr: 0x40, W: []byte{0x00, 0x82}},
			{Addr: 0x41, W: []byte{0x09, 0xc0}},
			{Addr: 0x41, W: []byte{0x0a, 0xba}},
			{Addr: 0x41, W: []byte{0x04, 0x87}},
		},
	}
	var rec delay.Recorder
	s := New(bus.New(pb).Device("serializer", 0x40), &rec)

	require.NoError(t, s.Configure())
	require.NoError(t, s.Reset())
	require.NoError(t, s.SetAddress(0x41))
	assert.Equal(t, uint8(0x41), s.Device().Addr())
	require.NoError(t, s.Translate(0x60, 0x5d))
	require.NoError(t, s.Activate())
	require.NoError(t, pb.Close())

	assert.Equal(t, []delay.Range{
		delay.Fixed(8 * time.Millisecond),
		delay.Fixed(8 * time.Millisecond),
		delay.Fixed(20 * time.Millisecond),
		delay.Between(3500*time.Microsecond, 5*time.Millisecond),
		delay.Fixed(5 * time.Millisecond),
	}, rec.Ranges())
}

func TestSetAddressFailureKeepsBinding(t *testing.T) {
	conn := mocks.NewMockBus(t)
	conn.EXPECT().Tx(uint16(0x40), []byte{0x00, 0x82}, []byte(nil)).Return(errors.New("nack")).Once()

	var rec delay.Recorder
	s := New(bus.New(conn).Device("serializer", 0x40), &rec)

	var be *bus.BusError
	require.ErrorAs(t, s.SetAddress(0x41), &be)
	assert.Equal(t, uint8(0x40), s.Device().Addr())
	assert.Zero(t, rec.Count())
}

func TestSwapCrossbar(t *testing.T) {
	var ops []i2ctest.IO
	for i := uint8(0); i < 8; i++ {
		ops = append(ops,
			i2ctest.IO{Addr: 0x41, W: []byte{0x20 + i, 7 - i}},
			i2ctest.IO{Addr: 0x41, W: []byte{0x30 + i, 23 - i}},
		)
	}
	pb := &i2ctest.Playback{Ops: ops}

	s := New(bus.New(pb).Device("serializer", 0x41), &delay.Recorder{})
	require.NoError(t, s.SwapCrossbar())
	require.NoError(t, pb.Close())
}

func TestSetStream(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x41, W: []byte{0x04, 0xc3}},
			{Addr: 0x41, W: []byte{0x04, 0x43}},
		},
	}
	s := New(bus.New(pb).Device("serializer", 0x41), &delay.Recorder{})
	require.NoError(t, s.SetStream(true))
	require.NoError(t, s.SetStream(false))
	require.NoError(t, pb.Close())
}
