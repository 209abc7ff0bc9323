package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/gmsl-hub/gmsl-go/pkg/bus"
	"github.com/gmsl-hub/gmsl-go/pkg/bus/mocks"
	"github.com/gmsl-hub/gmsl-go/pkg/delay"
)

func TestApplyInOrderWithSettle(t *testing.T) {
	p := &Profile{
		Name: "test",
		Steps: []Step{
			{Reg: 0x3000, Value: 0x12, Width: Width8, Settle: delay.Fixed(time.Millisecond)},
			{Reg: 0xc808, Value: 0x0477, Width: Width16},
			{Reg: 0xfc00, Value: 0x2800, Width: Width16, Settle: delay.Between(2*time.Millisecond, 3*time.Millisecond)},
		},
	}
	require.NoError(t, p.Validate())

	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x60, W: []byte{0x30, 0x00, 0x12}},
			{Addr: 0x60, W: []byte{0xc8, 0x08, 0x04, 0x77}},
			{Addr: 0x60, W: []byte{0xfc, 0x00, 0x28, 0x00}},
		},
	}
	var rec delay.Recorder
	require.NoError(t, p.Apply(bus.New(pb).Device("device", 0x60), &rec))
	require.NoError(t, pb.Close())

	assert.Equal(t, []delay.Range{
		delay.Fixed(time.Millisecond),
		delay.Between(2*time.Millisecond, 3*time.Millisecond),
	}, rec.Ranges())
}

func TestApplyStopsAtFailure(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.Lookup(ISP720p)
	require.NoError(t, err)

	nack := errors.New("nack")
	conn := mocks.NewMockBus(t)
	conn.EXPECT().Tx(uint16(0x60), mock.Anything, []byte(nil)).Return(nil).Times(2)
	conn.EXPECT().Tx(uint16(0x60), []byte{0xc8, 0x08, 0x04, 0x77}, []byte(nil)).Return(nack).Once()

	var rec delay.Recorder
	err = p.Apply(bus.New(conn).Device("device", 0x60), &rec)

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Index)
	assert.Equal(t, uint16(0xc808), se.Reg)
	assert.ErrorIs(t, err, nack)
	var be *bus.BusError
	assert.ErrorAs(t, err, &be)
	assert.Equal(t, 2, rec.Count())
}

func TestBuiltinISPTable(t *testing.T) {
	p, err := NewRegistry().Lookup(ISP720p)
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	require.Len(t, p.Steps, 14)
	assert.Equal(t, Step{Reg: 0xc804, Value: 0x0040, Width: Width16, Settle: delay.Fixed(100 * time.Millisecond)}, p.Steps[0])
	assert.Equal(t, uint16(0x0040), p.Steps[13].Reg)
	assert.Equal(t, uint16(0x8100), p.Steps[13].Value)
	assert.Equal(t, PolarityUnknown, p.VSync)
}

func TestParse(t *testing.T) {
	data := []byte(`
name: sensor-a
vsync: active-low
lsb_first: true
steps:
  - {reg: 0x3012, value: 0x05, settle: 1ms}
  - {reg: 0x301a, value: 0x10dc, width: 16, settle: 5ms, settle_max: 8ms}
  - {reg: 0x3000, value: 0x01}
`)
	p, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "sensor-a", p.Name)
	assert.Equal(t, PolarityActiveLow, p.VSync)
	assert.True(t, p.LSBFirst)
	assert.Equal(t, []Step{
		{Reg: 0x3012, Value: 0x05, Width: Width8, Settle: delay.Fixed(time.Millisecond)},
		{Reg: 0x301a, Value: 0x10dc, Width: Width16, Settle: delay.Between(5*time.Millisecond, 8*time.Millisecond)},
		{Reg: 0x3000, Value: 0x01, Width: Width8},
	}, p.Steps)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"missing name":    `steps: []`,
		"bad polarity":    "name: x\nvsync: sideways",
		"8-bit overflow":  "name: x\nsteps:\n  - {reg: 0x10, value: 0x100}",
		"bad width":       "name: x\nsteps:\n  - {reg: 0x10, value: 1, width: 12}",
		"bad settle":      "name: x\nsteps:\n  - {reg: 0x10, value: 1, settle: soon}",
		"inverted settle": "name: x\nsteps:\n  - {reg: 0x10, value: 1, settle: 5ms, settle_max: 1ms}",
		"not yaml":        "name: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestLoadFileAndRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: sensor-b\nvsync: active-high\n"), 0o644))

	p, err := LoadFile(path)
	require.NoError(t, err)

	reg := NewRegistry()
	require.NoError(t, reg.Add(p))
	assert.Equal(t, []string{ISP720p, "sensor-b"}, reg.Names())

	got, err := reg.Lookup("sensor-b")
	require.NoError(t, err)
	assert.Equal(t, PolarityActiveHigh, got.VSync)

	_, err = reg.Lookup("nope")
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPolarityStrings(t *testing.T) {
	for _, p := range []Polarity{PolarityUnknown, PolarityActiveHigh, PolarityActiveLow} {
		got, err := ParsePolarity(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}
