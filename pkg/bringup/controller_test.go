package bringup

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/gmsl-hub/gmsl-go/pkg/bus"
	"github.com/gmsl-hub/gmsl-go/pkg/channel"
	"github.com/gmsl-hub/gmsl-go/pkg/config"
	"github.com/gmsl-hub/gmsl-go/pkg/delay"
	"github.com/gmsl-hub/gmsl-go/pkg/hub"
	"github.com/gmsl-hub/gmsl-go/pkg/log"
	"github.com/gmsl-hub/gmsl-go/pkg/poll"
	"github.com/gmsl-hub/gmsl-go/pkg/profile"
	"github.com/gmsl-hub/gmsl-go/pkg/sequencer"
	"github.com/gmsl-hub/gmsl-go/pkg/serializer"
	"github.com/gmsl-hub/gmsl-go/pkg/sim"
)

func fourChannelConfig() config.Config {
	cfg := config.Default()
	cfg.SerializerAddrs = []uint8{0x41, 0x42, 0x43, 0x44}
	cfg.DeviceAddrs = []uint8{0x60, 0x61, 0x62, 0x63}
	return cfg
}

func newController(t *testing.T, board *sim.Board, cfg config.Config, opts ...Option) (*Controller, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts = append([]Option{WithSleeper(&delay.Recorder{}), WithLogger(logger)}, opts...)
	c, err := New(board, cfg, opts...)
	require.NoError(t, err)
	return c, &logs
}

func TestBringupAndStream(t *testing.T) {
	board := sim.NewBoard()
	c, _ := newController(t, board, fourChannelConfig())

	require.NoError(t, c.Bringup(context.Background()))
	st := c.Status()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Equal(t, uint8(0x0f), st.EnableMask)
	for i, ch := range st.Channels {
		assert.Equal(t, channel.StateLinkEnabled, ch.State)
		assert.Equal(t, ch.SerializerAddr, board.SerializerAddr(i))
		assert.Equal(t, ch.DeviceAddr, board.DeviceAddr(i))
	}

	require.NoError(t, c.EnableStream(context.Background()))
	assert.Equal(t, PhaseStreaming, c.Status().Phase)
	assert.True(t, c.Status().Streaming)
	assert.Equal(t, hub.CSIOutEn, board.HubReg(hub.RegOutput)&hub.CSIOutEn)

	require.NoError(t, c.DisableStream())
	assert.Zero(t, board.HubReg(hub.RegOutput)&hub.CSIOutEn)
	assert.Zero(t, board.HubReg(hub.RegLock)&hub.Locked, "serializers stopped")

	require.NoError(t, c.EnableStream(context.Background()))
	assert.True(t, c.Status().Streaming)
	assert.Zero(t, board.Collisions())
}

func TestStreamRequiresBringup(t *testing.T) {
	c, _ := newController(t, sim.NewBoard(), config.Default())
	assert.ErrorIs(t, c.EnableStream(context.Background()), ErrNotBroughtUp)
	assert.ErrorIs(t, c.DisableStream(), ErrNotBroughtUp)
}

func TestBringupFailureReportsChannelAndStep(t *testing.T) {
	board := sim.NewBoard()
	board.FailSerializerWrite(2, 0x00, errors.New("nack"))
	c, logs := newController(t, board, fourChannelConfig())

	err := c.Bringup(context.Background())
	var se *sequencer.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, uint8(2), se.Channel)
	assert.Equal(t, channel.StepReassign, se.Step)
	assert.Contains(t, logs.String(), "bring-up failed")

	st := c.Status()
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, uint8(0b0011), st.EnableMask)
	assert.Equal(t, channel.StateFailed, st.Channels[2].State)
	assert.Equal(t, channel.StepReassign, st.Channels[2].FailedStep)

	assert.ErrorIs(t, c.EnableStream(context.Background()), ErrBringupFailed)
	assert.Error(t, c.Bringup(context.Background()), "no automatic retry")
}

func TestHubConfigureFailure(t *testing.T) {
	board := sim.NewBoard()
	board.FailHubWrite(hub.RegCSI, errors.New("boom"))
	c, _ := newController(t, board, config.Default())

	err := c.Bringup(context.Background())
	var be *bus.BusError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, uint16(hub.RegCSI), be.Reg)
	assert.Equal(t, PhaseFailed, c.Status().Phase)
}

func TestPolarityDefaultsToActiveHigh(t *testing.T) {
	board := sim.NewBoard()
	cfg := config.Default()
	cfg.InvertVSync = true
	cfg.Profiles = []string{profile.ISP720p}
	c, logs := newController(t, board, cfg)

	require.NoError(t, c.Bringup(context.Background()))
	assert.Zero(t, board.HubReg(hub.RegSync)&hub.InvVS)
	assert.False(t, c.Status().InvertVS)
	assert.Contains(t, logs.String(), "assuming active-high")
}

func TestPolarityFromChannelZero(t *testing.T) {
	reg := profile.NewRegistry()
	require.NoError(t, reg.Add(&profile.Profile{Name: "low", VSync: profile.PolarityActiveLow}))
	require.NoError(t, reg.Add(&profile.Profile{Name: "high", VSync: profile.PolarityActiveHigh}))

	board := sim.NewBoard()
	cfg := fourChannelConfig()
	cfg.Profiles = []string{"low", "high"}
	c, logs := newController(t, board, cfg, WithProfiles(reg))

	require.NoError(t, c.Bringup(context.Background()))
	assert.Equal(t, hub.InvVS, board.HubReg(hub.RegSync)&hub.InvVS)
	assert.True(t, c.Status().InvertVS)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "vsync polarity disagrees")
}

func TestEnableStreamAfterLockLoss(t *testing.T) {
	board := sim.NewBoard()
	c, _ := newController(t, board, config.Default())
	require.NoError(t, c.Bringup(context.Background()))
	require.NoError(t, c.EnableStream(context.Background()))

	board.SetLockLoss(true)
	err := c.EnableStream(context.Background())

	var te *poll.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "link-lock", te.Name)
	assert.Zero(t, board.HubReg(hub.RegOutput)&hub.CSIOutEn)
	assert.Equal(t, PhaseReady, c.Status().Phase)
	assert.False(t, c.Status().Streaming)
}

func TestEnableStreamSerializerFailureStopsStartedChannels(t *testing.T) {
	board := sim.NewBoard()
	c, logs := newController(t, board, fourChannelConfig())
	require.NoError(t, c.Bringup(context.Background()))

	boom := errors.New("boom")
	board.FailSerializerWrite(2, serializer.RegMainControl, boom)
	err := c.EnableStream(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "channel 2: start serializer")
	assert.Equal(t, PhaseReady, c.Status().Phase)
	assert.False(t, c.Status().Streaming)
	assert.Zero(t, board.HubReg(hub.RegOutput)&hub.CSIOutEn)
	for i := 0; i < 2; i++ {
		assert.Equal(t, serializer.StreamOff, board.SerializerReg(i, serializer.RegMainControl), "channel %d", i)
	}
	for i := 2; i < 4; i++ {
		assert.NotEqual(t, serializer.StreamOn, board.SerializerReg(i, serializer.RegMainControl), "channel %d", i)
	}
	assert.Contains(t, logs.String(), "stream enable failed")

	board.ClearFaults()
	require.NoError(t, c.EnableStream(context.Background()))
	assert.True(t, c.Status().Streaming)
}

func TestEnableStreamFrameSyncTimeout(t *testing.T) {
	board := sim.NewBoard()
	c, _ := newController(t, board, config.Default())
	require.NoError(t, c.Bringup(context.Background()))

	board.SetFrameSyncLoss(true)
	err := c.EnableStream(context.Background())

	var te *poll.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "frame-sync", te.Name)
	assert.Equal(t, 36, te.Attempts)
	assert.Zero(t, board.HubReg(hub.RegOutput)&hub.CSIOutEn)

	board.ClearFaults()
	require.NoError(t, c.EnableStream(context.Background()))
}

func TestNewRejects(t *testing.T) {
	cfg := config.Default()
	cfg.Lanes = 0
	_, err := New(sim.NewBoard(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg = config.Default()
	cfg.Profiles = []string{"nope"}
	_, err = New(sim.NewBoard(), cfg)
	assert.ErrorIs(t, err, profile.ErrInvalidProfile)
}

func TestNewLoadsProfileFilesAndSetsSpeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cam.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: cam\nsteps:\n  - {reg: 0x3000, value: 0x01}\n"), 0o644))

	board := sim.NewBoard()
	cfg := config.Default()
	cfg.ProfileFiles = []string{path}
	cfg.Profiles = []string{"cam"}
	cfg.BusSpeedKHz = 400
	c, _ := newController(t, board, cfg)

	assert.Equal(t, 400*physic.KiloHertz, board.Speed())
	require.NoError(t, c.Bringup(context.Background()))
	assert.Len(t, board.DeviceWrites(0), 1)
}

func TestTraceTaggedWithSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.glog")
	fl, err := log.NewFileLogger(path)
	require.NoError(t, err)

	c, _ := newController(t, sim.NewBoard(), config.Default(), WithTraceLogger(fl), WithSessionID("bench-1"))
	require.NoError(t, c.Bringup(context.Background()))
	require.NoError(t, fl.Close())
	assert.Equal(t, "bench-1", c.SessionID())

	r, err := log.NewFilteredReader(path, log.Filter{SessionID: "bench-1"})
	require.NoError(t, err)
	defer r.Close()

	n := 0
	for {
		if _, err := r.Next(); err != nil {
			break
		}
		n++
	}
	assert.Equal(t, fl.Written(), n)
	assert.Greater(t, n, 10)
}

func TestGeneratedSessionID(t *testing.T) {
	a, _ := newController(t, sim.NewBoard(), config.Default())
	b, _ := newController(t, sim.NewBoard(), config.Default())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
	assert.Len(t, strings.Split(a.SessionID(), "-"), 5)
}

func TestPhaseStrings(t *testing.T) {
	assert.Equal(t, "STREAMING", PhaseStreaming.String())
	assert.Equal(t, "UNKNOWN", Phase(9).String())
}
