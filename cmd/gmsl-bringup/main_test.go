package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gmsllog "github.com/gmsl-hub/gmsl-go/pkg/log"
	"github.com/gmsl-hub/gmsl-go/pkg/poll"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunSimulatedBringup(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), Options{Simulate: true, Stream: true}, quietLogger(), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "phase:    READY")
	assert.Contains(t, out.String(), "links:    0b0001")
	assert.Contains(t, out.String(), "[0] serializer 0x41 device 0x60 LINK_ENABLED")
	assert.Contains(t, out.String(), "stream: on")
}

func TestRunWithoutStream(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), Options{Simulate: true}, quietLogger(), &out)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "stream:")
}

func TestRunConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
serializer_addrs: [0x41, 0x42]
device_addrs: [0x60, 0x61]
`), 0644))

	var out bytes.Buffer
	err := run(context.Background(), Options{ConfigFile: path, Simulate: true, Stream: true}, quietLogger(), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "links:    0b0011")
	assert.Contains(t, out.String(), "[1] serializer 0x42 device 0x61 LINK_ENABLED")
}

func TestRunWritesTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bringup.glog")

	err := run(context.Background(), Options{Simulate: true, Stream: true, TraceFile: path}, quietLogger(), io.Discard)
	require.NoError(t, err)

	reader, err := gmsllog.NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	count := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Greater(t, count, 0)
}

func TestRunMissingCameraFails(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), Options{Simulate: true, SimCameras: "0x0", Stream: true}, quietLogger(), &out)
	require.Error(t, err)

	assert.Contains(t, out.String(), "phase:    FAILED")
	assert.Contains(t, out.String(), "[0] serializer 0x41 device 0x60 FAILED at")
	assert.NotContains(t, out.String(), "stream:")
}

func TestRunFrameSyncLoss(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), Options{Simulate: true, SimFault: "frame-sync-loss", Stream: true}, quietLogger(), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, poll.ErrTimeout)
	assert.NotContains(t, out.String(), "stream: on")
}

func TestRunHoldStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	var out bytes.Buffer
	go func() {
		done <- run(ctx, Options{Simulate: true, Stream: true, Hold: true}, quietLogger(), &out)
	}()

	cancel()
	err := <-done

	// Cancellation may land before bring-up completes; either way the
	// output is never left on.
	if err == nil {
		assert.Contains(t, out.String(), "stream: off")
	} else {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestRunRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown fault", Options{Simulate: true, SimFault: "smoke"}},
		{"bad camera mask", Options{Simulate: true, SimCameras: "0x1f"}},
		{"missing config", Options{Simulate: true, ConfigFile: "/nonexistent/board.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.opts, quietLogger(), io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(Options{Bus: "/dev/i2c-3", TraceFile: "x.glog"})
	require.NoError(t, err)
	assert.Equal(t, "/dev/i2c-3", cfg.Bus)
	assert.Equal(t, "x.glog", cfg.TraceFile)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseLevel("trace")
	assert.Error(t, err)
}

func TestParseMask(t *testing.T) {
	m, err := parseMask("0x5")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x5), m)

	m, err = parseMask("15")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xf), m)

	_, err = parseMask("0x10")
	assert.Error(t, err)
}

func TestOpenTraceDebugMirror(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	trace, closeTrace, err := openTrace(context.Background(), "", logger)
	require.NoError(t, err)
	defer closeTrace()
	require.NotNil(t, trace)

	trace.Log(gmsllog.Event{Layer: gmsllog.LayerBus, Device: "hub", Addr: 0x48})
	assert.Contains(t, buf.String(), "bus trace")

	trace, _, err = openTrace(context.Background(), "", quietLogger())
	require.NoError(t, err)
	assert.Nil(t, trace)
}
