// Command gmsl-bringup brings up a multi-camera GMSL aggregation hub.
//
// It configures the hub, moves every camera channel off the shared default
// addresses one at a time, and optionally gates the aggregated CSI-2 output
// on frame synchronization.
//
// Usage:
//
//	gmsl-bringup [flags]
//
// Flags:
//
//	-config string      Configuration file path (YAML)
//	-bus string         Bus name, overrides the configuration
//	-simulate           Run against a simulated board instead of hardware
//	-sim-cameras string Simulated links with a camera attached (default: configured channels)
//	-sim-fault string   Simulated fault: lock-loss, frame-sync-loss, video-loss
//	-stream             Enable the aggregated output after bring-up (default true)
//	-hold               Keep streaming until interrupted, then disable the output
//	-trace-file string  File path for bus trace events (CBOR format)
//	-log-level string   Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Bring up the board described in board.yaml
//	gmsl-bringup -config /etc/gmsl/board.yaml
//
//	# Dry run on a simulated board with two cameras and a trace
//	gmsl-bringup -simulate -sim-cameras 0x3 -trace-file sim.glog -log-level debug
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/gmsl-hub/gmsl-go/pkg/bringup"
	"github.com/gmsl-hub/gmsl-go/pkg/channel"
	"github.com/gmsl-hub/gmsl-go/pkg/config"
	"github.com/gmsl-hub/gmsl-go/pkg/delay"
	gmsllog "github.com/gmsl-hub/gmsl-go/pkg/log"
)

// Options holds the command-line options.
type Options struct {
	ConfigFile string
	Bus        string
	Simulate   bool
	SimCameras string
	SimFault   string
	Stream     bool
	Hold       bool
	TraceFile  string
	LogLevel   string
}

var opts Options

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&opts.Bus, "bus", "", "Bus name, overrides the configuration")
	flag.BoolVar(&opts.Simulate, "simulate", false, "Run against a simulated board instead of hardware")
	flag.StringVar(&opts.SimCameras, "sim-cameras", "", "Simulated links with a camera attached, as a bit mask (default: configured channels)")
	flag.StringVar(&opts.SimFault, "sim-fault", "", "Simulated fault: lock-loss, frame-sync-loss, video-loss")
	flag.BoolVar(&opts.Stream, "stream", true, "Enable the aggregated output after bring-up")
	flag.BoolVar(&opts.Hold, "hold", false, "Keep streaming until interrupted, then disable the output")
	flag.StringVar(&opts.TraceFile, "trace-file", "", "File path for bus trace events (CBOR format)")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	level, err := parseLevel(opts.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger, os.Stdout); err != nil {
		logger.Error("bring-up failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run loads the configuration, opens the bus and drives one bring-up.
func run(ctx context.Context, o Options, logger *slog.Logger, out io.Writer) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	var (
		conn    i2c.Bus
		sleeper delay.Sleeper = delay.SystemSleeper{}
		board   *simulation
	)
	if o.Simulate {
		board, err = newSimulation(cfg, o.SimCameras, o.SimFault)
		if err != nil {
			return err
		}
		conn = board.Board
		sleeper = board.clock
		logger.Info("simulation mode", "cameras", fmt.Sprintf("0b%04b", board.cameras))
	} else {
		bc, err := openBus(cfg.Bus)
		if err != nil {
			return err
		}
		defer bc.Close()
		conn = bc
	}

	trace, closeTrace, err := openTrace(ctx, cfg.TraceFile, logger)
	if err != nil {
		return err
	}
	defer closeTrace()

	copts := []bringup.Option{
		bringup.WithLogger(logger),
		bringup.WithSleeper(sleeper),
	}
	// Only set the trace logger when non-nil to avoid a typed-nil interface.
	if trace != nil {
		copts = append(copts, bringup.WithTraceLogger(trace))
	}

	ctrl, err := bringup.New(conn, cfg, copts...)
	if err != nil {
		return err
	}

	bringupErr := ctrl.Bringup(ctx)
	printStatus(out, ctrl.Status())
	if board != nil {
		board.report(logger)
	}
	if bringupErr != nil {
		return bringupErr
	}

	if !o.Stream {
		return nil
	}
	if err := ctrl.EnableStream(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "stream: on")

	if !o.Hold {
		return nil
	}
	logger.Info("streaming, interrupt to stop")
	<-ctx.Done()
	if err := ctrl.DisableStream(); err != nil {
		return err
	}
	fmt.Fprintln(out, "stream: off")
	return nil
}

// loadConfig reads the configuration file, or the defaults, and applies
// flag overrides.
func loadConfig(o Options) (config.Config, error) {
	cfg := config.Default()
	if o.ConfigFile != "" {
		var err error
		cfg, err = config.Load(o.ConfigFile)
		if err != nil {
			return cfg, err
		}
	}
	if o.Bus != "" {
		cfg.Bus = o.Bus
	}
	if o.TraceFile != "" {
		cfg.TraceFile = o.TraceFile
	}
	return cfg, cfg.Validate()
}

// openBus initializes the host drivers and opens the named bus.
func openBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bc, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open bus %q: %w", name, err)
	}
	return bc, nil
}

// openTrace builds the bus trace sink: the trace file when configured, plus
// a slog mirror at debug level.
func openTrace(ctx context.Context, path string, logger *slog.Logger) (gmsllog.Logger, func(), error) {
	var loggers []gmsllog.Logger
	closer := func() {}

	if path != "" {
		fl, err := gmsllog.NewFileLogger(path)
		if err != nil {
			return nil, closer, fmt.Errorf("open trace file: %w", err)
		}
		logger.Info("bus trace", "file", path)
		loggers = append(loggers, fl)
		closer = func() {
			if err := fl.Close(); err != nil {
				logger.Warn("closing trace file", "error", err)
			}
		}
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		loggers = append(loggers, gmsllog.NewSlogAdapter(logger))
	}

	switch len(loggers) {
	case 0:
		return nil, closer, nil
	case 1:
		return loggers[0], closer, nil
	default:
		return gmsllog.NewMultiLogger(loggers...), closer, nil
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", s)
	}
}

func printStatus(w io.Writer, st bringup.Status) {
	fmt.Fprintf(w, "session:  %s\n", st.SessionID)
	fmt.Fprintf(w, "phase:    %s\n", st.Phase)
	fmt.Fprintf(w, "links:    0b%04b\n", st.EnableMask)
	fmt.Fprintf(w, "format:   %dx%d, vsync %s\n", st.Width, st.Height, polarity(st.InvertVS))
	for _, ch := range st.Channels {
		line := fmt.Sprintf("  [%d] serializer 0x%02x device 0x%02x %s", ch.Index, ch.SerializerAddr, ch.DeviceAddr, ch.State)
		if ch.Profile != "" {
			line += " profile " + ch.Profile
		}
		if ch.State == channel.StateFailed {
			line += " at " + ch.FailedStep.String()
		}
		fmt.Fprintln(w, line)
	}
}

func polarity(inverted bool) string {
	if inverted {
		return "active-low"
	}
	return "active-high"
}

// parseMask parses a link mask in decimal or 0x-prefixed hex.
func parseMask(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil || n > 0x0f {
		return 0, errors.New("link mask must be between 0x0 and 0xf")
	}
	return uint8(n), nil
}
