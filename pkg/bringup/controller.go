// Package bringup orchestrates hub bring-up and stream enable.
//
// Controller ties the pieces together in hardware order: hub configuration,
// per-channel address reassignment, output polarity, then on each stream
// enable the link health checks and the frame-sync gate in front of output
// enable. Public operations are serialized, so no outside caller can race a
// bring-up in progress.
package bringup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/gmsl-hub/gmsl-go/pkg/bus"
	"github.com/gmsl-hub/gmsl-go/pkg/channel"
	"github.com/gmsl-hub/gmsl-go/pkg/config"
	"github.com/gmsl-hub/gmsl-go/pkg/delay"
	"github.com/gmsl-hub/gmsl-go/pkg/hub"
	"github.com/gmsl-hub/gmsl-go/pkg/log"
	"github.com/gmsl-hub/gmsl-go/pkg/profile"
	"github.com/gmsl-hub/gmsl-go/pkg/sequencer"
)

var (
	// ErrNotBroughtUp is returned by stream operations before a successful Bringup.
	ErrNotBroughtUp = errors.New("hub not brought up")

	// ErrBringupFailed is returned by stream operations after a failed Bringup.
	// Recovery requires a power cycle and a new Bringup.
	ErrBringupFailed = errors.New("bring-up failed; power cycle required")
)

// Phase is the controller lifecycle phase.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseReady
	PhaseStreaming
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseReady:
		return "READY"
	case PhaseStreaming:
		return "STREAMING"
	case PhaseFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Status is a snapshot of the controller state.
type Status struct {
	SessionID  string
	Phase      Phase
	Channels   []channel.Channel
	EnableMask uint8
	Streaming  bool
	InvertVS   bool
	Width      int
	Height     int
}

// Controller brings up one hub.
type Controller struct {
	mu sync.Mutex

	cfg       config.Config
	bus       *bus.Bus
	hub       *hub.Hub
	profiles  *profile.Registry
	sleeper   delay.Sleeper
	logger    *slog.Logger
	trace     log.Logger
	sessionID string

	phase    Phase
	channels []channel.Channel
	seq      *sequencer.Sequencer
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithTraceLogger attaches a bus trace logger.
func WithTraceLogger(l log.Logger) Option {
	return func(c *Controller) { c.trace = l }
}

// WithSleeper replaces the settle-delay implementation.
func WithSleeper(s delay.Sleeper) Option {
	return func(c *Controller) { c.sleeper = s }
}

// WithProfiles replaces the profile registry.
func WithProfiles(r *profile.Registry) Option {
	return func(c *Controller) { c.profiles = r }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(c *Controller) { c.sessionID = id }
}

// New validates cfg and prepares a controller on conn. No bus transaction
// is made until Bringup, except setting the bus speed when configured.
func New(conn i2c.Bus, cfg config.Config, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hubCfg, err := cfg.Hub()
	if err != nil {
		return nil, err
	}
	chs, err := cfg.Channels()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:      cfg,
		sleeper:  delay.SystemSleeper{},
		channels: chs,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sessionID == "" {
		c.sessionID = uuid.New().String()
	}
	if c.profiles == nil {
		c.profiles = profile.NewRegistry()
	}
	for _, path := range cfg.ProfileFiles {
		p, err := profile.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := c.profiles.Add(p); err != nil {
			return nil, err
		}
	}
	for _, ch := range chs {
		if ch.Profile == "" {
			continue
		}
		if _, err := c.profiles.Lookup(ch.Profile); err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch.Index, err)
		}
	}

	c.bus = bus.New(conn, bus.WithTraceLogger(c.trace, c.sessionID))
	if cfg.BusSpeedKHz > 0 {
		if err := c.bus.SetSpeed(physic.Frequency(cfg.BusSpeedKHz) * physic.KiloHertz); err != nil {
			return nil, fmt.Errorf("set bus speed: %w", err)
		}
	}
	c.hub = hub.New(c.bus.Device("hub", cfg.HubAddress), hubCfg,
		hub.WithSleeper(c.sleeper),
		hub.WithLogger(c.logger),
	)
	return c, nil
}

// SessionID returns the id tagging this controller's trace events.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Bringup configures the hub, brings up every channel in order and resolves
// the output vsync polarity. On failure the controller is left in
// PhaseFailed; the returned error names the failing channel and step.
func (c *Controller) Bringup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIdle {
		return fmt.Errorf("bring-up already ran (phase %s)", c.phase)
	}

	c.infoLog("bring-up starting",
		"session", c.sessionID,
		"bus", c.bus.String(),
		"channels", len(c.channels),
	)

	if err := c.hub.Configure(channel.Mask(c.channels)); err != nil {
		return c.failed(err)
	}

	c.seq = sequencer.New(c.hub, c.channels,
		sequencer.WithProfiles(c.profiles),
		sequencer.WithSleeper(c.sleeper),
		sequencer.WithLogger(c.logger),
	)
	err := c.seq.Run(ctx)
	c.channels = c.seq.Channels()
	if err != nil {
		return c.failed(err)
	}

	if err := c.resolvePolarity(); err != nil {
		return c.failed(err)
	}

	c.phase = PhaseReady
	c.infoLog("bring-up complete", "mask", fmt.Sprintf("0b%04b", c.hub.EnableMask()))
	return nil
}

// resolvePolarity sets the output vsync polarity from channel 0's profile.
// A device that does not advertise polarity is assumed active-high.
func (c *Controller) resolvePolarity() error {
	pol := profile.PolarityUnknown
	for i, ch := range c.channels {
		p := profile.PolarityUnknown
		if ch.Profile != "" {
			if prof, err := c.profiles.Lookup(ch.Profile); err == nil {
				p = prof.VSync
			}
		}
		if i == 0 {
			pol = p
			continue
		}
		if p != profile.PolarityUnknown && pol != profile.PolarityUnknown && p != pol {
			c.warnLog("vsync polarity disagrees with channel 0; using channel 0",
				"channel", ch.Index,
				"polarity", p.String(),
				"channel0", pol.String(),
			)
		}
	}

	if pol == profile.PolarityUnknown {
		c.infoLog("device does not advertise vsync polarity; assuming active-high")
		pol = profile.PolarityActiveHigh
	}
	return c.hub.SetVSyncPolarity(pol == profile.PolarityActiveLow)
}

// EnableStream starts the serializers, checks video detect and link lock,
// then passes the frame-sync gate and enables the aggregated output. It may
// be called again after DisableStream; every call re-runs the checks.
func (c *Controller) EnableStream(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireBroughtUp(); err != nil {
		return err
	}

	for i, ch := range c.channels {
		if err := ctx.Err(); err != nil {
			return c.abortStream(c.stopSerializers(i, err))
		}
		if err := c.seq.Serializer(ch.Index).SetStream(true); err != nil {
			return c.abortStream(c.stopSerializers(i, fmt.Errorf("channel %d: start serializer: %w", ch.Index, err)))
		}
	}

	if _, err := c.hub.CheckVideoDetect(); err != nil {
		return c.abortStream(fmt.Errorf("video detect: %w", err))
	}
	if _, err := c.hub.CheckLinkLock(); err != nil {
		return c.abortStream(fmt.Errorf("link lock: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return c.abortStream(err)
	}
	if err := c.hub.StreamOn(); err != nil {
		return c.abortStream(fmt.Errorf("frame sync: %w", err))
	}

	c.phase = PhaseStreaming
	c.infoLog("stream enabled", "mask", fmt.Sprintf("0b%04b", c.hub.EnableMask()))
	return nil
}

// abortStream leaves the output disabled after a failed stream enable.
func (c *Controller) abortStream(err error) error {
	c.phase = PhaseReady
	if c.hub.Streaming() {
		if offErr := c.hub.StreamOff(); offErr != nil {
			err = errors.Join(err, offErr)
		}
	}
	c.warnLog("stream enable failed", "error", err)
	return err
}

// stopSerializers turns serialization back off on the first n channels and
// joins any failure into err.
func (c *Controller) stopSerializers(n int, err error) error {
	for _, ch := range c.channels[:n] {
		if offErr := c.seq.Serializer(ch.Index).SetStream(false); offErr != nil {
			err = errors.Join(err, fmt.Errorf("channel %d: stop serializer: %w", ch.Index, offErr))
		}
	}
	return err
}

// DisableStream turns off the aggregated output, then serialization on every
// channel.
func (c *Controller) DisableStream() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireBroughtUp(); err != nil {
		return err
	}

	var errs []error
	if err := c.hub.StreamOff(); err != nil {
		errs = append(errs, fmt.Errorf("output off: %w", err))
	}
	for _, ch := range c.channels {
		if err := c.seq.Serializer(ch.Index).SetStream(false); err != nil {
			errs = append(errs, fmt.Errorf("channel %d: stop serializer: %w", ch.Index, err))
		}
	}
	c.phase = PhaseReady
	c.infoLog("stream disabled")
	return errors.Join(errs...)
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		SessionID:  c.sessionID,
		Phase:      c.phase,
		Channels:   append([]channel.Channel(nil), c.channels...),
		EnableMask: c.hub.EnableMask(),
		Streaming:  c.hub.Streaming(),
		InvertVS:   c.hub.InvertVSync(),
		Width:      c.cfg.Width,
		Height:     c.cfg.Height,
	}
}

func (c *Controller) requireBroughtUp() error {
	switch c.phase {
	case PhaseIdle:
		return ErrNotBroughtUp
	case PhaseFailed:
		return ErrBringupFailed
	}
	return nil
}

func (c *Controller) failed(err error) error {
	c.phase = PhaseFailed
	c.bus.Trace(log.Event{
		Layer:    log.LayerSequencer,
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerSequencer,
			Message: err.Error(),
			Step:    failedStep(err),
			Context: "bring-up",
		},
	})
	if c.logger != nil {
		c.logger.Error("bring-up failed", "error", err)
	}
	return err
}

func failedStep(err error) string {
	var se *sequencer.StepError
	if errors.As(err, &se) {
		return se.Step.String()
	}
	return ""
}

func (c *Controller) infoLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Controller) warnLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
