// Package hub configures the aggregation hub and watches its link status.
//
// Hub owns the hub's device handle and the link enable bitmask built up
// while channels are brought up. It provides the aggregation-wide
// configuration written before and after sequencing, the exclusive
// control-channel switch used to isolate one serializer at a time, the link
// health checks and the frame-sync gate in front of output enable.
//
// A Hub is not safe for concurrent use; the bring-up controller serializes
// access to it.
package hub

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gmsl-hub/gmsl-go/pkg/bus"
	"github.com/gmsl-hub/gmsl-go/pkg/delay"
	"github.com/gmsl-hub/gmsl-go/pkg/log"
)

// ErrNoLinks is returned when a link check runs before any channel has been
// enabled.
var ErrNoLinks = errors.New("no links enabled")

// Hub is the hub context: the device handle and the committed link mask.
type Hub struct {
	dev     *bus.Device
	cfg     Config
	sleeper delay.Sleeper
	logger  *slog.Logger

	links     uint8
	enabled   uint8
	invertVS  bool
	streaming bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithSleeper replaces the settle-delay implementation.
func WithSleeper(s delay.Sleeper) Option {
	return func(h *Hub) { h.sleeper = s }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// New creates a Hub on dev. cfg must already be valid.
func New(dev *bus.Device, cfg Config, opts ...Option) *Hub {
	h := &Hub{
		dev:      dev,
		cfg:      cfg,
		sleeper:  delay.SystemSleeper{},
		invertVS: cfg.InvertVSync,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Device returns the hub's device handle.
func (h *Hub) Device() *bus.Device {
	return h.dev
}

// Links returns the link mask passed to Configure.
func (h *Hub) Links() uint8 {
	return h.links
}

// EnableMask returns the committed link enable bitmask.
func (h *Hub) EnableMask() uint8 {
	return h.enabled
}

// Streaming reports whether the aggregated output is enabled.
func (h *Hub) Streaming() bool {
	return h.streaming
}

// InvertVSync reports whether the output vsync is currently inverted.
func (h *Hub) InvertVSync() bool {
	return h.invertVS
}

// Configure writes the aggregation-wide configuration for the given link
// mask. All control channels are switched off first and the committed mask
// is reset, so Configure starts a fresh bring-up.
func (h *Hub) Configure(links uint8) error {
	links &= 0x0f
	if links == 0 {
		return ErrNoLinks
	}

	writes := []struct {
		reg uint8
		val uint8
	}{
		{RegControlChan, 0},
		{RegLinkEnable, LinkSelAuto | links},
		{RegLinkOrder, LinkOrder(links)},
		{RegLinkFaultCtl, AutoComebackEn | AutoMaskEn | (^links & 0x0f)},
		{RegOutput, Resv15},
		{RegCSI, h.cfg.csiValue()},
		{RegSync, h.cfg.syncValue(h.cfg.InvertVSync)},
		{RegReverseChan, h.cfg.reverseChanValue(links)},
		{RegI2CTiming, h.cfg.I2C.value()},
	}

	h.enabled = 0
	h.streaming = false
	for _, w := range writes {
		if err := h.dev.Write8(w.reg, w.val); err != nil {
			return fmt.Errorf("configure hub: %w", err)
		}
	}
	h.links = links
	h.invertVS = h.cfg.InvertVSync
	h.sleeper.Sleep(h.cfg.ControlSettle)

	h.debugLog("hub configured",
		"links", fmt.Sprintf("0b%04b", links),
		"lanes", h.cfg.Lanes,
		"data_type", h.cfg.DataType.String(),
	)
	h.traceState("", "CONFIGURED", fmt.Sprintf("links 0b%04b", links))
	return nil
}

// Isolate enables the control channels of link n only, so exactly one
// serializer is reachable at the factory-default address.
func (h *Hub) Isolate(n uint8) error {
	if err := h.dev.Write8(RegControlChan, ControlChannels(1<<n)); err != nil {
		return err
	}
	h.sleeper.Sleep(h.cfg.ControlSettle)
	return nil
}

// Commit enables the control channels of link n together with every link
// already committed, then adds n to the enable bitmask. The bitmask is only
// advanced when the write succeeds.
func (h *Hub) Commit(n uint8) error {
	mask := h.enabled | 1<<n
	if err := h.dev.Write8(RegControlChan, ControlChannels(mask)); err != nil {
		return err
	}
	h.sleeper.Sleep(h.cfg.ControlSettle)

	old := h.enabled
	h.enabled = mask
	h.traceState(fmt.Sprintf("0b%04b", old), fmt.Sprintf("0b%04b", mask), fmt.Sprintf("link %d committed", n))
	return nil
}

// Restore enables the control channels of the committed links only. It
// undoes an Isolate whose link never reached Commit.
func (h *Hub) Restore() error {
	if err := h.dev.Write8(RegControlChan, ControlChannels(h.enabled)); err != nil {
		return fmt.Errorf("restore control channels: %w", err)
	}
	h.sleeper.Sleep(h.cfg.ControlSettle)
	h.debugLog("control channels restored", "mask", fmt.Sprintf("0b%04b", h.enabled))
	return nil
}

// SetVSyncPolarity rewrites RegSync with the output vsync inverted or not.
func (h *Hub) SetVSyncPolarity(invert bool) error {
	if err := h.dev.Write8(RegSync, h.cfg.syncValue(invert)); err != nil {
		return fmt.Errorf("set vsync polarity: %w", err)
	}
	h.invertVS = invert
	return nil
}

// debugLog logs a debug message if a logger is configured.
func (h *Hub) debugLog(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func (h *Hub) traceState(oldState, newState, reason string) {
	h.dev.Bus().Trace(log.Event{
		Layer:    log.LayerHub,
		Category: log.CategoryState,
		Device:   h.dev.Name(),
		Addr:     h.dev.Addr(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityHub,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
