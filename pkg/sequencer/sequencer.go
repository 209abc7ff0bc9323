// Package sequencer moves each serializer off the shared factory-default
// address, one channel at a time.
//
// For every channel, in index order, the sequencer isolates the channel's
// control channel at the hub, configures and resets the serializer at the
// default address, reassigns its address, maps the downstream device to its
// target address, activates the serializer, optionally applies a device
// profile, and finally commits the channel into the hub's enable bitmask.
//
// Channels are never brought up in parallel: every unconfigured serializer
// answers at the same address, so exactly one may be reachable at a time.
// The first failure aborts the run. Channels already brought up keep their
// new addresses; nothing is retried or rolled back.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gmsl-hub/gmsl-go/pkg/bus"
	"github.com/gmsl-hub/gmsl-go/pkg/channel"
	"github.com/gmsl-hub/gmsl-go/pkg/delay"
	"github.com/gmsl-hub/gmsl-go/pkg/hub"
	"github.com/gmsl-hub/gmsl-go/pkg/log"
	"github.com/gmsl-hub/gmsl-go/pkg/profile"
	"github.com/gmsl-hub/gmsl-go/pkg/serializer"
)

// Sequencer runs channel bring-up against one hub.
type Sequencer struct {
	hub      *hub.Hub
	bus      *bus.Bus
	channels []channel.Channel
	profiles *profile.Registry
	sleeper  delay.Sleeper
	logger   *slog.Logger

	serializers []*serializer.Serializer
	devices     []*bus.Device
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithProfiles sets the registry channel profiles are resolved from.
func WithProfiles(r *profile.Registry) Option {
	return func(s *Sequencer) { s.profiles = r }
}

// WithSleeper replaces the settle-delay implementation.
func WithSleeper(d delay.Sleeper) Option {
	return func(s *Sequencer) { s.sleeper = d }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequencer) { s.logger = l }
}

// New creates a Sequencer for chs. The channel slice is copied; use
// Channels to observe progress.
func New(h *hub.Hub, chs []channel.Channel, opts ...Option) *Sequencer {
	s := &Sequencer{
		hub:      h,
		bus:      h.Device().Bus(),
		channels: append([]channel.Channel(nil), chs...),
		sleeper:  delay.SystemSleeper{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.profiles == nil {
		s.profiles = profile.NewRegistry()
	}
	return s
}

// Channels returns a snapshot of the channel records.
func (s *Sequencer) Channels() []channel.Channel {
	return append([]channel.Channel(nil), s.channels...)
}

// Serializer returns the serializer proxy of a channel that has been
// brought up, or nil.
func (s *Sequencer) Serializer(index uint8) *serializer.Serializer {
	if int(index) >= len(s.serializers) {
		return nil
	}
	return s.serializers[index]
}

// Device returns the downstream device proxy of a channel that has been
// brought up, or nil.
func (s *Sequencer) Device(index uint8) *bus.Device {
	if int(index) >= len(s.devices) {
		return nil
	}
	return s.devices[index]
}

// Run brings up every channel in index order.
//
// The channel list is validated before the first transaction; a collision
// fails with *channel.ConfigError and touches no hardware. The context is
// checked before each channel. Any step failure marks the channel Failed and
// returns a *StepError naming the channel and step.
func (s *Sequencer) Run(ctx context.Context) error {
	if err := channel.Validate(s.channels, s.hub.Device().Addr()); err != nil {
		return err
	}
	for i := range s.channels {
		if s.channels[i].State != channel.StateUninitialized {
			return &channel.ConfigError{Index: i, Reason: fmt.Sprintf("already %s", s.channels[i].State)}
		}
	}

	s.serializers = s.serializers[:0]
	s.devices = s.devices[:0]

	for i := range s.channels {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("bring-up interrupted before channel %d: %w", i, err)
		}
		if err := s.bringUp(&s.channels[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequencer) bringUp(ch *channel.Channel) error {
	ser := serializer.New(
		s.bus.Device("serializer", channel.DefaultSerializerAddr).ForChannel(ch.Index),
		s.sleeper,
	)
	dev := s.bus.Device("device", channel.DefaultDeviceAddr).ForChannel(ch.Index)

	var prof *profile.Profile
	if ch.Profile != "" {
		p, err := s.profiles.Lookup(ch.Profile)
		if err != nil {
			return s.fail(ch, channel.StepProfile, err)
		}
		prof = p
	}

	// Exclusive control channel: only this serializer answers the default address.
	if err := s.hub.Isolate(ch.Index); err != nil {
		return s.fail(ch, channel.StepIsolate, err)
	}
	s.transition(ch, channel.StateDefaultAddress, channel.StepIsolate)

	if err := ser.Configure(); err != nil {
		return s.abort(ch, channel.StepConfigure, err)
	}
	s.transition(ch, channel.StateSerializerConfigured, channel.StepConfigure)

	if err := ser.Reset(); err != nil {
		return s.abort(ch, channel.StepReset, err)
	}

	if err := ser.SetAddress(ch.SerializerAddr); err != nil {
		return s.abort(ch, channel.StepReassign, err)
	}
	s.transition(ch, channel.StateAddressReassigned, channel.StepReassign)

	if err := ser.Translate(ch.DeviceAddr, channel.DefaultDeviceAddr); err != nil {
		return s.abort(ch, channel.StepTranslate, err)
	}
	dev.Rebind(ch.DeviceAddr)

	if err := ser.Activate(); err != nil {
		return s.abort(ch, channel.StepActivate, err)
	}

	if prof != nil {
		if prof.LSBFirst {
			if err := ser.SwapCrossbar(); err != nil {
				return s.abort(ch, channel.StepProfile, err)
			}
		}
		if err := prof.Apply(dev, s.sleeper); err != nil {
			return s.abort(ch, channel.StepProfile, err)
		}
	}

	if err := s.hub.Commit(ch.Index); err != nil {
		return s.abort(ch, channel.StepCommit, err)
	}
	s.transition(ch, channel.StateLinkEnabled, channel.StepCommit)

	s.serializers = append(s.serializers, ser)
	s.devices = append(s.devices, dev)

	if s.logger != nil {
		s.logger.Info("channel up",
			"channel", ch.Index,
			"serializer", fmt.Sprintf("0x%02x", ch.SerializerAddr),
			"device", fmt.Sprintf("0x%02x", ch.DeviceAddr),
			"mask", fmt.Sprintf("0b%04b", s.hub.EnableMask()),
		)
	}
	return nil
}

func (s *Sequencer) transition(ch *channel.Channel, to channel.State, step channel.Step) {
	from := ch.State
	ch.State = to
	s.traceState(ch, from, step, "")
}

// abort fails ch after it was isolated, putting the hub control channels
// back to the committed links first.
func (s *Sequencer) abort(ch *channel.Channel, step channel.Step, err error) error {
	if rerr := s.hub.Restore(); rerr != nil {
		err = errors.Join(err, rerr)
	}
	return s.fail(ch, step, err)
}

func (s *Sequencer) fail(ch *channel.Channel, step channel.Step, err error) error {
	from := ch.State
	ch.State = channel.StateFailed
	ch.FailedStep = step
	s.traceState(ch, from, step, err.Error())

	if s.logger != nil {
		s.logger.Error("channel bring-up failed",
			"channel", ch.Index,
			"step", step.String(),
			"state", from.String(),
			"error", err,
		)
	}
	return &StepError{Channel: ch.Index, Step: step, Err: err}
}

func (s *Sequencer) traceState(ch *channel.Channel, from channel.State, step channel.Step, reason string) {
	s.bus.Trace(log.Event{
		Layer:    log.LayerSequencer,
		Category: log.CategoryState,
		Channel:  log.ChannelRef(ch.Index),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityChannel,
			OldState: from.String(),
			NewState: ch.State.String(),
			Step:     step.String(),
			Reason:   reason,
		},
	})
}
