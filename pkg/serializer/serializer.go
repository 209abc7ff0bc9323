// Package serializer drives the camera-side serializer of one link.
//
// Every serializer powers up at the same factory-default address. The
// methods here are the individual steps the sequencer needs: configure the
// operating mode, pulse reset, move to a new address, set up address
// translation for the device behind it, and switch to active mode.
package serializer

import (
	"fmt"
	"time"

	"github.com/gmsl-hub/gmsl-go/pkg/bus"
	"github.com/gmsl-hub/gmsl-go/pkg/delay"
)

// Settle delays after each step, fixed by the chip.
const (
	modeSettle       = 8 * time.Millisecond
	resetSettle      = 20 * time.Millisecond
	addressSettleMin = 3500 * time.Microsecond
	addressSettleMax = 5 * time.Millisecond
	activateSettle   = 5 * time.Millisecond
)

// Serializer is a proxy for one serializer chip.
type Serializer struct {
	dev     *bus.Device
	sleeper delay.Sleeper
}

// New wraps dev. The device is expected at its current address, which is the
// factory default until SetAddress succeeds.
func New(dev *bus.Device, sleeper delay.Sleeper) *Serializer {
	return &Serializer{dev: dev, sleeper: sleeper}
}

// Device returns the underlying proxy.
func (s *Serializer) Device() *bus.Device {
	return s.dev
}

// Configure puts the serializer in configuration mode with sync signals
// enabled and double-input mode on.
func (s *Serializer) Configure() error {
	if err := s.dev.Write8(RegMainControl, ConfigMode); err != nil {
		return err
	}
	s.sleeper.Sleep(delay.Fixed(modeSettle))

	if err := s.dev.Write8(RegConfig, DBL|HVEn); err != nil {
		return err
	}
	s.sleeper.Sleep(delay.Fixed(modeSettle))
	return nil
}

// Reset pulses the link reset and waits for the serializer to settle.
func (s *Serializer) Reset() error {
	if err := s.dev.Write8(RegReset, ResetPulse); err != nil {
		return err
	}
	s.sleeper.Sleep(delay.Fixed(resetSettle))
	return nil
}

// SetAddress moves the serializer to addr and rebinds the proxy. The proxy is
// only rebound when the write succeeds.
func (s *Serializer) SetAddress(addr uint8) error {
	if err := s.dev.Write8(RegAddress, AddrValue(addr)); err != nil {
		return err
	}
	s.dev.Rebind(addr)
	s.sleeper.Sleep(delay.Between(addressSettleMin, addressSettleMax))
	return nil
}

// Translate makes the downstream device, which answers at defaultAddr on
// the remote side, reachable at target on the shared bus.
func (s *Serializer) Translate(target, defaultAddr uint8) error {
	if err := s.dev.Write8(RegI2CSource, AddrValue(target)); err != nil {
		return err
	}
	return s.dev.Write8(RegI2CDest, AddrValue(defaultAddr))
}

// Activate enables serialization.
func (s *Serializer) Activate() error {
	if err := s.dev.Write8(RegMainControl, ActiveMode); err != nil {
		return err
	}
	s.sleeper.Sleep(delay.Fixed(activateSettle))
	return nil
}

// SwapCrossbar reverses bit order within each byte lane group so that a
// device emitting LSB-first data arrives MSB-first.
func (s *Serializer) SwapCrossbar() error {
	for i := uint8(0); i < 8; i++ {
		if err := s.dev.Write8(Crossbar(i), 7-i); err != nil {
			return fmt.Errorf("crossbar %d: %w", i, err)
		}
		if err := s.dev.Write8(Crossbar(16+i), 23-i); err != nil {
			return fmt.Errorf("crossbar %d: %w", 16+i, err)
		}
	}
	return nil
}

// SetStream turns serialization on or off while keeping the control
// channels up.
func (s *Serializer) SetStream(on bool) error {
	v := StreamOff
	if on {
		v = StreamOn
	}
	return s.dev.Write8(RegMainControl, v)
}
