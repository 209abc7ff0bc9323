// Package profile holds downstream device register tables.
//
// A profile is an ordered list of register writes, each followed by a settle
// delay. The values are treated as opaque data: they are applied in order and
// never interpreted. A profile may also advertise properties the hub needs,
// such as the device's vsync polarity.
package profile

import (
	"errors"
	"fmt"

	"github.com/gmsl-hub/gmsl-go/pkg/bus"
	"github.com/gmsl-hub/gmsl-go/pkg/delay"
)

// ErrInvalidProfile is returned when a profile fails validation.
var ErrInvalidProfile = errors.New("invalid profile")

// Width is the value width of a register write in bits.
type Width uint8

const (
	Width8  Width = 8
	Width16 Width = 16
)

// Polarity is the vsync polarity a device advertises.
type Polarity uint8

const (
	// PolarityUnknown means the device does not advertise its polarity.
	PolarityUnknown Polarity = iota
	PolarityActiveHigh
	PolarityActiveLow
)

// String returns the polarity name used in profile files.
func (p Polarity) String() string {
	switch p {
	case PolarityUnknown:
		return "unknown"
	case PolarityActiveHigh:
		return "active-high"
	case PolarityActiveLow:
		return "active-low"
	default:
		return "invalid"
	}
}

// ParsePolarity parses a profile-file polarity name. Empty means unknown.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "", "unknown":
		return PolarityUnknown, nil
	case "active-high":
		return PolarityActiveHigh, nil
	case "active-low":
		return PolarityActiveLow, nil
	}
	return PolarityUnknown, fmt.Errorf("%w: unknown vsync polarity %q", ErrInvalidProfile, s)
}

// Step is one register write of a profile.
type Step struct {
	Reg    uint16
	Value  uint16
	Width  Width
	Settle delay.Range
}

// Profile is a named downstream register table.
type Profile struct {
	Name string

	// VSync is the vsync polarity the device drives.
	VSync Polarity

	// LSBFirst marks devices whose parallel output needs the serializer
	// crossbar swapped.
	LSBFirst bool

	Steps []Step
}

// Validate checks widths, value ranges and settle delays.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProfile)
	}
	if p.VSync > PolarityActiveLow {
		return fmt.Errorf("%w: %s: bad vsync polarity %d", ErrInvalidProfile, p.Name, p.VSync)
	}
	for i, s := range p.Steps {
		switch s.Width {
		case Width8:
			if s.Value > 0xff {
				return fmt.Errorf("%w: %s step %d: value 0x%04x exceeds 8 bits", ErrInvalidProfile, p.Name, i, s.Value)
			}
		case Width16:
		default:
			return fmt.Errorf("%w: %s step %d: width %d", ErrInvalidProfile, p.Name, i, s.Width)
		}
		if !s.Settle.Valid() {
			return fmt.Errorf("%w: %s step %d: settle %s", ErrInvalidProfile, p.Name, i, s.Settle)
		}
	}
	return nil
}

// StepError reports the profile step that failed to apply.
type StepError struct {
	Profile string
	Index   int
	Reg     uint16
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("profile %s step %d (reg 0x%04x): %v", e.Profile, e.Index, e.Reg, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Apply writes every step to dev in order, sleeping each step's settle
// delay after a successful write. It stops at the first failure.
func (p *Profile) Apply(dev *bus.Device, sleeper delay.Sleeper) error {
	for i, s := range p.Steps {
		var err error
		if s.Width == Width16 {
			err = dev.WriteWide16(s.Reg, s.Value)
		} else {
			err = dev.WriteWide8(s.Reg, uint8(s.Value))
		}
		if err != nil {
			return &StepError{Profile: p.Name, Index: i, Reg: s.Reg, Err: err}
		}
		if !s.Settle.IsZero() {
			sleeper.Sleep(s.Settle)
		}
	}
	return nil
}
