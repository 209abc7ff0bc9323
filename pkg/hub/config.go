package hub

import (
	"errors"
	"time"

	"github.com/gmsl-hub/gmsl-go/pkg/delay"
	"github.com/gmsl-hub/gmsl-go/pkg/poll"
)

// ErrInvalidConfig is returned when a hub configuration fails validation.
var ErrInvalidConfig = errors.New("invalid hub configuration")

// I2CTiming holds the bus timing the hub uses for transactions it proxies to
// the remote side. Each field is a class index, not a physical value.
type I2CTiming struct {
	// LocalAck makes the hub acknowledge remote writes locally.
	LocalAck bool

	// SetupHold is the setup/hold time class (0-3).
	SetupHold uint8

	// MasterRate is the remote master bit-rate class (0-7).
	MasterRate uint8

	// SlaveTimeout is the remote slave timeout class (0-3).
	SlaveTimeout uint8
}

func (t I2CTiming) value() uint8 {
	var v uint8
	if t.LocalAck {
		v |= I2CLocalAck
	}
	return v | t.SetupHold<<5 | t.MasterRate<<2 | t.SlaveTimeout
}

// Config is the aggregation-wide hub configuration.
type Config struct {
	// Lanes is the CSI-2 lane count (1-4).
	Lanes int

	// DataType is the CSI-2 output data type.
	DataType DataType

	// Double enables double-input mode on the serial side.
	Double bool

	// CSIDouble enables double-pixel mode on the CSI-2 side.
	CSIDouble bool

	// VirtualChannel is the CSI-2 virtual channel of the aggregated output.
	VirtualChannel uint8

	// EDC is the serial link error detection mode.
	EDC EDCMode

	// DESel selects the de-skew edge.
	DESel bool

	// InvertVSync and InvertHSync invert the output sync signals. InvertVSync
	// is later replaced by the polarity resolved from the attached devices.
	InvertVSync bool
	InvertHSync bool

	// HVSource selects the input pins HS/VS are taken from.
	HVSource uint8

	// HighBandwidth and BWS tune the reverse control channel.
	HighBandwidth bool
	BWS           bool

	I2C I2CTiming

	// ControlSettle is waited after each control-channel change.
	ControlSettle delay.Range

	VideoDetect poll.Budget
	Lock        poll.Budget
	FrameSync   poll.Budget
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Lanes:     4,
		DataType:  DataTypeYUV422_8,
		Double:    true,
		CSIDouble: true,
		EDC:       EDC6BitCRC,
		HVSource:  HVSrcD14,
		I2C: I2CTiming{
			LocalAck:     true,
			SetupHold:    1,
			MasterRate:   2,
			SlaveTimeout: 3,
		},
		ControlSettle: delay.Between(3*time.Millisecond, 5*time.Millisecond),
		VideoDetect: poll.Budget{
			MaxAttempts: 10,
			Interval:    delay.Between(3500*time.Microsecond, 5*time.Millisecond),
		},
		Lock: poll.Budget{
			MaxAttempts: 10,
			Interval:    delay.Between(3500*time.Microsecond, 4500*time.Microsecond),
		},
		FrameSync: poll.Budget{
			MaxAttempts: 36,
			Interval:    delay.Between(9*time.Millisecond, 11*time.Millisecond),
		},
	}
}

// Validate checks if the hub config is valid.
func (c *Config) Validate() error {
	if c.Lanes < 1 || c.Lanes > 4 {
		return ErrInvalidConfig
	}
	if c.DataType > dataTypeLast {
		return ErrInvalidConfig
	}
	if c.VirtualChannel > 3 || c.EDC > EDC6BitCRC || c.HVSource > 3 {
		return ErrInvalidConfig
	}
	if c.I2C.SetupHold > 3 || c.I2C.MasterRate > 7 || c.I2C.SlaveTimeout > 3 {
		return ErrInvalidConfig
	}
	if !c.ControlSettle.Valid() {
		return ErrInvalidConfig
	}
	for _, b := range []poll.Budget{c.VideoDetect, c.Lock, c.FrameSync} {
		if b.MaxAttempts < 1 || !b.Interval.Valid() {
			return ErrInvalidConfig
		}
	}
	return nil
}

// csiValue is the RegCSI value.
func (c *Config) csiValue() uint8 {
	v := CSILanes(c.Lanes) | uint8(c.DataType)&0x0f
	if c.CSIDouble {
		v |= CSIDBL
	}
	if c.Double {
		v |= DBL
	}
	return v
}

// syncValue is the RegSync value for the given vsync inversion.
func (c *Config) syncValue(invertVS bool) uint8 {
	v := HVEn | c.EDC.bits() | c.HVSource&0x03
	if c.DESel {
		v |= DESel
	}
	if invertVS {
		v |= InvVS
	}
	if c.InvertHSync {
		v |= InvHS
	}
	return v
}

// reverseChanValue is the RegReverseChan value for the active links.
func (c *Config) reverseChanValue(links uint8) uint8 {
	var v uint8
	for n := uint8(0); n < 4; n++ {
		if links&(1<<n) != 0 {
			v |= HighImmunity(n)
		}
	}
	if c.HighBandwidth {
		v |= HIBW
	}
	if c.BWS {
		v |= BWS
	}
	return v
}

// outputValue is the RegOutput value with output enabled or disabled.
func (c *Config) outputValue(enabled bool) uint8 {
	v := VC(c.VirtualChannel) | VCType | Resv15
	if enabled {
		v |= CSIOutEn
	}
	return v
}
