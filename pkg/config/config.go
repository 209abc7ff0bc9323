// Package config loads the per-board bring-up configuration.
//
// A configuration names the control bus, the hub address, the ordered
// per-channel target addresses and the aggregation-wide output format. It is
// read from YAML, layered over Default, and converted into the hub and
// channel types the bring-up controller consumes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gmsl-hub/gmsl-go/pkg/channel"
	"github.com/gmsl-hub/gmsl-go/pkg/delay"
	"github.com/gmsl-hub/gmsl-go/pkg/hub"
	"github.com/gmsl-hub/gmsl-go/pkg/poll"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the bring-up configuration of one board.
type Config struct {
	// Bus is the periph bus name ("" opens the first available bus).
	Bus string `yaml:"bus"`

	// BusSpeedKHz sets the bus clock when non-zero.
	BusSpeedKHz int `yaml:"bus_speed_khz"`

	// HubAddress is the hub's 7-bit address.
	HubAddress uint8 `yaml:"hub_address"`

	// SerializerAddrs and DeviceAddrs are the per-channel target addresses,
	// in channel order. They must have equal length.
	SerializerAddrs []uint8 `yaml:"serializer_addrs"`
	DeviceAddrs     []uint8 `yaml:"device_addrs"`

	// Profiles optionally names a device profile per channel. Shorter lists
	// leave the remaining channels without a profile.
	Profiles []string `yaml:"profiles"`

	// ProfileFiles are extra profile definitions loaded at startup.
	ProfileFiles []string `yaml:"profile_files"`

	Lanes          int    `yaml:"lanes"`
	DataType       string `yaml:"data_type"`
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	Double         bool   `yaml:"double"`
	CSIDouble      bool   `yaml:"csi_double"`
	VirtualChannel uint8  `yaml:"virtual_channel"`
	EDC            string `yaml:"edc"`
	InvertVSync    bool   `yaml:"invert_vsync"`
	InvertHSync    bool   `yaml:"invert_hsync"`
	HighBandwidth  bool   `yaml:"high_bandwidth"`

	I2C I2C `yaml:"i2c"`

	Budgets Budgets `yaml:"budgets"`

	// TraceFile, when set, receives a CBOR bus trace.
	TraceFile string `yaml:"trace_file"`
}

// I2C is the remote-side bus timing the hub applies to proxied transactions.
type I2C struct {
	LocalAck     bool  `yaml:"local_ack"`
	SetupHold    uint8 `yaml:"setup_hold"`
	MasterRate   uint8 `yaml:"master_rate"`
	SlaveTimeout uint8 `yaml:"slave_timeout"`
}

// Budget is a poll budget in file form.
type Budget struct {
	Attempts    int           `yaml:"attempts"`
	Interval    time.Duration `yaml:"interval"`
	IntervalMax time.Duration `yaml:"interval_max"`
}

// Budgets holds the status poll budgets.
type Budgets struct {
	VideoDetect Budget `yaml:"video_detect"`
	Lock        Budget `yaml:"lock"`
	FrameSync   Budget `yaml:"frame_sync"`
}

func budgetFrom(b poll.Budget) Budget {
	return Budget{Attempts: b.MaxAttempts, Interval: b.Interval.Min, IntervalMax: b.Interval.Max}
}

func (b Budget) poll() poll.Budget {
	hi := b.IntervalMax
	if hi == 0 {
		hi = b.Interval
	}
	return poll.Budget{MaxAttempts: b.Attempts, Interval: delay.Between(b.Interval, hi)}
}

// Default returns a single-channel configuration with sensible defaults.
func Default() Config {
	h := hub.DefaultConfig()
	return Config{
		HubAddress:      0x48,
		SerializerAddrs: []uint8{0x41},
		DeviceAddrs:     []uint8{0x60},
		Lanes:           h.Lanes,
		DataType:        h.DataType.String(),
		Width:           1280,
		Height:          720,
		Double:          h.Double,
		CSIDouble:       h.CSIDouble,
		EDC:             h.EDC.String(),
		I2C: I2C{
			LocalAck:     h.I2C.LocalAck,
			SetupHold:    h.I2C.SetupHold,
			MasterRate:   h.I2C.MasterRate,
			SlaveTimeout: h.I2C.SlaveTimeout,
		},
		Budgets: Budgets{
			VideoDetect: budgetFrom(h.VideoDetect),
			Lock:        budgetFrom(h.Lock),
			FrameSync:   budgetFrom(h.FrameSync),
		},
	}
}

// Parse decodes YAML over Default and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if !channel.ValidAddr(c.HubAddress) {
		return fmt.Errorf("%w: hub address 0x%02x", ErrInvalidConfig, c.HubAddress)
	}
	if c.BusSpeedKHz < 0 {
		return fmt.Errorf("%w: bus speed %d kHz", ErrInvalidConfig, c.BusSpeedKHz)
	}
	if len(c.Profiles) > len(c.SerializerAddrs) {
		return fmt.Errorf("%w: %d profiles for %d channels", ErrInvalidConfig, len(c.Profiles), len(c.SerializerAddrs))
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if _, err := c.Channels(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Hub(); err != nil {
		return err
	}
	return nil
}

// Channels enumerates the configured channels and attaches their profiles.
func (c *Config) Channels() ([]channel.Channel, error) {
	chs, err := channel.Enumerate(c.SerializerAddrs, c.DeviceAddrs, c.HubAddress)
	if err != nil {
		return nil, err
	}
	for i, p := range c.Profiles {
		chs[i].Profile = p
	}
	return chs, nil
}

// Hub converts the output format settings into a validated hub.Config.
func (c *Config) Hub() (hub.Config, error) {
	h := hub.DefaultConfig()

	dt, err := hub.ParseDataType(c.DataType)
	if err != nil {
		return hub.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	edc, err := parseEDC(c.EDC)
	if err != nil {
		return hub.Config{}, err
	}

	h.Lanes = c.Lanes
	h.DataType = dt
	h.Double = c.Double
	h.CSIDouble = c.CSIDouble
	h.VirtualChannel = c.VirtualChannel
	h.EDC = edc
	h.InvertVSync = c.InvertVSync
	h.InvertHSync = c.InvertHSync
	h.HighBandwidth = c.HighBandwidth
	h.I2C = hub.I2CTiming{
		LocalAck:     c.I2C.LocalAck,
		SetupHold:    c.I2C.SetupHold,
		MasterRate:   c.I2C.MasterRate,
		SlaveTimeout: c.I2C.SlaveTimeout,
	}
	h.VideoDetect = c.Budgets.VideoDetect.poll()
	h.Lock = c.Budgets.Lock.poll()
	h.FrameSync = c.Budgets.FrameSync.poll()

	if err := h.Validate(); err != nil {
		return hub.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return h, nil
}

func parseEDC(s string) (hub.EDCMode, error) {
	for _, m := range []hub.EDCMode{hub.EDC6BitParity, hub.EDC1BitParity, hub.EDC6BitCRC} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown edc mode %q", ErrInvalidConfig, s)
}
