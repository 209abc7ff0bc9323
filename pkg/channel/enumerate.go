package channel

import (
	"errors"
	"fmt"
)

// ErrConfig is matched by every *ConfigError via errors.Is.
var ErrConfig = errors.New("invalid channel configuration")

// ConfigError reports malformed or contradictory channel input.
type ConfigError struct {
	// Index is the offending channel, or -1 when the whole input is at fault.
	Index  int
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("channel config: %s", e.Reason)
	}
	return fmt.Sprintf("channel config: channel %d: %s", e.Index, e.Reason)
}

// Is makes errors.Is(err, ErrConfig) true for any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// ValidAddr reports whether addr is a usable 7-bit address. The I2C
// reserved ranges 0x00-0x07 and 0x78-0x7f are rejected.
func ValidAddr(addr uint8) bool {
	return addr >= 0x08 && addr <= 0x77
}

// Enumerate builds the ordered channel list from paired target addresses.
//
// Serializers and downstream devices share one bus address space, so all 2N
// targets must be pairwise distinct. Targets may not use the factory
// defaults or any address in reserved (typically the hub itself).
func Enumerate(serializerAddrs, deviceAddrs []uint8, reserved ...uint8) ([]Channel, error) {
	if len(serializerAddrs) != len(deviceAddrs) {
		return nil, &ConfigError{Index: -1, Reason: fmt.Sprintf("%d serializer addresses but %d device addresses", len(serializerAddrs), len(deviceAddrs))}
	}
	if len(serializerAddrs) == 0 {
		return nil, &ConfigError{Index: -1, Reason: "no channels configured"}
	}
	if len(serializerAddrs) > MaxChannels {
		return nil, &ConfigError{Index: -1, Reason: fmt.Sprintf("%d channels exceeds maximum of %d", len(serializerAddrs), MaxChannels)}
	}

	chs := make([]Channel, len(serializerAddrs))
	for i := range serializerAddrs {
		chs[i] = Channel{
			Index:          uint8(i),
			SerializerAddr: serializerAddrs[i],
			DeviceAddr:     deviceAddrs[i],
		}
	}
	if err := Validate(chs, reserved...); err != nil {
		return nil, err
	}
	return chs, nil
}

// Validate checks an existing channel list against the enumeration rules.
// Indices must be 0..N-1 in order.
func Validate(chs []Channel, reserved ...uint8) error {
	if len(chs) == 0 {
		return &ConfigError{Index: -1, Reason: "no channels configured"}
	}
	if len(chs) > MaxChannels {
		return &ConfigError{Index: -1, Reason: fmt.Sprintf("%d channels exceeds maximum of %d", len(chs), MaxChannels)}
	}

	taken := map[uint8]string{
		DefaultSerializerAddr: "factory-default serializer address",
		DefaultDeviceAddr:     "factory-default device address",
	}
	for _, r := range reserved {
		taken[r] = "reserved address"
	}

	for i, c := range chs {
		if int(c.Index) != i {
			return &ConfigError{Index: i, Reason: fmt.Sprintf("index %d out of order", c.Index)}
		}
		for _, t := range []struct {
			kind string
			addr uint8
		}{
			{"serializer", c.SerializerAddr},
			{"device", c.DeviceAddr},
		} {
			if !ValidAddr(t.addr) {
				return &ConfigError{Index: i, Reason: fmt.Sprintf("%s address 0x%02x is not a valid 7-bit address", t.kind, t.addr)}
			}
			if owner, ok := taken[t.addr]; ok {
				return &ConfigError{Index: i, Reason: fmt.Sprintf("%s address 0x%02x collides with %s", t.kind, t.addr, owner)}
			}
			taken[t.addr] = fmt.Sprintf("channel %d %s", i, t.kind)
		}
	}
	return nil
}
