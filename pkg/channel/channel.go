// Package channel defines the per-link bring-up record and the enumerator
// that turns configured target addresses into an ordered channel list.
package channel

import "fmt"

// MaxChannels is the number of serial links on the hub.
const MaxChannels = 4

// Factory-default addresses every unconfigured serializer and downstream
// device answers at after power-on.
const (
	DefaultSerializerAddr uint8 = 0x40
	DefaultDeviceAddr     uint8 = 0x5d
)

// State is the lifecycle state of a channel.
type State uint8

const (
	StateUninitialized State = iota
	StateDefaultAddress
	StateSerializerConfigured
	StateAddressReassigned
	StateLinkEnabled
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateDefaultAddress:
		return "DEFAULT_ADDRESS"
	case StateSerializerConfigured:
		return "SERIALIZER_CONFIGURED"
	case StateAddressReassigned:
		return "ADDRESS_REASSIGNED"
	case StateLinkEnabled:
		return "LINK_ENABLED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == StateLinkEnabled || s == StateFailed
}

// Reassigned reports whether the serializer has left the default address.
func (s State) Reassigned() bool {
	return s == StateAddressReassigned || s == StateLinkEnabled
}

// Step identifies a bring-up sub-step of one channel.
type Step uint8

const (
	StepNone Step = iota
	StepIsolate
	StepConfigure
	StepReset
	StepReassign
	StepTranslate
	StepActivate
	StepProfile
	StepCommit
)

// String returns the step name.
func (s Step) String() string {
	switch s {
	case StepNone:
		return "NONE"
	case StepIsolate:
		return "ISOLATE"
	case StepConfigure:
		return "CONFIGURE"
	case StepReset:
		return "RESET"
	case StepReassign:
		return "REASSIGN"
	case StepTranslate:
		return "TRANSLATE"
	case StepActivate:
		return "ACTIVATE"
	case StepProfile:
		return "PROFILE"
	case StepCommit:
		return "COMMIT"
	default:
		return "UNKNOWN"
	}
}

// Channel is the bring-up record of one serial link.
type Channel struct {
	Index          uint8
	SerializerAddr uint8
	DeviceAddr     uint8

	// Profile names the downstream device profile to apply, if any.
	Profile string

	State State

	// FailedStep is the sub-step that failed when State is StateFailed.
	FailedStep Step
}

// Bit returns the channel's bit in link masks.
func (c Channel) Bit() uint8 {
	return 1 << c.Index
}

func (c Channel) String() string {
	return fmt.Sprintf("channel %d (serializer 0x%02x, device 0x%02x) %s", c.Index, c.SerializerAddr, c.DeviceAddr, c.State)
}

// Mask returns the link mask covering every channel in chs.
func Mask(chs []Channel) uint8 {
	var m uint8
	for _, c := range chs {
		m |= c.Bit()
	}
	return m
}
