package log

import (
	"time"
)

// Event represents a bus trace event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies one bring-up controller instance (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates whether the bus was read or written.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Device names the proxy the event belongs to ("hub", "serializer", "device").
	Device string `cbor:"6,keyasint,omitempty"`

	// Addr is the 7-bit bus address the transaction targeted.
	Addr uint8 `cbor:"7,keyasint,omitempty"`

	// Channel is the channel index, when the event belongs to one channel.
	Channel *uint8 `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Register    *RegisterEvent    `cbor:"10,keyasint,omitempty"` // Bus layer
	Poll        *PollEvent        `cbor:"11,keyasint,omitempty"` // Hub status polls
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Channel/hub/stream state
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of a bus transaction.
type Direction uint8

const (
	// DirectionRead indicates a register read.
	DirectionRead Direction = 0
	// DirectionWrite indicates a register write.
	DirectionWrite Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionRead:
		return "READ"
	case DirectionWrite:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerBus is the register access layer.
	LayerBus Layer = 0
	// LayerHub is hub configuration, link monitoring and the frame-sync gate.
	LayerHub Layer = 1
	// LayerSequencer is the per-channel address reassignment sequencer.
	LayerSequencer Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerBus:
		return "BUS"
	case LayerHub:
		return "HUB"
	case LayerSequencer:
		return "SEQUENCER"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryTransaction indicates a completed register transaction.
	CategoryTransaction Category = 0
	// CategoryPoll indicates a bounded status poll.
	CategoryPoll Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event, including failed transactions.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransaction:
		return "TRANSACTION"
	case CategoryPoll:
		return "POLL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// RegisterEvent captures one register read or write.
type RegisterEvent struct {
	// Reg is the register address.
	Reg uint16 `cbor:"1,keyasint"`

	// RegWidth is the register address width in bytes (1 or 2).
	RegWidth uint8 `cbor:"2,keyasint"`

	// Value is the value written, or read back.
	Value uint16 `cbor:"3,keyasint"`

	// ValueWidth is the value width in bytes (1 or 2).
	ValueWidth uint8 `cbor:"4,keyasint"`

	// Err is the transaction error text for failed transactions.
	Err string `cbor:"5,keyasint,omitempty"`
}

// PollEvent captures the outcome of a bounded status poll.
type PollEvent struct {
	// Name identifies the condition being awaited ("video-detect", "link-lock", "frame-sync").
	Name string `cbor:"1,keyasint"`

	// Reg is the status register that was polled.
	Reg uint16 `cbor:"2,keyasint"`

	// Mask selects the bits compared against Expected.
	Mask uint8 `cbor:"3,keyasint"`

	// Expected is the value the masked register had to reach.
	Expected uint8 `cbor:"4,keyasint"`

	// Attempts is the number of register reads made.
	Attempts int `cbor:"5,keyasint"`

	// MaxAttempts is the attempt budget.
	MaxAttempts int `cbor:"6,keyasint"`

	// Last is the last observed register value.
	Last uint8 `cbor:"7,keyasint"`

	// Satisfied reports whether the condition held within budget.
	Satisfied bool `cbor:"8,keyasint,omitempty"`
}

// StateChangeEvent captures channel, hub and stream lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Step is the bring-up sub-step that caused the change (if any).
	Step string `cbor:"4,keyasint,omitempty"`

	// Reason for the change (if available).
	Reason string `cbor:"5,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityChannel indicates a channel lifecycle change.
	StateEntityChannel StateEntity = 0
	// StateEntityHub indicates a hub enable-mask or configuration change.
	StateEntityHub StateEntity = 1
	// StateEntityStream indicates the aggregated output was enabled or disabled.
	StateEntityStream StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityChannel:
		return "CHANNEL"
	case StateEntityHub:
		return "HUB"
	case StateEntityStream:
		return "STREAM"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Step is the bring-up sub-step that failed (if any).
	Step string `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}

// ChannelRef returns a pointer to a copy of index, for use in Event.Channel.
func ChannelRef(index uint8) *uint8 {
	return &index
}
