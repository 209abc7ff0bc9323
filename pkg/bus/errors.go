package bus

import (
	"fmt"

	"github.com/gmsl-hub/gmsl-go/pkg/log"
)

// Op is the kind of register transaction.
type Op uint8

const (
	OpRead Op = iota
	OpWrite
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return "unknown"
	}
}

func (o Op) direction() log.Direction {
	if o == OpWrite {
		return log.DirectionWrite
	}
	return log.DirectionRead
}

// BusError reports a failed register transaction.
type BusError struct {
	Device string
	Addr   uint8
	Reg    uint16
	Op     Op
	Err    error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus: %s %s@0x%02x reg 0x%02x: %v", e.Op, e.Device, e.Addr, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
