package bus

import (
	"github.com/gmsl-hub/gmsl-go/pkg/log"
)

// Device is a proxy handle for one chip on the bus.
// A Device is owned by a single bring-up routine and is not safe for
// concurrent Rebind; transactions themselves are serialized by the Bus.
type Device struct {
	bus     *Bus
	name    string
	addr    uint8
	channel *uint8
}

// Name returns the device name used in errors and traces.
func (d *Device) Name() string { return d.name }

// Addr returns the address transactions are currently sent to.
func (d *Device) Addr() uint8 { return d.addr }

// Bus returns the bus this device sits on.
func (d *Device) Bus() *Bus { return d.bus }

// Rebind points the proxy at a new address after the chip has moved.
func (d *Device) Rebind(addr uint8) {
	d.addr = addr
}

// ForChannel tags trace events of this device with a channel index.
func (d *Device) ForChannel(index uint8) *Device {
	d.channel = log.ChannelRef(index)
	return d
}

// Write8 writes an 8-bit value to an 8-bit register.
func (d *Device) Write8(reg, val uint8) error {
	err := d.bus.tx(d.addr, []byte{reg, val}, nil)
	return d.done(OpWrite, uint16(reg), 1, uint16(val), 1, err)
}

// Read8 reads an 8-bit register.
func (d *Device) Read8(reg uint8) (uint8, error) {
	r := make([]byte, 1)
	err := d.bus.tx(d.addr, []byte{reg}, r)
	if err = d.done(OpRead, uint16(reg), 1, uint16(r[0]), 1, err); err != nil {
		return 0, err
	}
	return r[0], nil
}

// WriteWide8 writes an 8-bit value to a 16-bit register.
func (d *Device) WriteWide8(reg uint16, val uint8) error {
	err := d.bus.tx(d.addr, []byte{byte(reg >> 8), byte(reg), val}, nil)
	return d.done(OpWrite, reg, 2, uint16(val), 1, err)
}

// WriteWide16 writes a 16-bit value to a 16-bit register, big-endian.
func (d *Device) WriteWide16(reg, val uint16) error {
	err := d.bus.tx(d.addr, []byte{byte(reg >> 8), byte(reg), byte(val >> 8), byte(val)}, nil)
	return d.done(OpWrite, reg, 2, val, 2, err)
}

// ReadWide8 reads an 8-bit value from a 16-bit register.
func (d *Device) ReadWide8(reg uint16) (uint8, error) {
	r := make([]byte, 1)
	err := d.bus.tx(d.addr, []byte{byte(reg >> 8), byte(reg)}, r)
	if err = d.done(OpRead, reg, 2, uint16(r[0]), 1, err); err != nil {
		return 0, err
	}
	return r[0], nil
}

// ReadWide16 reads a 16-bit value from a 16-bit register, big-endian.
func (d *Device) ReadWide16(reg uint16) (uint16, error) {
	r := make([]byte, 2)
	err := d.bus.tx(d.addr, []byte{byte(reg >> 8), byte(reg)}, r)
	v := uint16(r[0])<<8 | uint16(r[1])
	if err = d.done(OpRead, reg, 2, v, 2, err); err != nil {
		return 0, err
	}
	return v, nil
}

// done traces a finished transaction and wraps a failure in a BusError.
func (d *Device) done(op Op, reg uint16, regWidth uint8, val uint16, valWidth uint8, err error) error {
	ev := log.Event{
		Direction: op.direction(),
		Layer:     log.LayerBus,
		Category:  log.CategoryTransaction,
		Device:    d.name,
		Addr:      d.addr,
		Channel:   d.channel,
		Register: &log.RegisterEvent{
			Reg:        reg,
			RegWidth:   regWidth,
			Value:      val,
			ValueWidth: valWidth,
		},
	}
	if err != nil {
		ev.Category = log.CategoryError
		ev.Register.Err = err.Error()
		if op == OpRead {
			ev.Register.Value = 0
		}
	}
	d.bus.Trace(ev)

	if err != nil {
		return &BusError{Device: d.name, Addr: d.addr, Reg: reg, Op: op, Err: err}
	}
	return nil
}
