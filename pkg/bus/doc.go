// Package bus provides register access over the shared control bus.
//
// A Bus wraps a periph.io I2C bus and guarantees a single transaction in
// flight. Device is a proxy handle for one chip at one 7-bit address; it
// offers 8-bit register access for the hub and serializers and 16-bit
// register access for downstream devices. Device.Rebind moves the handle
// after the chip's address has been changed.
//
// There are no retries at this layer: every failure is returned as a
// *BusError wrapping the underlying error unchanged.
package bus
