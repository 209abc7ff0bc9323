// Package sim is an in-memory model of a hub board: the hub, up to four
// serializers and the devices behind them, all on one simulated I2C bus.
//
// Board implements periph's i2c.Bus so the real bring-up code runs against
// it unchanged. Routing follows the hardware: a serializer is only reachable
// while its forward and reverse control channels are enabled at the hub, and
// two chips answering the same address is a collision. Status registers are
// derived from link state, and faults can be injected per register.
package sim
