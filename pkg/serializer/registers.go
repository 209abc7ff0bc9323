package serializer

// Serializer register map.
const (
	RegAddress     uint8 = 0x00
	RegMainControl uint8 = 0x04
	RegConfig      uint8 = 0x07
	RegI2CSource   uint8 = 0x09
	RegI2CDest     uint8 = 0x0a
	RegReset       uint8 = 0x0e
	RegCrossbar    uint8 = 0x20
)

// RegMainControl bits.
const (
	FwdCCEn     uint8 = 1 << 0
	RevCCEn     uint8 = 1 << 1
	IntTypeUART uint8 = 1 << 2
	ClinkEn     uint8 = 1 << 6
	SerEn       uint8 = 1 << 7
)

// RegConfig bits.
const (
	HVEn uint8 = 1 << 2
	DBL  uint8 = 1 << 7
)

// ResetPulse is written to RegReset to reset the serial link.
const ResetPulse uint8 = 1 << 1

// Main control values used during bring-up.
const (
	// ConfigMode keeps the configuration link up with serialization off.
	ConfigMode = ClinkEn | IntTypeUART | RevCCEn | FwdCCEn
	// ActiveMode enables serialization with the control channels on.
	ActiveMode = SerEn | IntTypeUART | RevCCEn | FwdCCEn
	// StreamOn and StreamOff are written by SetStream.
	StreamOn  = SerEn | ClinkEn | RevCCEn | FwdCCEn
	StreamOff = ClinkEn | RevCCEn | FwdCCEn
)

// CrossbarBits is the number of parallel input bits routed by the crossbar.
const CrossbarBits = 24

// Crossbar returns the crossbar register for output bit n.
func Crossbar(n uint8) uint8 {
	return RegCrossbar + n
}

// AddrValue encodes a 7-bit address the way address registers hold it.
func AddrValue(addr uint8) uint8 {
	return addr << 1
}
