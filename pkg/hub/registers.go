package hub

// Hub register map.
const (
	RegLinkEnable   uint8 = 0x00
	RegControlChan  uint8 = 0x0a
	RegLinkOrder    uint8 = 0x0b
	RegSync         uint8 = 0x0c
	RegCSI          uint8 = 0x12
	RegOutput       uint8 = 0x15
	RegReverseChan  uint8 = 0x1c
	RegLock         uint8 = 0x27
	RegFrameSync    uint8 = 0x31
	RegI2CTiming    uint8 = 0x34
	RegVideoDetect  uint8 = 0x49
	RegLinkFaultCtl uint8 = 0x69
)

// RegLinkEnable fields.
const (
	LinkSelAuto uint8 = 7 << 5
)

// LinkEnable returns the forward-path enable bit of link n.
func LinkEnable(n uint8) uint8 { return 1 << n }

// RegControlChan fields.

// FwdCC returns the forward control-channel enable bit of link n.
func FwdCC(n uint8) uint8 { return 1 << (n + 4) }

// RevCC returns the reverse control-channel enable bit of link n.
func RevCC(n uint8) uint8 { return 1 << n }

// ControlChannels returns the RegControlChan value enabling both control
// channel directions for every link in mask.
func ControlChannels(mask uint8) uint8 {
	mask &= 0x0f
	return mask<<4 | mask
}

// RegSync fields.
const (
	HVEn  uint8 = 1 << 7
	DESel uint8 = 1 << 4
	InvVS uint8 = 1 << 3
	InvHS uint8 = 1 << 2

	HVSrcD18 uint8 = 0
	HVSrcD14 uint8 = 2
)

// EDCMode selects the serial link error detection and correction scheme.
type EDCMode uint8

const (
	EDC6BitParity EDCMode = 0
	EDC1BitParity EDCMode = 1
	EDC6BitCRC    EDCMode = 2
)

func (m EDCMode) bits() uint8 { return uint8(m) << 5 }

// String returns the mode name used in configuration files.
func (m EDCMode) String() string {
	switch m {
	case EDC6BitParity:
		return "6bit-parity"
	case EDC1BitParity:
		return "1bit-parity"
	case EDC6BitCRC:
		return "6bit-crc"
	default:
		return "unknown"
	}
}

// RegCSI fields.
const (
	CSIDBL uint8 = 1 << 5
	DBL    uint8 = 1 << 4
)

// CSILanes returns the lane-count field for n lanes (1-4).
func CSILanes(n int) uint8 { return uint8(n-1) << 6 }

// RegOutput fields.
const (
	VCType   uint8 = 1 << 4
	CSIOutEn uint8 = 1 << 3
	Resv15   uint8 = 0x03
)

// VC returns the virtual-channel field.
func VC(n uint8) uint8 { return n << 5 }

// RegReverseChan fields.
const (
	I2CSel uint8 = 1 << 2
	HIBW   uint8 = 1 << 1
	BWS    uint8 = 1 << 0
)

// HighImmunity returns the reverse-channel high-immunity bit of link n.
func HighImmunity(n uint8) uint8 { return 1 << (n + 4) }

// Status bits.
const (
	Locked          uint8 = 1 << 7
	FrameSyncLocked uint8 = 1 << 6
	VideoDetectMask uint8 = 0x0f
)

// RegI2CTiming fields.
const (
	I2CLocalAck uint8 = 1 << 7
)

// RegLinkFaultCtl fields.
const (
	LFLTBMonMasked uint8 = 1 << 7
	LockMonMasked  uint8 = 1 << 6
	AutoComebackEn uint8 = 1 << 5
	AutoMaskEn     uint8 = 1 << 4
)

// MaskLink returns the link-fault mask bit of link n.
func MaskLink(n uint8) uint8 { return 1 << n }
