package sim

// Hub registers the model derives or inspects.
const (
	hubLinkEnable  = 0x00
	hubControlChan = 0x0a
	hubLock        = 0x27
	hubFrameSync   = 0x31
	hubVideoDetect = 0x49
)

// Serializer registers the model acts on.
const (
	serAddress     = 0x00
	serMainControl = 0x04
	serI2CSource   = 0x09
	serI2CDest     = 0x0a
	serReset       = 0x0e

	serEnable = 1 << 7
)

// Power-on defaults.
const (
	DefaultHubAddr        uint8 = 0x48
	DefaultSerializerAddr uint8 = 0x40
	DefaultDeviceAddr     uint8 = 0x5d
)

// powerOnControlChan has every control channel enabled, so all serializers
// are reachable at the shared default address until the hub is configured.
const powerOnControlChan = 0xff
