package sim

// Write is one register write observed by a downstream device.
type Write struct {
	Reg   uint16
	Value uint16
	Width int
}

// link models one serializer and the device behind it.
type link struct {
	index   int
	present bool

	serAddr uint8
	serRegs [256]uint8
	resets  int

	devAddr   uint8
	devRegs   map[uint16]uint16
	devWrites []Write

	videoLoss bool
}

func newLink(index int, present bool) *link {
	return &link{
		index:   index,
		present: present,
		serAddr: DefaultSerializerAddr,
		devAddr: DefaultDeviceAddr,
		devRegs: make(map[uint16]uint16),
	}
}

// serializing reports whether the serializer is sending video.
func (l *link) serializing() bool {
	return l.present && l.serRegs[serMainControl]&serEnable != 0
}

// translated returns the shared-bus address the device is mapped to, and
// whether translation is programmed.
func (l *link) translated() (uint8, bool) {
	src := l.serRegs[serI2CSource] >> 1
	dst := l.serRegs[serI2CDest] >> 1
	if src == 0 || dst != l.devAddr {
		return 0, false
	}
	return src, true
}

// deviceAnswers reports whether a bus address reaches the device.
func (l *link) deviceAnswers(addr uint8) bool {
	if src, ok := l.translated(); ok {
		return addr == src
	}
	return addr == l.devAddr
}

func (l *link) writeSerializer(reg uint8, vals []byte) {
	for i, v := range vals {
		r := reg + uint8(i)
		l.serRegs[r] = v
		switch r {
		case serAddress:
			l.serAddr = v >> 1
		case serReset:
			l.resets++
			l.serRegs[serMainControl] &^= serEnable
		}
	}
}

func (l *link) writeDevice(w []byte) {
	reg := uint16(w[0])<<8 | uint16(w[1])
	switch len(w) {
	case 3:
		l.devRegs[reg] = uint16(w[2])
		l.devWrites = append(l.devWrites, Write{Reg: reg, Value: uint16(w[2]), Width: 8})
	case 4:
		v := uint16(w[2])<<8 | uint16(w[3])
		l.devRegs[reg] = v
		l.devWrites = append(l.devWrites, Write{Reg: reg, Value: v, Width: 16})
	}
}

func (l *link) readDevice(reg uint16, r []byte) {
	v := l.devRegs[reg]
	switch len(r) {
	case 1:
		r[0] = byte(v)
	case 2:
		r[0], r[1] = byte(v>>8), byte(v)
	}
}
