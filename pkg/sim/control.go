package sim

// Inspection and fault-injection helpers for tests and the CLI simulator.

// HubReg returns the stored value of a hub register. Status registers are
// returned as a bus read would see them, without consuming pending reads.
func (b *Board) HubReg(reg uint8) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	saved := b.pending[reg]
	delete(b.pending, reg)
	v := b.readHub(reg)
	if saved > 0 {
		b.pending[reg] = saved
	}
	return v
}

// SerializerAddr returns the current address of the serializer on link.
func (b *Board) SerializerAddr(link int) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.links[link].serAddr
}

// SerializerReg returns a serializer register on link.
func (b *Board) SerializerReg(link int, reg uint8) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.links[link].serRegs[reg]
}

// SerializerResets returns how many reset pulses link's serializer received.
func (b *Board) SerializerResets(link int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.links[link].resets
}

// DeviceAddr returns the bus address the device on link answers at.
func (b *Board) DeviceAddr(link int) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	l := b.links[link]
	if src, ok := l.translated(); ok {
		return src
	}
	return l.devAddr
}

// DeviceWrites returns the register writes the device on link received.
func (b *Board) DeviceWrites(link int) []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Write, len(b.links[link].devWrites))
	copy(out, b.links[link].devWrites)
	return out
}

// Collisions returns the number of transactions more than one chip answered.
func (b *Board) Collisions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.collisions
}

// Transactions returns the number of bus transactions attempted.
func (b *Board) Transactions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txCount
}

// SetLockLoss forces the link-lock and frame-sync status bits clear.
func (b *Board) SetLockLoss(lost bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lockLoss = lost
}

// SetFrameSyncLoss forces the frame-sync status bit clear.
func (b *Board) SetFrameSyncLoss(lost bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frameSyncLoss = lost
}

// SetVideoLoss clears link's video-detect bit.
func (b *Board) SetVideoLoss(link int, lost bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.links[link].videoLoss = lost
}

// DelayStatus makes the next n bus reads of a hub register return 0,
// modelling hardware that needs time to report a condition.
func (b *Board) DelayStatus(reg uint8, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[reg] = n
}

// FailHubWrite makes writes to a hub register fail with err.
func (b *Board) FailHubWrite(reg uint8, err error) {
	b.addFault(fault{target: targetHub, link: -1, reg: uint16(reg), err: err})
}

// FailSerializerWrite makes writes to a register of link's serializer fail.
func (b *Board) FailSerializerWrite(link int, reg uint8, err error) {
	b.addFault(fault{target: targetSerializer, link: link, reg: uint16(reg), err: err})
}

// FailDeviceWrite makes writes to a register of link's device fail.
func (b *Board) FailDeviceWrite(link int, reg uint16, err error) {
	b.addFault(fault{target: targetDevice, link: link, reg: reg, err: err})
}

// ClearFaults removes all injected write faults and status overrides.
func (b *Board) ClearFaults() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = nil
	b.lockLoss = false
	b.frameSyncLoss = false
	b.pending = make(map[uint8]int)
	for _, l := range b.links {
		l.videoLoss = false
	}
}

func (b *Board) addFault(f fault) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = append(b.faults, f)
}
