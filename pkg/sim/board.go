package sim

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

var (
	// ErrNoAck is returned when no chip answers an address.
	ErrNoAck = errors.New("sim: no acknowledge")

	// ErrCollision is returned when more than one chip answers an address.
	ErrCollision = errors.New("sim: address collision")
)

// Board is a simulated hub board. It is safe for concurrent use.
type Board struct {
	mu sync.Mutex

	name    string
	hubAddr uint8
	speed   physic.Frequency

	hub   [256]uint8
	links [4]*link

	collisions int
	txCount    int

	lockLoss      bool
	frameSyncLoss bool
	pending       map[uint8]int
	faults        []fault
}

type target uint8

const (
	targetHub target = iota
	targetSerializer
	targetDevice
)

type fault struct {
	target target
	link   int
	reg    uint16
	err    error
}

// Option configures a Board.
type Option func(*Board)

// WithHubAddr sets the hub's bus address.
func WithHubAddr(addr uint8) Option {
	return func(b *Board) { b.hubAddr = addr }
}

// WithCameras marks which links have a serializer and device attached.
func WithCameras(mask uint8) Option {
	return func(b *Board) {
		for i, l := range b.links {
			l.present = mask&(1<<i) != 0
		}
	}
}

// WithName sets the bus name reported by String.
func WithName(name string) Option {
	return func(b *Board) { b.name = name }
}

// NewBoard returns a board in its power-on state with cameras on all four
// links.
func NewBoard(opts ...Option) *Board {
	b := &Board{
		name:    "sim",
		hubAddr: DefaultHubAddr,
		pending: make(map[uint8]int),
	}
	for i := range b.links {
		b.links[i] = newLink(i, true)
	}
	b.hub[hubControlChan] = powerOnControlChan
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// String implements i2c.Bus.
func (b *Board) String() string {
	return b.name
}

// SetSpeed implements i2c.Bus.
func (b *Board) SetSpeed(f physic.Frequency) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.speed = f
	return nil
}

// Speed returns the last bus speed set.
func (b *Board) Speed() physic.Frequency {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.speed
}

// Tx implements i2c.Bus. A transaction with a non-empty w and r is a write
// of the register address followed by a repeated-start read.
func (b *Board) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.txCount++

	if addr > 0x7f || len(w) == 0 {
		return ErrNoAck
	}
	a := uint8(addr)

	if a == b.hubAddr {
		return b.hubTx(w, r)
	}

	var sers, devs []*link
	for _, l := range b.reachable() {
		if l.serAddr == a {
			sers = append(sers, l)
		}
		if l.deviceAnswers(a) {
			devs = append(devs, l)
		}
	}
	switch n := len(sers) + len(devs); {
	case n == 0:
		return ErrNoAck
	case n > 1:
		b.collisions++
		return fmt.Errorf("%w at 0x%02x (%d responders)", ErrCollision, a, n)
	}

	if len(sers) == 1 {
		return b.serializerTx(sers[0], w, r)
	}
	return b.deviceTx(devs[0], w, r)
}

// reachable returns links whose forward and reverse control channels are
// both enabled at the hub.
func (b *Board) reachable() []*link {
	cc := b.hub[hubControlChan]
	var out []*link
	for i, l := range b.links {
		if !l.present {
			continue
		}
		if cc&(1<<(i+4)) != 0 && cc&(1<<i) != 0 {
			out = append(out, l)
		}
	}
	return out
}

func (b *Board) hubTx(w, r []byte) error {
	reg := w[0]
	if len(w) > 1 {
		if err := b.fault(targetHub, -1, uint16(reg)); err != nil {
			return err
		}
		copy(b.hub[reg:], w[1:])
	}
	for i := range r {
		r[i] = b.readHub(reg + uint8(i))
	}
	return nil
}

func (b *Board) serializerTx(l *link, w, r []byte) error {
	reg := w[0]
	if len(w) > 1 {
		if err := b.fault(targetSerializer, l.index, uint16(reg)); err != nil {
			return err
		}
		l.writeSerializer(reg, w[1:])
	}
	for i := range r {
		r[i] = l.serRegs[reg+uint8(i)]
	}
	return nil
}

func (b *Board) deviceTx(l *link, w, r []byte) error {
	if len(w) < 2 {
		return ErrNoAck
	}
	reg := uint16(w[0])<<8 | uint16(w[1])
	if len(w) > 2 {
		if err := b.fault(targetDevice, l.index, reg); err != nil {
			return err
		}
		l.writeDevice(w)
	}
	if len(r) > 0 {
		l.readDevice(reg, r)
	}
	return nil
}

func (b *Board) fault(t target, linkIndex int, reg uint16) error {
	for _, f := range b.faults {
		if f.target == t && f.link == linkIndex && f.reg == reg {
			return f.err
		}
	}
	return nil
}

// readHub returns a hub register, deriving status registers from link state.
func (b *Board) readHub(reg uint8) uint8 {
	if n := b.pending[reg]; n > 0 {
		b.pending[reg] = n - 1
		return 0
	}

	switch reg {
	case hubVideoDetect:
		return b.hub[reg]&0xf0 | b.videoDetect()
	case hubLock:
		v := b.hub[reg] &^ 0x80
		if b.locked() {
			v |= 0x80
		}
		return v
	case hubFrameSync:
		v := b.hub[reg] &^ 0x40
		if b.locked() && !b.frameSyncLoss {
			v |= 0x40
		}
		return v
	}
	return b.hub[reg]
}

// videoDetect is the per-link video-detect pattern for enabled links.
func (b *Board) videoDetect() uint8 {
	enabled := b.hub[hubLinkEnable] & 0x0f
	var v uint8
	for i, l := range b.links {
		if enabled&(1<<i) != 0 && l.serializing() && !l.videoLoss {
			v |= 1 << i
		}
	}
	return v
}

// locked reports whether every enabled link is serializing.
func (b *Board) locked() bool {
	if b.lockLoss {
		return false
	}
	enabled := b.hub[hubLinkEnable] & 0x0f
	if enabled == 0 {
		return false
	}
	for i, l := range b.links {
		if enabled&(1<<i) != 0 && !l.serializing() {
			return false
		}
	}
	return true
}

var _ i2c.Bus = (*Board)(nil)
