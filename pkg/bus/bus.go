package bus

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/gmsl-hub/gmsl-go/pkg/log"
)

// Bus serializes register transactions on one control bus.
type Bus struct {
	mu   sync.Mutex
	conn i2c.Bus

	traceMu   sync.RWMutex
	trace     log.Logger
	sessionID string

	now func() time.Time
}

// Option configures a Bus.
type Option func(*Bus)

// WithTraceLogger attaches a trace logger. Events are tagged with sessionID.
func WithTraceLogger(l log.Logger, sessionID string) Option {
	return func(b *Bus) {
		b.trace = l
		b.sessionID = sessionID
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		b.now = now
	}
}

// New creates a Bus on top of conn.
func New(conn i2c.Bus, opts ...Option) *Bus {
	b := &Bus{
		conn: conn,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetTraceLogger replaces the trace logger and session tag.
// Pass nil to disable tracing.
func (b *Bus) SetTraceLogger(l log.Logger, sessionID string) {
	b.traceMu.Lock()
	defer b.traceMu.Unlock()
	b.trace = l
	b.sessionID = sessionID
}

// SetSpeed sets the bus clock.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.SetSpeed(f)
}

// String returns the underlying bus name.
func (b *Bus) String() string {
	return b.conn.String()
}

// Device returns a proxy for the chip at addr.
func (b *Bus) Device(name string, addr uint8) *Device {
	return &Device{bus: b, name: name, addr: addr}
}

// Trace records a trace event, filling in the timestamp and session id.
// It is a no-op when no trace logger is attached.
func (b *Bus) Trace(ev log.Event) {
	b.traceMu.RLock()
	l, session := b.trace, b.sessionID
	b.traceMu.RUnlock()

	if l == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = b.now()
	}
	ev.SessionID = session
	l.Log(ev)
}

// tx performs one bus transaction with the bus lock held.
func (b *Bus) tx(addr uint8, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.Tx(uint16(addr), w, r)
}
