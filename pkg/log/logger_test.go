package log

import (
	"sync"
	"testing"
	"time"
)

// recordingLogger captures events for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestNoopLoggerZeroValue(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Log(Event{Timestamp: time.Now()})
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}
	m := NewMultiLogger(a, nil, b)

	m.Log(Event{Addr: 0x48})
	m.Log(Event{Addr: 0x40})

	if a.count() != 2 {
		t.Errorf("logger a: got %d events, want 2", a.count())
	}
	if b.count() != 2 {
		t.Errorf("logger b: got %d events, want 2", b.count())
	}
	if b.events[1].Addr != 0x40 {
		t.Errorf("order: got 0x%02x, want 0x40", b.events[1].Addr)
	}
}

func TestMultiLoggerEmpty(t *testing.T) {
	m := NewMultiLogger()
	m.Log(Event{})
}
