package log

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func createTestTrace(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.glog")
	l, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, ev := range events {
		l.Log(ev)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func readAll(t *testing.T, path string, f Filter) []Event {
	t.Helper()
	r, err := NewFilteredReader(path, f)
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer r.Close()

	var out []Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, ev)
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, SessionID: "a", Direction: DirectionWrite, Layer: LayerBus, Device: "hub", Addr: 0x48},
		{Timestamp: base.Add(time.Second), SessionID: "a", Direction: DirectionRead, Layer: LayerBus, Device: "serializer", Addr: 0x40, Channel: ChannelRef(0)},
		{Timestamp: base.Add(2 * time.Second), SessionID: "a", Layer: LayerSequencer, Category: CategoryState, Channel: ChannelRef(1)},
		{Timestamp: base.Add(3 * time.Second), SessionID: "b", Layer: LayerHub, Category: CategoryPoll, Device: "hub", Addr: 0x48},
	}
	path := createTestTrace(t, events)

	read := DirectionRead
	hubLayer := LayerHub
	state := CategoryState
	addr := uint8(0x48)
	ch1 := uint8(1)
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"session", Filter{SessionID: "b"}, 1},
		{"direction", Filter{Direction: &read}, 3},
		{"layer", Filter{Layer: &hubLayer}, 1},
		{"category", Filter{Category: &state}, 1},
		{"device", Filter{Device: "serializer"}, 1},
		{"addr", Filter{Addr: &addr}, 2},
		{"channel", Filter{Channel: &ch1}, 1},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"combined", Filter{SessionID: "a", Addr: &addr}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAll(t, path, tt.filter)
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.glog")); err == nil {
		t.Error("expected error opening missing file")
	}
}
