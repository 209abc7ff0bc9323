package commands

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gmsl-hub/gmsl-go/pkg/log"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	var events []log.Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		events = append(events, event)
	}
	return events
}

func TestFilterBySessionID(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, SessionID: "sess-1", Category: log.CategoryTransaction},
		{Timestamp: ts, SessionID: "sess-2", Category: log.CategoryTransaction},
		{Timestamp: ts, SessionID: "sess-1", Category: log.CategoryTransaction},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.glog")

	var out bytes.Buffer
	err := RunFilter(path, FilterOptions{Output: outPath, SessionID: "sess-1"}, &out)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	got := readAll(t, outPath)
	if len(got) != 2 {
		t.Errorf("expected 2 events, got %d", len(got))
	}
	for _, e := range got {
		if e.SessionID != "sess-1" {
			t.Errorf("expected sess-1, got %s", e.SessionID)
		}
	}
	if !strings.Contains(out.String(), "Filtered 2 events") {
		t.Errorf("expected summary line, got: %s", out.String())
	}
}

func TestFilterByTimeRange(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: base, SessionID: "early"},
		{Timestamp: base.Add(30 * time.Minute), SessionID: "middle"},
		{Timestamp: base.Add(2 * time.Hour), SessionID: "late"},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.glog")

	err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: "2026-01-28T10:15:00Z",
		TimeEnd:   "2026-01-28T11:00:00Z",
	}, io.Discard)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	got := readAll(t, outPath)
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].SessionID != "middle" {
		t.Errorf("expected middle, got %s", got[0].SessionID)
	}
}

func TestFilterByChannelAndAddr(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	ser0 := registerEvent(ts, log.DirectionWrite, "serializer", 0x40, 0x00, 0x82)
	ser0.Channel = log.ChannelRef(0)
	ser1 := registerEvent(ts, log.DirectionWrite, "serializer", 0x40, 0x00, 0x84)
	ser1.Channel = log.ChannelRef(1)
	moved := registerEvent(ts, log.DirectionWrite, "serializer", 0x42, 0x04, 0x47)
	moved.Channel = log.ChannelRef(1)
	hubEv := registerEvent(ts, log.DirectionWrite, "hub", 0x48, 0x0a, 0x22)

	path := createTestLogFile(t, []log.Event{ser0, ser1, moved, hubEv})

	outPath := filepath.Join(t.TempDir(), "ch1.glog")
	if err := RunFilter(path, FilterOptions{Output: outPath, Channel: "1"}, io.Discard); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if got := readAll(t, outPath); len(got) != 2 {
		t.Errorf("channel 1: expected 2 events, got %d", len(got))
	}

	outPath = filepath.Join(t.TempDir(), "addr.glog")
	if err := RunFilter(path, FilterOptions{Output: outPath, Addr: "0x40"}, io.Discard); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if got := readAll(t, outPath); len(got) != 2 {
		t.Errorf("addr 0x40: expected 2 events, got %d", len(got))
	}
}

func TestFilterCommandByLayer(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Layer: log.LayerBus},
		{Timestamp: ts, Layer: log.LayerHub},
		{Timestamp: ts, Layer: log.LayerSequencer},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.glog")

	err := RunFilter(path, FilterOptions{Output: outPath, Layer: "hub"}, io.Discard)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	got := readAll(t, outPath)
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Layer != log.LayerHub {
		t.Errorf("expected HUB layer, got %s", got[0].Layer)
	}
}

func TestFilterRejectsBadOptions(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{{Timestamp: ts}})

	tests := []FilterOptions{
		{TimeStart: "yesterday"},
		{TimeEnd: "tomorrow"},
		{Layer: "wire"},
		{Direction: "in"},
		{Category: "message"},
		{Channel: "4"},
		{Addr: "0x80"},
	}
	for _, opts := range tests {
		opts.Output = filepath.Join(t.TempDir(), "out.glog")
		if err := RunFilter(path, opts, io.Discard); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}
