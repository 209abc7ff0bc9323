package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func decodeJSONLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON output %q: %v", buf.String(), err)
	}
	return m
}

func TestSlogAdapterRegisterEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a := NewSlogAdapter(logger)

	a.Log(Event{
		Timestamp: time.Now(),
		SessionID: "s-1",
		Direction: DirectionWrite,
		Layer:     LayerBus,
		Category:  CategoryTransaction,
		Device:    "device",
		Addr:      0x5d,
		Channel:   ChannelRef(1),
		Register:  &RegisterEvent{Reg: 0xfc00, RegWidth: 2, Value: 0x2800, ValueWidth: 2},
	})

	m := decodeJSONLine(t, &buf)
	want := map[string]any{
		"msg":       "bus trace",
		"session":   "s-1",
		"direction": "WRITE",
		"device":    "device",
		"addr":      "0x5d",
		"reg":       "0xfc00",
		"value":     "0x2800",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s: got %v, want %v", k, m[k], v)
		}
	}
	if m["channel"] != float64(1) {
		t.Errorf("channel: got %v, want 1", m["channel"])
	}
}

func TestSlogAdapterPollEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	NewSlogAdapter(logger).Log(Event{
		Layer:    LayerHub,
		Category: CategoryPoll,
		Poll:     &PollEvent{Name: "link-lock", Reg: 0x27, Attempts: 3, MaxAttempts: 10, Last: 0x80, Satisfied: true},
	})

	m := decodeJSONLine(t, &buf)
	if m["poll"] != "link-lock" {
		t.Errorf("poll: got %v, want link-lock", m["poll"])
	}
	if m["satisfied"] != true {
		t.Errorf("satisfied: got %v, want true", m["satisfied"])
	}
	if m["last"] != "0x80" {
		t.Errorf("last: got %v, want 0x80", m["last"])
	}
}

func TestSlogAdapterSuppressedAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	NewSlogAdapter(logger).Log(Event{Category: CategoryError, Error: &ErrorEventData{Message: "x"}})
	if buf.Len() != 0 {
		t.Errorf("expected no output at Info level, got %q", buf.String())
	}
}
