package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at Debug level.
// Useful on a bench console when no trace file is wanted.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.Device != "" {
		attrs = append(attrs,
			slog.String("device", event.Device),
			slog.String("addr", fmt.Sprintf("0x%02x", event.Addr)),
		)
	}
	if event.Channel != nil {
		attrs = append(attrs, slog.Int("channel", int(*event.Channel)))
	}

	switch {
	case event.Register != nil:
		r := event.Register
		attrs = append(attrs,
			slog.String("direction", event.Direction.String()),
			slog.String("reg", formatHex(r.Reg, r.RegWidth)),
			slog.String("value", formatHex(r.Value, r.ValueWidth)),
		)
		if r.Err != "" {
			attrs = append(attrs, slog.String("error", r.Err))
		}
	case event.Poll != nil:
		p := event.Poll
		attrs = append(attrs,
			slog.String("poll", p.Name),
			slog.String("reg", fmt.Sprintf("0x%02x", p.Reg)),
			slog.Int("attempts", p.Attempts),
			slog.Int("max_attempts", p.MaxAttempts),
			slog.String("last", fmt.Sprintf("0x%02x", p.Last)),
			slog.Bool("satisfied", p.Satisfied),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Step != "" {
			attrs = append(attrs, slog.String("step", event.StateChange.Step))
		}
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Step != "" {
			attrs = append(attrs, slog.String("step", event.Error.Step))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "bus trace", attrs...)
}

// formatHex renders v with two hex digits per byte of width.
func formatHex(v uint16, width uint8) string {
	if width == 2 {
		return fmt.Sprintf("0x%04x", v)
	}
	return fmt.Sprintf("0x%02x", v)
}

var _ Logger = (*SlogAdapter)(nil)
