// Package commands implements the gmsl-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gmsl-hub/gmsl-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category
	Channel   *uint8
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] DIRECTION LAYER target Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)

	var typeLabel string
	switch {
	case event.Register != nil:
		typeLabel = "Register"
	case event.Poll != nil:
		typeLabel = "Poll"
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	// Direction only means something for register transactions.
	dir := "-"
	if event.Register != nil {
		dir = event.Direction.String()
	}

	fmt.Fprintf(w, "%s [session:%s] %-5s %s %s%s %s\n",
		ts, session, dir, event.Layer.String(), formatTarget(event), formatChannel(event.Channel), typeLabel)

	switch {
	case event.Register != nil:
		formatRegisterDetails(w, event.Register)
	case event.Poll != nil:
		formatPollDetails(w, event.Poll)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatTarget(event log.Event) string {
	if event.Device == "" {
		return "-"
	}
	return fmt.Sprintf("%s@0x%02x", event.Device, event.Addr)
}

func formatChannel(ch *uint8) string {
	if ch == nil {
		return ""
	}
	return fmt.Sprintf(" ch%d", *ch)
}

// hexWidth formats v as hex zero-padded to width bytes.
func hexWidth(v uint16, width uint8) string {
	if width == 2 {
		return fmt.Sprintf("0x%04x", v)
	}
	return fmt.Sprintf("0x%02x", v)
}

// formatRegisterDetails writes register transaction details.
func formatRegisterDetails(w io.Writer, reg *log.RegisterEvent) {
	fmt.Fprintf(w, "  Reg: %s  Value: %s\n", hexWidth(reg.Reg, reg.RegWidth), hexWidth(reg.Value, reg.ValueWidth))
	if reg.Err != "" {
		fmt.Fprintf(w, "  Err: %s\n", reg.Err)
	}
}

// formatPollDetails writes status poll details.
func formatPollDetails(w io.Writer, p *log.PollEvent) {
	outcome := "timeout"
	if p.Satisfied {
		outcome = "satisfied"
	}
	fmt.Fprintf(w, "  %s: %s after %d/%d attempts\n", p.Name, outcome, p.Attempts, p.MaxAttempts)
	fmt.Fprintf(w, "  Reg: 0x%02x  Mask: 0x%02x  Expected: 0x%02x  Last: 0x%02x\n",
		p.Reg, p.Mask, p.Expected, p.Last)
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Step != "" {
		fmt.Fprintf(w, "  Step: %s\n", sc.Step)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Step != "" {
		fmt.Fprintf(w, "  Step: %s\n", err.Step)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

func (f ViewFilter) matches(e log.Event) bool {
	if f.Layer != nil && e.Layer != *f.Layer {
		return false
	}
	if f.Direction != nil && e.Direction != *f.Direction {
		return false
	}
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.Channel != nil && (e.Channel == nil || *e.Channel != *f.Channel) {
		return false
	}
	return true
}

// filterEvents returns events matching the filter criteria.
func filterEvents(events []log.Event, filter ViewFilter) []log.Event {
	var result []log.Event
	for _, e := range events {
		if filter.matches(e) {
			result = append(result, e)
		}
	}
	return result
}

// parseEnum matches s case-insensitively against the String form of values.
func parseEnum[T interface {
	~uint8
	String() string
}](kind, s string, values ...T) (T, error) {
	names := make([]string, len(values))
	for i, v := range values {
		if strings.EqualFold(s, v.String()) {
			return v, nil
		}
		names[i] = strings.ToLower(v.String())
	}
	return 0, fmt.Errorf("invalid %s: %s (must be one of %s)", kind, s, strings.Join(names, ", "))
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	return parseLayer(s)
}

func parseLayer(s string) (log.Layer, error) {
	return parseEnum("layer", s, log.LayerBus, log.LayerHub, log.LayerSequencer)
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	return parseDirection(s)
}

func parseDirection(s string) (log.Direction, error) {
	return parseEnum("direction", s, log.DirectionRead, log.DirectionWrite)
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

func parseCategory(s string) (log.Category, error) {
	return parseEnum("category", s, log.CategoryTransaction, log.CategoryPoll, log.CategoryState, log.CategoryError)
}

// ParseChannelFlag parses a channel index (0-3).
func ParseChannelFlag(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n > 3 {
		return 0, fmt.Errorf("invalid channel: %s (must be 0-3)", s)
	}
	return uint8(n), nil
}

// ParseAddrFlag parses a 7-bit bus address in decimal or 0x-prefixed hex.
func ParseAddrFlag(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil || n > 0x7f {
		return 0, fmt.Errorf("invalid address: %s (must be a 7-bit address)", s)
	}
	return uint8(n), nil
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if !filter.matches(event) {
			continue
		}
		formatEvent(output, event)
	}

	return nil
}
