package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gmsl-hub/gmsl-go/pkg/log"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{
	"timestamp", "session_id", "direction", "layer", "category",
	"device", "addr", "channel", "type", "reg", "value", "detail",
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return cw.Error()
}

func csvRow(event log.Event) []string {
	eventType := "unknown"
	var reg, value, detail string
	switch {
	case event.Register != nil:
		eventType = "register"
		reg = hexWidth(event.Register.Reg, event.Register.RegWidth)
		value = hexWidth(event.Register.Value, event.Register.ValueWidth)
		detail = event.Register.Err
	case event.Poll != nil:
		eventType = "poll"
		reg = fmt.Sprintf("0x%02x", event.Poll.Reg)
		value = fmt.Sprintf("0x%02x", event.Poll.Last)
		detail = fmt.Sprintf("%s satisfied=%t attempts=%d", event.Poll.Name, event.Poll.Satisfied, event.Poll.Attempts)
	case event.StateChange != nil:
		eventType = "state"
		detail = event.StateChange.OldState + "->" + event.StateChange.NewState
	case event.Error != nil:
		eventType = "error"
		detail = event.Error.Message
	}

	addr := ""
	if event.Device != "" {
		addr = fmt.Sprintf("0x%02x", event.Addr)
	}
	channel := ""
	if event.Channel != nil {
		channel = strconv.Itoa(int(*event.Channel))
	}

	return []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.SessionID,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		event.Device,
		addr,
		channel,
		eventType,
		reg,
		value,
		detail,
	}
}
