// Command gmsl-log is a tool for viewing and analyzing bring-up trace files.
//
// Trace files are written by gmsl-bringup when run with the -trace-file flag.
// Each event records one register transaction, status poll, state change or
// error, tagged with the session, device proxy and channel it belongs to.
//
// Usage:
//
//	gmsl-log <command> [flags] <file.glog>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSONL or CSV format
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	gmsl-log view bringup.glog
//
//	# View only channel 2
//	gmsl-log view -channel 2 bringup.glog
//
//	# View only status polls
//	gmsl-log view -category poll bringup.glog
//
//	# Export to CSV
//	gmsl-log export -format csv -o bringup.csv bringup.glog
//
//	# Keep only traffic to the default serializer address
//	gmsl-log filter -addr 0x40 -o default-addr.glog bringup.glog
//
//	# Show statistics
//	gmsl-log stats bringup.glog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gmsl-hub/gmsl-go/cmd/gmsl-log/commands"
)

const usage = `gmsl-log - GMSL Bring-up Trace Analyzer

Usage:
  gmsl-log <command> [flags] <file.glog>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSONL or CSV format
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file

Use "gmsl-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// requirePath returns the single positional trace file argument.
func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gmsl-log view - View trace file in human-readable format

Usage:
  gmsl-log view [flags] <file.glog>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (bus, hub, sequencer)")
	direction := fs.String("direction", "", "Filter by direction (read, write)")
	category := fs.String("category", "", "Filter by category (transaction, poll, state, error)")
	channel := fs.String("channel", "", "Filter by channel index (0-3)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	var filter commands.ViewFilter

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fatal(err)
		}
		filter.Layer = &l
	}

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fatal(err)
		}
		filter.Direction = &d
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if *channel != "" {
		c, err := commands.ParseChannelFlag(*channel)
		if err != nil {
			fatal(err)
		}
		filter.Channel = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gmsl-log export - Export trace file to JSONL or CSV format

Usage:
  gmsl-log export [flags] <file.glog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gmsl-log filter - Filter trace file and write to new file

Usage:
  gmsl-log filter [flags] <file.glog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	sessionID := fs.String("session", "", "Filter by session ID")
	device := fs.String("device", "", "Filter by device proxy (hub, serializer, device)")
	addr := fs.String("addr", "", "Filter by 7-bit bus address (e.g. 0x40)")
	channel := fs.String("channel", "", "Filter by channel index (0-3)")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	layer := fs.String("layer", "", "Filter by layer (bus, hub, sequencer)")
	direction := fs.String("direction", "", "Filter by direction (read, write)")
	category := fs.String("category", "", "Filter by category (transaction, poll, state, error)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		SessionID: *sessionID,
		Device:    *device,
		Addr:      *addr,
		Channel:   *channel,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Layer:     *layer,
		Direction: *direction,
		Category:  *category,
	}

	if err := commands.RunFilter(path, opts, os.Stdout); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `gmsl-log stats - Show statistics about the trace file

Usage:
  gmsl-log stats <file.glog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}
