package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gmsl-hub/gmsl-go/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Sessions          map[string]*SessionStats
	Channels          map[uint8]*ChannelStats
	Polls             map[string]*PollStats
	FailedTx          int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single bring-up session.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
}

// ChannelStats holds statistics for a single channel.
type ChannelStats struct {
	Transactions int
	LastState    string
	FailedStep   string
}

// PollStats counts the outcomes of one named status poll.
type PollStats struct {
	Satisfied int
	TimedOut  int
	Attempts  int
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Sessions:          make(map[string]*SessionStats),
		Channels:          make(map[uint8]*ChannelStats),
		Polls:             make(map[string]*PollStats),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	if event.Register != nil {
		s.EventsByDirection[event.Direction]++
		if event.Register.Err != "" {
			s.FailedTx++
		}
	}

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	sess, ok := s.Sessions[event.SessionID]
	if !ok {
		sess = &SessionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Sessions[event.SessionID] = sess
	}
	sess.Events++
	if event.Timestamp.After(sess.LastSeen) {
		sess.LastSeen = event.Timestamp
	}

	if event.Channel != nil {
		ch, ok := s.Channels[*event.Channel]
		if !ok {
			ch = &ChannelStats{}
			s.Channels[*event.Channel] = ch
		}
		if event.Register != nil {
			ch.Transactions++
		}
		if sc := event.StateChange; sc != nil && sc.Entity == log.StateEntityChannel {
			ch.LastState = sc.NewState
			if sc.Step != "" && sc.NewState == "FAILED" {
				ch.FailedStep = sc.Step
			}
		}
	}

	if p := event.Poll; p != nil {
		ps, ok := s.Polls[p.Name]
		if !ok {
			ps = &PollStats{}
			s.Polls[p.Name] = ps
		}
		ps.Attempts += p.Attempts
		if p.Satisfied {
			ps.Satisfied++
		} else {
			ps.TimedOut++
		}
	}

	if event.Error != nil {
		s.Errors++
	}
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== GMSL Bring-up Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerBus, log.LayerHub, log.LayerSequencer} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryTransaction, log.CategoryPoll, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Transactions by Direction:")
	for _, dir := range []log.Direction{log.DirectionRead, log.DirectionWrite} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	if stats.FailedTx > 0 {
		fmt.Fprintf(w, "  %-12s %d\n", "FAILED:", stats.FailedTx)
	}
	fmt.Fprintln(w)

	if len(stats.Channels) > 0 {
		fmt.Fprintln(w, "Channels:")
		idx := make([]int, 0, len(stats.Channels))
		for i := range stats.Channels {
			idx = append(idx, int(i))
		}
		sort.Ints(idx)
		for _, i := range idx {
			ch := stats.Channels[uint8(i)]
			fmt.Fprintf(w, "  [%d] %d transactions", i, ch.Transactions)
			if ch.LastState != "" {
				fmt.Fprintf(w, ", state %s", ch.LastState)
			}
			if ch.FailedStep != "" {
				fmt.Fprintf(w, " at %s", ch.FailedStep)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	if len(stats.Polls) > 0 {
		fmt.Fprintln(w, "Polls:")
		names := make([]string, 0, len(stats.Polls))
		for name := range stats.Polls {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := stats.Polls[name]
			fmt.Fprintf(w, "  %-14s %d satisfied, %d timed out, %d reads\n", name+":", p.Satisfied, p.TimedOut, p.Attempts)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessionInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessionInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessionInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenSessionID(s.id), s.stats.Events, duration)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
