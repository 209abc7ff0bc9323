// Package delay provides hardware settle delays as injectable values.
//
// Settle times are declared as ranges the way a driver would pass them to a
// range-sleep primitive. Production code sleeps through SystemSleeper; tests
// substitute a Recorder so bring-up runs instantly while the declared delays
// remain observable.
package delay

import (
	"fmt"
	"sync"
	"time"
)

// Range is a settle delay with a lower and upper bound.
// The hardware requires at least Min; Max bounds how long a caller may take.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Fixed returns a Range with Min == Max == d.
func Fixed(d time.Duration) Range {
	return Range{Min: d, Max: d}
}

// Between returns a Range from min to max.
func Between(min, max time.Duration) Range {
	return Range{Min: min, Max: max}
}

// IsZero reports whether the range requests no delay.
func (r Range) IsZero() bool {
	return r.Min <= 0 && r.Max <= 0
}

// Valid reports whether the range is non-negative and ordered.
func (r Range) Valid() bool {
	return r.Min >= 0 && r.Max >= r.Min
}

// String returns "5ms" for fixed ranges and "3.5ms-5ms" otherwise.
func (r Range) String() string {
	if r.Min == r.Max {
		return r.Min.String()
	}
	return fmt.Sprintf("%s-%s", r.Min, r.Max)
}

// Sleeper blocks the caller for a settle delay.
type Sleeper interface {
	Sleep(r Range)
}

// SystemSleeper sleeps the lower bound of each range using time.Sleep.
type SystemSleeper struct{}

// Sleep blocks for r.Min.
func (SystemSleeper) Sleep(r Range) {
	if r.Min > 0 {
		time.Sleep(r.Min)
	}
}

// Recorder is a Sleeper that records requested delays without sleeping.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	ranges []Range
}

// Sleep records r and returns immediately.
func (r *Recorder) Sleep(d Range) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranges = append(r.ranges, d)
}

// Ranges returns a copy of the recorded delays in call order.
func (r *Recorder) Ranges() []Range {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Range, len(r.ranges))
	copy(out, r.ranges)
	return out
}

// Count returns the number of recorded delays.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ranges)
}

// Total returns the sum of the recorded lower bounds, which is the time a
// SystemSleeper would have spent.
func (r *Recorder) Total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, d := range r.ranges {
		total += d.Min
	}
	return total
}

// Reset discards all recorded delays.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranges = nil
}

var (
	_ Sleeper = SystemSleeper{}
	_ Sleeper = (*Recorder)(nil)
)
