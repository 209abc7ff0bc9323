// Package poll implements the bounded status poll used wherever bring-up
// waits for a hardware condition.
//
// Until reads a register, tests a predicate and sleeps between attempts, up
// to a fixed attempt budget. Budgets are declared once by the caller so the
// worst-case latency of every wait is known up front.
package poll

import (
	"errors"
	"fmt"
	"time"

	"github.com/gmsl-hub/gmsl-go/pkg/delay"
)

// ErrTimeout is matched by every *TimeoutError via errors.Is.
var ErrTimeout = errors.New("poll timeout")

// Budget bounds a poll: at most MaxAttempts reads with Interval between them.
type Budget struct {
	MaxAttempts int
	Interval    delay.Range
}

// Attempts returns the effective attempt budget (never less than 1).
func (b Budget) Attempts() int {
	if b.MaxAttempts < 1 {
		return 1
	}
	return b.MaxAttempts
}

// Worst returns the total sleep a fully exhausted poll spends between attempts.
func (b Budget) Worst() delay.Range {
	n := b.Attempts() - 1
	return delay.Range{
		Min: b.Interval.Min * time.Duration(n),
		Max: b.Interval.Max * time.Duration(n),
	}
}

// Result describes a completed poll.
type Result struct {
	// Attempts is the number of reads performed.
	Attempts int
	// Last is the last value read.
	Last uint8
}

// TimeoutError reports that a condition did not hold within its budget.
type TimeoutError struct {
	Name     string
	Attempts int
	Last     uint8
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: condition not met after %d attempts (last 0x%02x)", e.Name, e.Attempts, e.Last)
}

// Is makes errors.Is(err, ErrTimeout) true for any TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Predicate tests a register value.
type Predicate func(v uint8) bool

// Masked returns a Predicate that holds when v&mask == expected.
func Masked(mask, expected uint8) Predicate {
	return func(v uint8) bool {
		return v&mask == expected
	}
}

// Until polls read until pred holds or the budget is exhausted.
//
// It always performs at least one read and never more than
// budget.Attempts(). The sleeper is called only between attempts. A read
// error aborts immediately and is returned unchanged. On exhaustion the
// error is a *TimeoutError whose Attempts equals the budget.
func Until(name string, read func() (uint8, error), pred Predicate, budget Budget, sleeper delay.Sleeper) (Result, error) {
	limit := budget.Attempts()
	var res Result
	for res.Attempts < limit {
		if res.Attempts > 0 {
			sleeper.Sleep(budget.Interval)
		}
		v, err := read()
		res.Attempts++
		if err != nil {
			return res, err
		}
		res.Last = v
		if pred(v) {
			return res, nil
		}
	}
	return res, &TimeoutError{Name: name, Attempts: res.Attempts, Last: res.Last}
}
