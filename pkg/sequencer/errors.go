package sequencer

import (
	"fmt"

	"github.com/gmsl-hub/gmsl-go/pkg/channel"
)

// StepError reports which channel and sub-step aborted a run.
type StepError struct {
	Channel uint8
	Step    channel.Step
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("channel %d: step %s: %v", e.Channel, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
