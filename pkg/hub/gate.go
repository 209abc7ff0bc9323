package hub

import (
	"errors"

	"github.com/gmsl-hub/gmsl-go/pkg/log"
	"github.com/gmsl-hub/gmsl-go/pkg/poll"
)

// StreamOn waits for frame-sync lock and then enables the aggregated output.
//
// If frame sync does not lock within budget the output is explicitly
// disabled and the *poll.TimeoutError is returned; a failure of that
// disabling write is joined to it. The check runs on every call.
func (h *Hub) StreamOn() error {
	if h.enabled == 0 {
		return ErrNoLinks
	}

	_, err := h.await("frame-sync", RegFrameSync, FrameSyncLocked, FrameSyncLocked, h.cfg.FrameSync)
	if err != nil {
		var te *poll.TimeoutError
		if errors.As(err, &te) {
			if werr := h.setOutput(false); werr != nil {
				return errors.Join(err, werr)
			}
		}
		return err
	}
	return h.setOutput(true)
}

// StreamOff disables the aggregated output.
func (h *Hub) StreamOff() error {
	return h.setOutput(false)
}

func (h *Hub) setOutput(on bool) error {
	if err := h.dev.Write8(RegOutput, h.cfg.outputValue(on)); err != nil {
		return err
	}

	old := h.streaming
	h.streaming = on
	if old != on {
		h.dev.Bus().Trace(log.Event{
			Direction: log.DirectionWrite,
			Layer:     log.LayerHub,
			Category:  log.CategoryState,
			Device:    h.dev.Name(),
			Addr:      h.dev.Addr(),
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityStream,
				OldState: streamState(old),
				NewState: streamState(on),
			},
		})
		h.debugLog("output "+streamState(on), "mask", h.enabled)
	}
	return nil
}

func streamState(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
