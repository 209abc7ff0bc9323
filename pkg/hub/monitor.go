package hub

import (
	"errors"

	"github.com/gmsl-hub/gmsl-go/pkg/log"
	"github.com/gmsl-hub/gmsl-go/pkg/poll"
)

// CheckVideoDetect waits until the video-detect pattern equals the enable
// bitmask.
func (h *Hub) CheckVideoDetect() (poll.Result, error) {
	if h.enabled == 0 {
		return poll.Result{}, ErrNoLinks
	}
	return h.await("video-detect", RegVideoDetect, VideoDetectMask, h.enabled, h.cfg.VideoDetect)
}

// CheckLinkLock waits until the link-lock bit is set.
func (h *Hub) CheckLinkLock() (poll.Result, error) {
	if h.enabled == 0 {
		return poll.Result{}, ErrNoLinks
	}
	return h.await("link-lock", RegLock, Locked, Locked, h.cfg.Lock)
}

// await polls reg until reg&mask == expected and traces the outcome.
func (h *Hub) await(name string, reg, mask, expected uint8, budget poll.Budget) (poll.Result, error) {
	res, err := poll.Until(name, func() (uint8, error) {
		return h.dev.Read8(reg)
	}, poll.Masked(mask, expected), budget, h.sleeper)

	var te *poll.TimeoutError
	if err == nil || errors.As(err, &te) {
		h.dev.Bus().Trace(log.Event{
			Direction: log.DirectionRead,
			Layer:     log.LayerHub,
			Category:  log.CategoryPoll,
			Device:    h.dev.Name(),
			Addr:      h.dev.Addr(),
			Poll: &log.PollEvent{
				Name:        name,
				Reg:         uint16(reg),
				Mask:        mask,
				Expected:    expected,
				Attempts:    res.Attempts,
				MaxAttempts: budget.Attempts(),
				Last:        res.Last,
				Satisfied:   err == nil,
			},
		})
	}

	if err != nil {
		h.debugLog("status poll failed", "poll", name, "attempts", res.Attempts, "last", res.Last, "error", err)
		return res, err
	}
	h.debugLog("status poll satisfied", "poll", name, "attempts", res.Attempts)
	return res, nil
}
