package main

import (
	"fmt"
	"log/slog"

	"github.com/gmsl-hub/gmsl-go/pkg/config"
	"github.com/gmsl-hub/gmsl-go/pkg/delay"
	"github.com/gmsl-hub/gmsl-go/pkg/sim"
)

// simulation is a simulated board plus a clock that records settle delays
// instead of sleeping.
type simulation struct {
	*sim.Board
	clock   *delay.Recorder
	cameras uint8
}

func newSimulation(cfg config.Config, cameras, fault string) (*simulation, error) {
	mask := uint8(1)<<len(cfg.SerializerAddrs) - 1
	if cameras != "" {
		m, err := parseMask(cameras)
		if err != nil {
			return nil, fmt.Errorf("sim-cameras: %w", err)
		}
		mask = m
	}

	s := &simulation{
		Board:   sim.NewBoard(sim.WithHubAddr(cfg.HubAddress), sim.WithCameras(mask)),
		clock:   &delay.Recorder{},
		cameras: mask,
	}

	switch fault {
	case "":
	case "lock-loss":
		s.SetLockLoss(true)
	case "frame-sync-loss":
		s.SetFrameSyncLoss(true)
	case "video-loss":
		s.SetVideoLoss(0, true)
	default:
		return nil, fmt.Errorf("unknown sim-fault: %s (must be lock-loss, frame-sync-loss, or video-loss)", fault)
	}
	return s, nil
}

// report logs what the simulated bus saw.
func (s *simulation) report(logger *slog.Logger) {
	logger.Info("simulation summary",
		"transactions", s.Transactions(),
		"collisions", s.Collisions(),
		"settle_delays", s.clock.Count(),
		"settle_time", s.clock.Total(),
	)
}
