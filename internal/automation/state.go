// Package automation decides which profile the host should be running by
// matching automation rules against a snapshot of the machine's state.
package automation

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PowerState is the host's power source.
type PowerState int

const (
	PowerUnknown PowerState = iota
	PowerAC
	PowerBattery
)

func (p PowerState) String() string {
	switch p {
	case PowerAC:
		return "AC"
	case PowerBattery:
		return "Battery"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the state by name.
func (p PowerState) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ParsePowerState maps a probe's answer to a PowerState.
func ParsePowerState(s string) PowerState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ac":
		return PowerAC
	case "battery":
		return PowerBattery
	default:
		return PowerUnknown
	}
}

// Probe reads live host state. Every call may take seconds.
type Probe interface {
	// RunningProcesses returns the distinct names of running processes.
	RunningProcesses(ctx context.Context) ([]string, error)
	// PowerSource returns "AC", "Battery" or anything else for unknown.
	PowerSource(ctx context.Context) (string, error)
	// LocalTime returns the wall clock as zero-padded 24-hour "HH:MM".
	LocalTime(ctx context.Context) (string, error)
	// Connected reports whether the host has internet connectivity.
	Connected(ctx context.Context) (bool, error)
}

// SystemState is a point-in-time view of the host.
type SystemState struct {
	RunningProcesses []string   `json:"runningProcesses"`
	Power            PowerState `json:"powerState"`
	CurrentTime      string     `json:"currentTime"`
	NetworkConnected bool       `json:"networkConnected"`
}

// Snapshot queries the probe concurrently. A failing probe degrades to the
// zero value for its field (no processes, Unknown power, no time,
// disconnected) and is logged; only cancellation of ctx is an error.
func Snapshot(ctx context.Context, probe Probe, log *zap.Logger) (SystemState, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var state SystemState
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		procs, err := probe.RunningProcesses(gctx)
		if err != nil {
			log.Warn("probe running processes", zap.Error(err))
			return nil
		}
		state.RunningProcesses = procs
		return nil
	})
	g.Go(func() error {
		power, err := probe.PowerSource(gctx)
		if err != nil {
			log.Warn("probe power source", zap.Error(err))
			return nil
		}
		state.Power = ParsePowerState(power)
		return nil
	})
	g.Go(func() error {
		now, err := probe.LocalTime(gctx)
		if err != nil {
			log.Warn("probe local time", zap.Error(err))
			return nil
		}
		state.CurrentTime = now
		return nil
	})
	g.Go(func() error {
		online, err := probe.Connected(gctx)
		if err != nil {
			log.Warn("probe connectivity", zap.Error(err))
			return nil
		}
		state.NetworkConnected = online
		return nil
	})

	if err := g.Wait(); err != nil {
		return SystemState{}, err
	}
	if err := ctx.Err(); err != nil {
		return SystemState{}, err
	}
	return state, nil
}
