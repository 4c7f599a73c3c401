package automation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanstorm/wsltamer/internal/testutil"
)

func TestSnapshot(t *testing.T) {
	probe := &testutil.Probe{
		Processes: []string{"Code", "steam"},
		Power:     "Battery",
		Clock:     "23:15",
		Online:    true,
	}

	state, err := Snapshot(context.Background(), probe, nil)
	require.NoError(t, err)
	assert.Equal(t, SystemState{
		RunningProcesses: []string{"Code", "steam"},
		Power:            PowerBattery,
		CurrentTime:      "23:15",
		NetworkConnected: true,
	}, state)
}

func TestSnapshotDegradesOnProbeFailure(t *testing.T) {
	probe := &testutil.Probe{
		Processes: []string{"Code"},
		Power:     "AC",
		Clock:     "08:00",
		Online:    true,
		Fail:      map[string]bool{"processes": true, "power": true, "network": true},
	}

	state, err := Snapshot(context.Background(), probe, nil)
	require.NoError(t, err)
	assert.Empty(t, state.RunningProcesses)
	assert.Equal(t, PowerUnknown, state.Power)
	assert.Equal(t, "08:00", state.CurrentTime)
	assert.False(t, state.NetworkConnected)
}

func TestSnapshotCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Snapshot(ctx, &testutil.Probe{}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseProcessList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"array", `["explorer","Code"]`, []string{"explorer", "Code"}},
		{"single", `"explorer"`, []string{"explorer"}},
		{"empty", "  \r\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProcessList(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseProcessList("not json")
	require.Error(t, err)
}
