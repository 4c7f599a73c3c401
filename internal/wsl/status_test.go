package wsl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/javanstorm/wsltamer/internal/testutil"
	"github.com/javanstorm/wsltamer/internal/wsl"
)

func TestInspect(t *testing.T) {
	gw := testutil.NewGateway("Ubuntu", "Debian")
	gw.SetRunning("Debian", true)
	cache := wsl.NewCache(gw)

	status, err := wsl.Inspect(context.Background(), gw, cache)
	require.NoError(t, err)
	require.Equal(t, wsl.Status{
		Installed:      true,
		Running:        true,
		DefaultVersion: "2",
		KernelVersion:  "5.15.133.1-1",
	}, status)
}

func TestInspectNotInstalled(t *testing.T) {
	gw := testutil.NewGateway()
	gw.FailOn("status", "", errors.New("not recognized as an internal or external command"))

	status, err := wsl.Inspect(context.Background(), gw, wsl.NewCache(gw))
	require.NoError(t, err)
	require.False(t, status.Installed)
	require.Zero(t, gw.ListCount())
}

func TestListOnline(t *testing.T) {
	gw := testutil.NewGateway()
	gw.SetOnline("NAME      FRIENDLY NAME\nUbuntu    Ubuntu\n")

	distros, err := wsl.ListOnline(context.Background(), gw)
	require.NoError(t, err)
	require.Equal(t, []wsl.OnlineDistribution{{Name: "Ubuntu", FriendlyName: "Ubuntu"}}, distros)
}
