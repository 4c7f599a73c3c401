package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/javanstorm/wsltamer/internal/config"
	"github.com/javanstorm/wsltamer/internal/profile"
	"github.com/javanstorm/wsltamer/internal/testutil"
)

type harness struct {
	gw    *testutil.Gateway
	probe *testutil.Probe
	cfg   *config.Config
}

func newHarness(t *testing.T, names ...string) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.StatePath = filepath.Join(dir, "profiles.yaml")
	cfg.TempDir = dir

	h := &harness{
		gw:    testutil.NewGateway(names...),
		probe: &testutil.Probe{Power: "AC", Clock: "12:00", Online: true},
		cfg:   cfg,
	}
	s, err := buildServices(cfg, zap.NewNop(), h.gw, h.probe)
	require.NoError(t, err)
	app = s
	t.Cleanup(func() { app = nil })
	return h
}

// run executes the root command with args and returns stdout and stderr.
func (h *harness) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func (h *harness) stored(t *testing.T) profile.AppConfig {
	t.Helper()
	cfg, err := profile.NewFileStore(h.cfg.StatePath, nil).Load()
	require.NoError(t, err)
	return cfg
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "wsltamer dev")
	assert.Contains(t, out, "Commit:")
}

func TestListPlainOutput(t *testing.T) {
	h := newHarness(t, "Ubuntu", "Debian")
	h.gw.SetRunning("Debian", true)

	out, _, err := h.run(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "\tDebian\tRunning\t2\n*\tUbuntu\tStopped\t2\n", out)
}

func TestListEmpty(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run(t, "list", "--refresh")
	require.NoError(t, err)
	assert.Equal(t, "No distributions installed.\n", out)
}

func TestMove(t *testing.T) {
	h := newHarness(t, "Ubuntu")

	out, _, err := h.run(t, "move", "Ubuntu", `E:\WSL\Ubuntu`, "--timings")
	require.NoError(t, err)
	assert.Contains(t, out, "[1/4] Exporting...")
	assert.Contains(t, out, "[4/4] Restoring original name...")
	assert.Contains(t, out, "=== Move timings ===")
	assert.Equal(t, `E:\WSL\Ubuntu`, h.gw.Location("Ubuntu"))
	assert.Equal(t, []string{"Ubuntu"}, h.gw.Names())
}

func TestMoveRejectsInvalidName(t *testing.T) {
	h := newHarness(t, "Ubuntu")
	_, _, err := h.run(t, "move", "Ubuntu;rm", `E:\WSL`)
	require.Error(t, err)
	assert.Empty(t, h.gw.Calls())
}

func TestUnregisterNeedsConfirmation(t *testing.T) {
	h := newHarness(t, "Ubuntu")

	_, _, err := h.run(t, "unregister", "Ubuntu")
	require.ErrorContains(t, err, "--yes")
	assert.True(t, h.gw.Registered("Ubuntu"))

	_, _, err = h.run(t, "unregister", "Ubuntu", "--yes")
	require.NoError(t, err)
	assert.False(t, h.gw.Registered("Ubuntu"))
}

func TestStartReclaimKillAll(t *testing.T) {
	h := newHarness(t, "Ubuntu")

	out, _, err := h.run(t, "start", "Ubuntu")
	require.NoError(t, err)
	assert.Contains(t, out, "Started Ubuntu.")

	out, _, err = h.run(t, "reclaim")
	require.NoError(t, err)
	assert.Contains(t, out, "Page cache dropped.")

	_, _, err = h.run(t, "kill-all")
	require.ErrorContains(t, err, "--yes")

	out, _, err = h.run(t, "kill-all", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "WSL VM killed.")

	var ops []string
	for _, c := range h.gw.Calls() {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []string{"start", "reclaim-memory", "kill-vm", "shutdown"}, ops)
}

func TestProfileApplyPersists(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "profile", "apply", "eco")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied profile eco")
	assert.Contains(t, h.gw.GlobalConfig(), "memory=2GB")
	assert.Equal(t, "eco", h.stored(t).CurrentProfileID)
}

func TestProfileCreateAndSet(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run(t, "profile", "create", "Gaming", "--memory", "16GB", "--processors", "200")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning:")

	var created profile.Profile
	for _, p := range h.stored(t).Profiles {
		if p.Name == "Gaming" {
			created = p
		}
	}
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "16GB", created.Memory)
	assert.Equal(t, "0", created.Swap, "unset flags keep profile defaults")

	_, _, err = h.run(t, "profile", "set", created.ID, "--swap", "4GB", "--networking", "mirrored")
	require.NoError(t, err)
	updated, err := app.store.GetProfile(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "4GB", updated.Swap)
	assert.Equal(t, "16GB", updated.Memory)
	assert.EqualValues(t, "mirrored", updated.NetworkingMode)
}

func TestProfileDeleteLast(t *testing.T) {
	h := newHarness(t)

	for _, id := range []string{"eco", "unleashed"} {
		_, _, err := h.run(t, "profile", "delete", id)
		require.NoError(t, err)
	}
	_, _, err := h.run(t, "profile", "delete", "balanced")
	require.ErrorContains(t, err, "only profile left")

	_, _, err = h.run(t, "profile", "delete", "missing")
	require.ErrorContains(t, err, `no profile with id "missing"`)
}

func TestRuleAddValidates(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "rule", "add", "Night", "--trigger", "time", "--value", "25:00-06:00", "--profile", "eco")
	require.ErrorContains(t, err, "Invalid time range")

	_, _, err = h.run(t, "rule", "add", "Night", "--trigger", "time", "--value", "22:00-06:00", "--profile", "eco")
	require.NoError(t, err)

	rules := h.stored(t).Rules
	require.Len(t, rules, 1)
	assert.Equal(t, profile.TriggerTime, rules[0].TriggerType)
	assert.True(t, rules[0].Enabled)

	_, _, err = h.run(t, "rule", "toggle", rules[0].ID)
	require.NoError(t, err)
	assert.False(t, h.stored(t).Rules[0].Enabled)
}

func TestAutomateOnce(t *testing.T) {
	h := newHarness(t)
	h.probe.Set(func(p *testutil.Probe) { p.Power = "Battery" })

	_, _, err := h.run(t, "rule", "add", "Unplugged", "--trigger", "PowerState", "--value", "battery", "--profile", "eco")
	require.NoError(t, err)

	out, _, err := h.run(t, "automate", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, `Rule "Unplugged" applied profile eco`)
	assert.Equal(t, "eco", h.stored(t).CurrentProfileID)

	out, _, err = h.run(t, "automate", "--once")
	require.NoError(t, err)
	assert.Equal(t, "No profile change needed.\n", out)
}

func TestWSLConfigWrite(t *testing.T) {
	h := newHarness(t)
	path := testutil.WriteFile(t, t.TempDir(), ".wslconfig", "[wsl2]\nprocessors=0\nmemory=8GB\n")

	_, stderr, err := h.run(t, "wslconfig", "write", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning:")
	assert.True(t, strings.HasPrefix(h.gw.GlobalConfig(), "[wsl2]\n"))

	out, _, err := h.run(t, "wslconfig", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "memory=8GB")
}

func TestMetricsJSON(t *testing.T) {
	h := newHarness(t, "Ubuntu")

	out, _, err := h.run(t, "metrics", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Ubuntu"`)
	assert.Contains(t, out, `"running": false`)
}
