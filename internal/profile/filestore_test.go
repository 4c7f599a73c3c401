package profile

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/javanstorm/wsltamer/internal/wslconf"
)

func TestFileStoreRoundTrip(t *testing.T) {
	fsStore := NewFileStore(filepath.Join(t.TempDir(), "nested", "profiles.yaml"), nil)

	kernel := `C:\kernels\custom`
	want := AppConfig{
		Profiles: append(DefaultProfiles(), Profile{
			ID:             "custom",
			Name:           "Custom",
			Memory:         "6GB",
			Processors:     3,
			Swap:           "1GB",
			KernelPath:     &kernel,
			NetworkingMode: wslconf.NetworkingMirrored,
		}),
		Rules: []Rule{{
			ID:              "r1",
			Name:            "Gaming",
			Enabled:         true,
			TriggerType:     TriggerProcess,
			TriggerValue:    "steam.exe",
			TargetProfileID: "eco",
		}},
		CurrentProfileID: "custom",
		DefaultProfileID: "balanced",
		StartWithWindows: true,
		Theme:            ThemeSystem,
	}

	require.NoError(t, fsStore.Save(want))
	_, err := os.Stat(fsStore.Path() + ".tmp")
	require.True(t, errors.Is(err, fs.ErrNotExist), "temp file left behind")

	got, err := fsStore.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStoreConcurrentSaves(t *testing.T) {
	dir := t.TempDir()
	fsStore := NewFileStore(filepath.Join(dir, "profiles.yaml"), nil)

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg := AppConfig{Profiles: DefaultProfiles(), DefaultProfileID: DefaultProfiles()[i%3].ID}
			errs[i] = fsStore.Save(cfg)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := fsStore.Load()
	require.NoError(t, err)
	require.Len(t, got.Profiles, len(DefaultProfiles()))

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestFileStoreLoadMissing(t *testing.T) {
	fsStore := NewFileStore(filepath.Join(t.TempDir(), "profiles.yaml"), nil)
	_, err := fsStore.Load()
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFileStoreLoadAcceptsAnyCaseNetworkingMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	data := "profiles:\n  - id: legacy\n    name: Legacy\n    memory: 4GB\n    processors: 2\n    swap: \"0\"\n    networkingMode: NAT\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := NewFileStore(path, nil).Load()
	require.NoError(t, err)
	require.Len(t, cfg.Profiles, 1)
	require.Equal(t, wslconf.NetworkingNAT, cfg.Profiles[0].NetworkingMode)
}

func TestFileStoreLoadInto(t *testing.T) {
	fsStore := NewFileStore(filepath.Join(t.TempDir(), "profiles.yaml"), nil)

	s := NewStore()
	require.NoError(t, fsStore.LoadInto(s))
	profiles, err := s.ListProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	// Defaults were saved, so a fresh store sees edits made through the first.
	require.NoError(t, s.SetCurrentProfile("eco"))
	require.NoError(t, fsStore.SaveFrom(s))

	other := NewStore()
	require.NoError(t, fsStore.LoadInto(other))
	current, err := other.CurrentProfile()
	require.NoError(t, err)
	require.Equal(t, "eco", current.ID)
}

func TestFileStoreWatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	fsStore := NewFileStore(filepath.Join(t.TempDir(), "profiles.yaml"), nil)
	require.NoError(t, fsStore.Save(AppConfig{Profiles: DefaultProfiles()}))

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan AppConfig, 4)
	done := make(chan error, 1)
	go func() {
		done <- fsStore.Watch(ctx, func(cfg AppConfig) { reloaded <- cfg })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, fsStore.Save(AppConfig{Profiles: DefaultProfiles(), CurrentProfileID: "eco"}))

	select {
	case cfg := <-reloaded:
		require.Equal(t, "eco", cfg.CurrentProfileID)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	cancel()
	require.NoError(t, <-done)
}
