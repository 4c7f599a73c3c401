package wsl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javanstorm/wsltamer/internal/timing"
)

// MovingSuffix marks the temporary name an instance carries while it is
// being relocated.
const MovingSuffix = "-wsl-tamer-moving"

// MovePhase names the steps of a relocation.
type MovePhase int

const (
	MoveExport  MovePhase = iota + 1 // export the original to artifact A
	MoveStage                        // import A under the temporary name
	MoveRelease                      // unregister the original
	MoveRestore                      // re-import under the original name
	MoveDone
)

func (p MovePhase) String() string {
	switch p {
	case MoveExport:
		return "export"
	case MoveStage:
		return "stage"
	case MoveRelease:
		return "release"
	case MoveRestore:
		return "restore"
	case MoveDone:
		return "done"
	default:
		return "unknown"
	}
}

// TempName returns the name an instance carries while being moved.
func TempName(name string) string {
	return name + MovingSuffix
}

// Mutator performs instance mutations against a Commander and invalidates
// the Cache after each one that changes the instance list.
type Mutator struct {
	cmd     Commander
	cache   *Cache
	tempDir string
	log     *zap.Logger
	onPhase func(name string, phase MovePhase)
}

// MutatorOption configures a Mutator.
type MutatorOption func(*Mutator)

// WithTempDir sets where export artifacts are written (default os.TempDir).
func WithTempDir(dir string) MutatorOption {
	return func(m *Mutator) { m.tempDir = dir }
}

// WithMutatorLogger sets the logger.
func WithMutatorLogger(log *zap.Logger) MutatorOption {
	return func(m *Mutator) { m.log = log }
}

// WithPhaseHook is called as a move enters each phase.
func WithPhaseHook(fn func(name string, phase MovePhase)) MutatorOption {
	return func(m *Mutator) { m.onPhase = fn }
}

// NewMutator creates a Mutator. cache may be nil.
func NewMutator(cmd Commander, cache *Cache, opts ...MutatorOption) *Mutator {
	m := &Mutator{
		cmd:     cmd,
		cache:   cache,
		tempDir: os.TempDir(),
		log:     zap.NewNop(),
		onPhase: func(string, MovePhase) {},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Clone exports source and imports it as newName at location. The export
// artifact is removed afterwards whatever the outcome.
//
// Once started, Clone runs to completion even if ctx is cancelled.
func (m *Mutator) Clone(ctx context.Context, source, newName, location string) error {
	if err := ValidateName(source); err != nil {
		return err
	}
	if err := ValidateName(newName); err != nil {
		return err
	}
	if err := ValidateWindowsPath(location); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	log := m.log.With(zap.String("instance", source), zap.String("clone", newName))

	artifact := m.artifactPath(source, "clone")
	defer m.discard(artifact)

	timer := timing.New()
	if err := m.cmd.Export(ctx, source, artifact); err != nil {
		return fmt.Errorf("export %s: %w", source, err)
	}
	timer.Mark("export")

	if err := m.cmd.Import(ctx, newName, location, artifact); err != nil {
		return fmt.Errorf("import %s: %w", newName, err)
	}
	timer.Mark("import")
	m.invalidate()

	log.Info("instance cloned", timer.Fields()...)
	return nil
}

// Move relocates name to newLocation without ever leaving it unregistered
// under both names at once:
//
//  1. export name to artifact A
//  2. import A as TempName(name) at newLocation; the original is untouched
//  3. unregister name
//  4. export the temporary instance to artifact B, unregister it and import
//     B as name at newLocation
//
// A failure in steps 1-2 leaves the original intact. A failure in step 4
// returns a *PartialFailureError naming the surviving temporary instance.
// Once started, Move runs to completion even if ctx is cancelled.
func (m *Mutator) Move(ctx context.Context, name, newLocation string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateWindowsPath(newLocation); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	tempName := TempName(name)
	log := m.log.With(zap.String("instance", name), zap.String("location", newLocation))
	timer := timing.New()

	m.onPhase(name, MoveExport)
	artifactA := m.artifactPath(name, "move")
	if err := m.cmd.Export(ctx, name, artifactA); err != nil {
		m.discard(artifactA)
		return fmt.Errorf("export %s (original preserved): %w", name, err)
	}
	timer.Mark(MoveExport.String())

	m.onPhase(name, MoveStage)
	err := m.cmd.Import(ctx, tempName, newLocation, artifactA)
	m.discard(artifactA)
	if err != nil {
		return fmt.Errorf("import at new location (original preserved): %w", err)
	}
	timer.Mark(MoveStage.String())
	m.invalidate()

	m.onPhase(name, MoveRelease)
	if err := m.cmd.Unregister(ctx, name); err != nil {
		return fmt.Errorf("unregister %s (copy left registered as %q): %w", name, tempName, err)
	}
	m.invalidate()
	timer.Mark(MoveRelease.String())

	m.onPhase(name, MoveRestore)
	if err := m.restore(ctx, name, tempName, newLocation); err != nil {
		log.Error("move left instance under temporary name", zap.Error(err))
		return err
	}
	timer.Mark(MoveRestore.String())
	m.invalidate()

	m.onPhase(name, MoveDone)
	log.Info("instance moved", timer.Fields()...)
	return nil
}

// restore is phase 4: bring the temporary instance back under name.
func (m *Mutator) restore(ctx context.Context, name, tempName, location string) error {
	artifactB := m.artifactPath(name, "rename")

	if err := m.cmd.Export(ctx, tempName, artifactB); err != nil {
		m.discard(artifactB)
		return &PartialFailureError{Name: name, Survivor: tempName, Err: err}
	}
	if err := m.cmd.Unregister(ctx, tempName); err != nil {
		m.discard(artifactB)
		return &PartialFailureError{Name: name, Survivor: tempName, Err: err}
	}

	importErr := m.cmd.Import(ctx, name, location, artifactB)
	if importErr == nil {
		m.discard(artifactB)
		return nil
	}

	// The temporary instance is already gone; put it back from B so the
	// instance stays registered somewhere.
	if err := m.cmd.Import(ctx, tempName, location, artifactB); err != nil {
		m.log.Error("re-registering temporary instance failed",
			zap.String("instance", tempName),
			zap.String("artifact", artifactB),
			zap.Error(err))
		return &PartialFailureError{
			Name:     name,
			Survivor: tempName,
			Artifact: artifactB,
			Err:      errors.Join(importErr, err),
		}
	}
	m.discard(artifactB)
	return &PartialFailureError{Name: name, Survivor: tempName, Err: importErr}
}

// Unregister deletes an instance and everything in it.
func (m *Mutator) Unregister(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := m.cmd.Unregister(ctx, name); err != nil {
		return fmt.Errorf("unregister %s: %w", name, err)
	}
	m.invalidate()
	return nil
}

// Install installs a distribution from the online catalogue.
func (m *Mutator) Install(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := m.cmd.Install(ctx, name); err != nil {
		return fmt.Errorf("install %s: %w", name, err)
	}
	m.invalidate()
	return nil
}

// Import registers artifactPath as name at location.
func (m *Mutator) Import(ctx context.Context, name, location, artifactPath string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	for _, p := range []string{location, artifactPath} {
		if err := ValidateWindowsPath(p); err != nil {
			return err
		}
	}
	if err := m.cmd.Import(ctx, name, location, artifactPath); err != nil {
		return fmt.Errorf("import %s: %w", name, err)
	}
	m.invalidate()
	return nil
}

// Export writes name to artifactPath. The instance list is unchanged.
func (m *Mutator) Export(ctx context.Context, name, artifactPath string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateWindowsPath(artifactPath); err != nil {
		return err
	}
	if err := m.cmd.Export(ctx, name, artifactPath); err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}
	return nil
}

// SetDefault makes name the default instance.
func (m *Mutator) SetDefault(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := m.cmd.SetDefault(ctx, name); err != nil {
		return fmt.Errorf("set default %s: %w", name, err)
	}
	m.invalidate()
	return nil
}

// Terminate stops a running instance.
func (m *Mutator) Terminate(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := m.cmd.Terminate(ctx, name); err != nil {
		return fmt.Errorf("terminate %s: %w", name, err)
	}
	m.invalidate()
	return nil
}

// Shutdown stops every instance and the WSL 2 VM.
func (m *Mutator) Shutdown(ctx context.Context) error {
	if err := m.cmd.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	m.invalidate()
	return nil
}

// Start boots name in the background.
func (m *Mutator) Start(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := m.cmd.Start(ctx, name); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	m.invalidate()
	return nil
}

// ReclaimMemory asks the default instance's kernel to drop its page cache
// so the WSL 2 VM returns memory to the host.
func (m *Mutator) ReclaimMemory(ctx context.Context) error {
	if err := m.cmd.ReclaimMemory(ctx); err != nil {
		return fmt.Errorf("reclaim memory: %w", err)
	}
	return nil
}

// KillAll force-stops the WSL 2 VM process and then shuts WSL down. The
// cache is invalidated even when only the first step succeeded.
func (m *Mutator) KillAll(ctx context.Context) error {
	err := m.cmd.KillAll(ctx)
	m.invalidate()
	if err != nil {
		return fmt.Errorf("kill all: %w", err)
	}
	return nil
}

// WriteInstanceConfig replaces /etc/wsl.conf inside name.
func (m *Mutator) WriteInstanceConfig(ctx context.Context, name, text string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := m.cmd.WriteInstanceConfig(ctx, name, text); err != nil {
		return fmt.Errorf("write wsl.conf for %s: %w", name, err)
	}
	return nil
}

func (m *Mutator) artifactPath(name, purpose string) string {
	return filepath.Join(m.tempDir, fmt.Sprintf("%s_%s_%s.tar", name, purpose, uuid.NewString()))
}

// discard removes a temporary artifact. Failures are logged only.
func (m *Mutator) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.log.Warn("remove temporary artifact", zap.String("path", path), zap.Error(err))
	}
}

func (m *Mutator) invalidate() {
	if m.cache != nil {
		m.cache.Invalidate()
	}
}
