package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGatewayExportImport(t *testing.T) {
	ctx := context.Background()
	g := NewGateway("Ubuntu")
	artifact := filepath.Join(t.TempDir(), "ubuntu.tar")

	if err := g.Export(ctx, "Ubuntu", artifact); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if _, err := os.Stat(artifact); err != nil {
		t.Fatalf("Export should write the artifact: %v", err)
	}
	if err := g.Import(ctx, "Ubuntu", `D:\WSL`, artifact); err == nil {
		t.Error("Import over an existing name should fail")
	}
	if err := g.Import(ctx, "Copy", `D:\WSL\Copy`, artifact); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := g.Location("Copy"); got != `D:\WSL\Copy` {
		t.Errorf("Location(Copy) = %q", got)
	}
	if err := g.Import(ctx, "Other", `D:\WSL\Other`, filepath.Join(t.TempDir(), "missing.tar")); err == nil {
		t.Error("Import of a missing artifact should fail")
	}

	want := []string{"Copy", "Ubuntu"}
	got := g.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestGatewayListRendering(t *testing.T) {
	g := NewGateway("Ubuntu", "Debian")
	g.SetRunning("Debian", true)

	out, err := g.ListInstances(context.Background())
	if err != nil {
		t.Fatalf("ListInstances: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", out)
	}
	if !strings.HasPrefix(lines[1], "  Debian") || !strings.Contains(lines[1], "Running") {
		t.Errorf("Debian row: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "* Ubuntu") {
		t.Errorf("Ubuntu should be marked default: %q", lines[2])
	}
	if g.ListCount() != 1 {
		t.Errorf("ListCount() = %d, want 1", g.ListCount())
	}
}

func TestGatewayFailOn(t *testing.T) {
	ctx := context.Background()
	g := NewGateway("Ubuntu", "Debian")
	boom := errors.New("boom")

	g.FailOn("terminate", "Ubuntu", boom)
	if err := g.Terminate(ctx, "Ubuntu"); !errors.Is(err, boom) {
		t.Errorf("Terminate(Ubuntu) = %v, want boom", err)
	}
	if err := g.Terminate(ctx, "Debian"); err != nil {
		t.Errorf("Terminate(Debian) = %v, want nil", err)
	}

	g.FailOn("unregister", "", boom)
	if err := g.Unregister(ctx, "Debian"); !errors.Is(err, boom) {
		t.Errorf("wildcard failure not applied: %v", err)
	}
	if !g.Registered("Debian") {
		t.Error("failed Unregister should keep the instance")
	}

	calls := g.Calls()
	if len(calls) != 3 || calls[0].String() != "terminate Ubuntu" {
		t.Errorf("Calls() = %v", calls)
	}
}

func TestGatewayStartAndKillAll(t *testing.T) {
	ctx := context.Background()
	g := NewGateway("Ubuntu")

	if err := g.Start(ctx, "Missing"); err == nil {
		t.Error("Start(Missing) should fail")
	}
	if err := g.Start(ctx, "Ubuntu"); err != nil {
		t.Fatalf("Start(Ubuntu) = %v", err)
	}
	out, _ := g.ListInstances(ctx)
	if !strings.Contains(out, "Running") {
		t.Errorf("Ubuntu should be running after Start:\n%s", out)
	}

	if err := g.KillAll(ctx); err != nil {
		t.Fatalf("KillAll() = %v", err)
	}
	out, _ = g.ListInstances(ctx)
	if strings.Contains(out, "Running") {
		t.Errorf("KillAll should stop every instance:\n%s", out)
	}

	var ops []string
	for _, c := range g.Calls() {
		ops = append(ops, c.Op)
	}
	want := "start start list kill-vm shutdown list"
	if got := strings.Join(ops, " "); got != want {
		t.Errorf("ops = %q, want %q", got, want)
	}
}

func TestProbe(t *testing.T) {
	ctx := context.Background()
	p := &Probe{Power: "AC", Clock: "09:30"}

	p.Set(func(p *Probe) { p.Fail = map[string]bool{"time": true} })
	if _, err := p.LocalTime(ctx); !errors.Is(err, ErrProbe) {
		t.Errorf("LocalTime should fail with ErrProbe, got %v", err)
	}
	if got, err := p.PowerSource(ctx); err != nil || got != "AC" {
		t.Errorf("PowerSource() = %q, %v", got, err)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := WriteFile(t, dir, "sub/profiles.yaml", "profiles: []\n")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "profiles: []\n" {
		t.Errorf("content = %q", data)
	}
}
