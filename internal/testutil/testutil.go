// Package testutil provides an in-memory stand-in for wsl.exe and the host
// probes, for use in tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Gateway is a fake WSL host. It tracks registered instances and their
// locations, records every call and can be told to fail specific ones.
// It is safe for concurrent use.
type Gateway struct {
	mu         sync.Mutex
	instances  map[string]*fakeInstance
	defaultTo  string
	calls      []Call
	failures   map[string]error
	online     string
	status     string
	meminfo    string
	global     string
	instConfig map[string]string

	listCount atomic.Int64
	listDelay time.Duration
	listGate  chan struct{}
}

type fakeInstance struct {
	location string
	running  bool
	version  string
}

// Call is one recorded gateway invocation.
type Call struct {
	Op   string
	Args []string
}

func (c Call) String() string {
	return c.Op + " " + strings.Join(c.Args, " ")
}

// NewGateway creates a fake host with the given instances registered, all
// stopped, the first one being the default.
func NewGateway(names ...string) *Gateway {
	g := &Gateway{
		instances:  make(map[string]*fakeInstance),
		failures:   make(map[string]error),
		instConfig: make(map[string]string),
		status:     "Default Version: 2\nKernel version: 5.15.133.1-1\n",
	}
	for _, n := range names {
		g.instances[n] = &fakeInstance{location: `C:\WSL\` + n, version: "2"}
	}
	if len(names) > 0 {
		g.defaultTo = names[0]
	}
	return g
}

// FailOn makes the next calls of op on name return err. An empty name
// matches any argument.
func (g *Gateway) FailOn(op, name string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op+"\x00"+name] = err
}

// SetRunning marks an instance as running.
func (g *Gateway) SetRunning(name string, running bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if inst, ok := g.instances[name]; ok {
		inst.running = running
	}
}

// SetOnline sets the `wsl --list --online` output.
func (g *Gateway) SetOnline(out string) {
	g.mu.Lock()
	g.online = out
	g.mu.Unlock()
}

// SetStatus sets the `wsl --status` output.
func (g *Gateway) SetStatus(out string) {
	g.mu.Lock()
	g.status = out
	g.mu.Unlock()
}

// SetMemInfo sets the /proc/meminfo text returned for every instance.
func (g *Gateway) SetMemInfo(out string) {
	g.mu.Lock()
	g.meminfo = out
	g.mu.Unlock()
}

// SetGlobalConfig sets the current .wslconfig text.
func (g *Gateway) SetGlobalConfig(text string) {
	g.mu.Lock()
	g.global = text
	g.mu.Unlock()
}

// GlobalConfig returns the last .wslconfig text written.
func (g *Gateway) GlobalConfig() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.global
}

// InstanceConfig returns the wsl.conf text written into name.
func (g *Gateway) InstanceConfig(name string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.instConfig[name]
}

// SlowList makes ListInstances sleep for d before answering.
func (g *Gateway) SlowList(d time.Duration) {
	g.mu.Lock()
	g.listDelay = d
	g.mu.Unlock()
}

// BlockList makes ListInstances wait until the returned function is called.
func (g *Gateway) BlockList() (release func()) {
	gate := make(chan struct{})
	g.mu.Lock()
	g.listGate = gate
	g.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// ListCount reports how many times ListInstances has been called.
func (g *Gateway) ListCount() int {
	return int(g.listCount.Load())
}

// Registered reports whether name is registered.
func (g *Gateway) Registered(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.instances[name]
	return ok
}

// Location returns where name is registered.
func (g *Gateway) Location(name string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if inst, ok := g.instances[name]; ok {
		return inst.location
	}
	return ""
}

// Names returns the registered instance names, sorted.
func (g *Gateway) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.instances))
	for n := range g.instances {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Calls returns the recorded calls in order.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Call, len(g.calls))
	copy(out, g.calls)
	return out
}

// record logs the call and returns the injected failure, if any. Callers
// hold g.mu.
func (g *Gateway) record(op string, args ...string) error {
	g.calls = append(g.calls, Call{Op: op, Args: args})
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	if err, ok := g.failures[op+"\x00"+name]; ok {
		return err
	}
	if err, ok := g.failures[op+"\x00"]; ok {
		return err
	}
	return nil
}

func (g *Gateway) ListInstances(ctx context.Context) (string, error) {
	g.listCount.Add(1)
	g.mu.Lock()
	delay, gate := g.listDelay, g.listGate
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("list"); err != nil {
		return "", err
	}

	names := make([]string, 0, len(g.instances))
	for n := range g.instances {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("  NAME                   STATE           VERSION\r\n")
	for _, n := range names {
		inst := g.instances[n]
		marker := " "
		if n == g.defaultTo {
			marker = "*"
		}
		state := "Stopped"
		if inst.running {
			state = "Running"
		}
		fmt.Fprintf(&b, "%s %-22s %-15s %s\r\n", marker, n, state, inst.version)
	}
	return b.String(), nil
}

func (g *Gateway) ListOnline(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("list-online"); err != nil {
		return "", err
	}
	return g.online, nil
}

func (g *Gateway) Status(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("status"); err != nil {
		return "", err
	}
	return g.status, nil
}

func (g *Gateway) ReadMemInfo(ctx context.Context, distro string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("meminfo", distro); err != nil {
		return "", err
	}
	return g.meminfo, nil
}

func (g *Gateway) ReadGlobalConfig(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("read-global-config"); err != nil {
		return "", err
	}
	return g.global, nil
}

func (g *Gateway) ReadInstanceConfig(ctx context.Context, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("read-config", name); err != nil {
		return "", err
	}
	return g.instConfig[name], nil
}

// Export writes a small file to artifactPath standing in for the tarball.
func (g *Gateway) Export(ctx context.Context, name, artifactPath string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("export", name, artifactPath); err != nil {
		return err
	}
	if _, ok := g.instances[name]; !ok {
		return fmt.Errorf("there is no distribution with the supplied name: %s", name)
	}
	return os.WriteFile(artifactPath, []byte("rootfs of "+name), 0644)
}

func (g *Gateway) Import(ctx context.Context, name, location, artifactPath string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("import", name, location, artifactPath); err != nil {
		return err
	}
	if _, ok := g.instances[name]; ok {
		return fmt.Errorf("a distribution with the supplied name already exists: %s", name)
	}
	if _, err := os.Stat(artifactPath); err != nil {
		return fmt.Errorf("import %s: %w", filepath.Base(artifactPath), err)
	}
	g.instances[name] = &fakeInstance{location: location, version: "2"}
	return nil
}

func (g *Gateway) Unregister(ctx context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("unregister", name); err != nil {
		return err
	}
	if _, ok := g.instances[name]; !ok {
		return fmt.Errorf("there is no distribution with the supplied name: %s", name)
	}
	delete(g.instances, name)
	if g.defaultTo == name {
		g.defaultTo = ""
	}
	return nil
}

func (g *Gateway) SetDefault(ctx context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("set-default", name); err != nil {
		return err
	}
	if _, ok := g.instances[name]; !ok {
		return fmt.Errorf("there is no distribution with the supplied name: %s", name)
	}
	g.defaultTo = name
	return nil
}

func (g *Gateway) Install(ctx context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("install", name); err != nil {
		return err
	}
	if _, ok := g.instances[name]; !ok {
		g.instances[name] = &fakeInstance{location: `C:\WSL\` + name, version: "2"}
	}
	return nil
}

func (g *Gateway) Terminate(ctx context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("terminate", name); err != nil {
		return err
	}
	if inst, ok := g.instances[name]; ok {
		inst.running = false
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("shutdown"); err != nil {
		return err
	}
	for _, inst := range g.instances {
		inst.running = false
	}
	return nil
}

func (g *Gateway) Start(ctx context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("start", name); err != nil {
		return err
	}
	inst, ok := g.instances[name]
	if !ok {
		return fmt.Errorf("there is no distribution with the supplied name: %s", name)
	}
	inst.running = true
	return nil
}

func (g *Gateway) ReclaimMemory(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record("reclaim-memory")
}

// KillAll records kill-vm and then shutdown, like the real sequence.
func (g *Gateway) KillAll(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("kill-vm"); err != nil {
		return err
	}
	if err := g.record("shutdown"); err != nil {
		return err
	}
	for _, inst := range g.instances {
		inst.running = false
	}
	return nil
}

func (g *Gateway) WriteGlobalConfig(ctx context.Context, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("write-global-config"); err != nil {
		return err
	}
	g.global = text
	return nil
}

func (g *Gateway) WriteInstanceConfig(ctx context.Context, name, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("write-config", name); err != nil {
		return err
	}
	g.instConfig[name] = text
	return nil
}

// ErrProbe is returned by Probe methods told to fail.
var ErrProbe = errors.New("testutil: probe failed")

// Probe is a fake host probe for the automation engine.
type Probe struct {
	mu        sync.Mutex
	Processes []string
	Power     string
	Clock     string
	Online    bool
	Fail      map[string]bool
}

func (p *Probe) RunningProcesses(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail["processes"] {
		return nil, ErrProbe
	}
	return append([]string(nil), p.Processes...), nil
}

func (p *Probe) PowerSource(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail["power"] {
		return "", ErrProbe
	}
	return p.Power, nil
}

func (p *Probe) LocalTime(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail["time"] {
		return "", ErrProbe
	}
	return p.Clock, nil
}

func (p *Probe) Connected(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail["network"] {
		return false, ErrProbe
	}
	return p.Online, nil
}

// Set updates the probe under its lock.
func (p *Probe) Set(fn func(p *Probe)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
