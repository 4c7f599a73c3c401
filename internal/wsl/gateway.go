package wsl

import "context"

// Querier runs read-only commands. Every call may take from tens of
// milliseconds to several seconds.
type Querier interface {
	// ListInstances returns the raw `wsl --list --verbose` output.
	ListInstances(ctx context.Context) (string, error)
	// ListOnline returns the raw `wsl --list --online` output.
	ListOnline(ctx context.Context) (string, error)
	// Status returns the raw `wsl --status` output.
	Status(ctx context.Context) (string, error)
	// ReadMemInfo returns /proc/meminfo from inside distro, or from the
	// default distribution when distro is empty.
	ReadMemInfo(ctx context.Context, distro string) (string, error)
	// ReadGlobalConfig returns the host's .wslconfig, empty if missing.
	ReadGlobalConfig(ctx context.Context) (string, error)
	// ReadInstanceConfig returns /etc/wsl.conf from inside name.
	ReadInstanceConfig(ctx context.Context, name string) (string, error)
}

// Commander runs mutating commands. Each call is atomic on its own; no
// atomicity across calls is assumed.
type Commander interface {
	Export(ctx context.Context, name, artifactPath string) error
	Import(ctx context.Context, name, location, artifactPath string) error
	Unregister(ctx context.Context, name string) error
	SetDefault(ctx context.Context, name string) error
	Install(ctx context.Context, name string) error
	Terminate(ctx context.Context, name string) error
	Shutdown(ctx context.Context) error
	// Start boots name by running a no-op command inside it.
	Start(ctx context.Context, name string) error
	// ReclaimMemory drops the page cache of the default instance as root.
	ReclaimMemory(ctx context.Context) error
	// KillAll stops the vmmemWSL process and then shuts WSL down.
	KillAll(ctx context.Context) error
	WriteGlobalConfig(ctx context.Context, text string) error
	WriteInstanceConfig(ctx context.Context, name, text string) error
}

// Gateway is the full external surface used by this module.
type Gateway interface {
	Querier
	Commander
}
