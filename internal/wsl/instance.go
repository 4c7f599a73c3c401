// Package wsl talks to the Windows Subsystem for Linux through wsl.exe and
// keeps a short-lived view of the registered instances.
package wsl

import "strings"

// State is the lifecycle state reported for an instance.
type State int

const (
	StateUnknown State = iota
	StateRunning
	StateStopped
	StateInstalling
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	case StateInstalling:
		return "Installing"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name; unrecognised names become StateUnknown.
func (s *State) UnmarshalText(text []byte) error {
	*s = ParseState(string(text))
	return nil
}

// ParseState maps the STATE column of `wsl --list --verbose` to a State.
func ParseState(s string) State {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running":
		return StateRunning
	case "stopped":
		return StateStopped
	case "installing":
		return StateInstalling
	default:
		return StateUnknown
	}
}

// Instance is one registered distribution.
type Instance struct {
	Name      string `json:"name"`
	State     State  `json:"state"`
	Version   string `json:"version"`
	IsDefault bool   `json:"is_default"`
}

// OnlineDistribution is a distribution available for installation.
type OnlineDistribution struct {
	Name         string `json:"name"`
	FriendlyName string `json:"friendly_name"`
}

// Status summarises the WSL installation.
type Status struct {
	Installed      bool   `json:"installed"`
	Running        bool   `json:"running"`
	DefaultVersion string `json:"default_version,omitempty"`
	KernelVersion  string `json:"kernel_version,omitempty"`
}
