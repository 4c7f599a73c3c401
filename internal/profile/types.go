// Package profile holds resource profiles, automation rules and the
// current/default selection, and persists them.
package profile

import (
	"github.com/google/uuid"

	"github.com/javanstorm/wsltamer/internal/wslconf"
)

// Profile is a named bundle of WSL 2 resource settings.
type Profile struct {
	ID                  string                 `yaml:"id" json:"id"`
	Name                string                 `yaml:"name" json:"name"`
	Memory              string                 `yaml:"memory" json:"memory"`
	Processors          int                    `yaml:"processors" json:"processors"`
	Swap                string                 `yaml:"swap" json:"swap"`
	LocalhostForwarding bool                   `yaml:"localhostForwarding" json:"localhostForwarding"`
	KernelPath          *string                `yaml:"kernelPath,omitempty" json:"kernelPath,omitempty"`
	NetworkingMode      wslconf.NetworkingMode `yaml:"networkingMode" json:"networkingMode"`
	GUIApplications     bool                   `yaml:"guiApplications" json:"guiApplications"`
	DebugConsole        bool                   `yaml:"debugConsole" json:"debugConsole"`
}

// NewProfile returns a profile with a fresh id and the usual defaults.
func NewProfile(name string) Profile {
	return Profile{
		ID:                  uuid.NewString(),
		Name:                name,
		Memory:              "4GB",
		Processors:          2,
		Swap:                "0",
		LocalhostForwarding: true,
		NetworkingMode:      wslconf.NetworkingNAT,
		GUIApplications:     true,
	}
}

// WSLConfig converts the profile to the .wslconfig it stands for.
func (p Profile) WSLConfig() wslconf.WSLConfig {
	var c wslconf.WSLConfig
	if p.Memory != "" {
		c.Memory = wslconf.Ptr(p.Memory)
	}
	if p.Processors > 0 {
		c.Processors = wslconf.Ptr(p.Processors)
	}
	if p.Swap != "" {
		c.Swap = wslconf.Ptr(p.Swap)
	}
	c.LocalhostForwarding = wslconf.Ptr(p.LocalhostForwarding)
	if p.KernelPath != nil && *p.KernelPath != "" {
		c.Kernel = wslconf.Ptr(*p.KernelPath)
	}
	if p.NetworkingMode != "" {
		c.NetworkingMode = wslconf.Ptr(p.NetworkingMode)
	}
	c.GUIApplications = wslconf.Ptr(p.GUIApplications)
	c.DebugConsole = wslconf.Ptr(p.DebugConsole)
	return c
}

func (p Profile) clone() Profile {
	if p.KernelPath != nil {
		p.KernelPath = wslconf.Ptr(*p.KernelPath)
	}
	return p
}

// TriggerType selects what a rule watches.
type TriggerType string

const (
	TriggerTime       TriggerType = "Time"
	TriggerProcess    TriggerType = "Process"
	TriggerPowerState TriggerType = "PowerState"
	TriggerNetwork    TriggerType = "Network"
)

// Valid reports whether t is one of the known trigger types.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerTime, TriggerProcess, TriggerPowerState, TriggerNetwork:
		return true
	}
	return false
}

// Rule switches to TargetProfileID when its trigger fires.
type Rule struct {
	ID              string      `yaml:"id" json:"id"`
	Name            string      `yaml:"name" json:"name"`
	Enabled         bool        `yaml:"isEnabled" json:"isEnabled"`
	TriggerType     TriggerType `yaml:"triggerType" json:"triggerType"`
	TriggerValue    string      `yaml:"triggerValue" json:"triggerValue"`
	TargetProfileID string      `yaml:"targetProfileId" json:"targetProfileId"`
}

// Theme is the UI colour scheme preference.
type Theme string

const (
	ThemeLight  Theme = "Light"
	ThemeDark   Theme = "Dark"
	ThemeSystem Theme = "System"
)

// AppConfig is everything the store owns. StartWithWindows, StartMinimized
// and Theme are UI preferences carried through untouched.
type AppConfig struct {
	Profiles         []Profile `yaml:"profiles" json:"profiles"`
	Rules            []Rule    `yaml:"rules" json:"rules"`
	CurrentProfileID string    `yaml:"currentProfileId,omitempty" json:"currentProfileId,omitempty"`
	DefaultProfileID string    `yaml:"defaultProfileId,omitempty" json:"defaultProfileId,omitempty"`
	StartWithWindows bool      `yaml:"startWithWindows" json:"startWithWindows"`
	StartMinimized   bool      `yaml:"startMinimized" json:"startMinimized"`
	Theme            Theme     `yaml:"theme" json:"theme"`
}

func (c AppConfig) clone() AppConfig {
	out := c
	out.Profiles = make([]Profile, len(c.Profiles))
	for i, p := range c.Profiles {
		out.Profiles[i] = p.clone()
	}
	out.Rules = append([]Rule(nil), c.Rules...)
	return out
}

// DefaultProfiles returns the built-in eco, balanced and unleashed profiles.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			ID:                  "eco",
			Name:                "Eco Mode",
			Memory:              "2GB",
			Processors:          1,
			Swap:                "0",
			LocalhostForwarding: true,
			NetworkingMode:      wslconf.NetworkingNAT,
		},
		{
			ID:                  "balanced",
			Name:                "Balanced",
			Memory:              "4GB",
			Processors:          2,
			Swap:                "2GB",
			LocalhostForwarding: true,
			NetworkingMode:      wslconf.NetworkingNAT,
			GUIApplications:     true,
		},
		{
			ID:                  "unleashed",
			Name:                "Unleashed",
			Memory:              "16GB",
			Processors:          8,
			Swap:                "8GB",
			LocalhostForwarding: true,
			NetworkingMode:      wslconf.NetworkingNAT,
			GUIApplications:     true,
		},
	}
}

// BuiltinDefaultID is the profile selected by default after InitDefaults.
const BuiltinDefaultID = "balanced"
