// Package wslconf reads, writes and checks the host-wide .wslconfig file.
package wslconf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

func init() {
	// wsl.exe expects key=value with no padding.
	ini.PrettyFormat = false
	ini.PrettyEqual = false
}

// Section names.
const (
	SectionWSL2         = "wsl2"
	SectionExperimental = "experimental"
)

// NetworkingMode selects how WSL 2 exposes the network.
type NetworkingMode string

const (
	NetworkingNAT      NetworkingMode = "nat"
	NetworkingMirrored NetworkingMode = "mirrored"
	NetworkingBridged  NetworkingMode = "bridged"
)

// ParseNetworkingMode maps s to a mode, case-insensitively. Anything
// unrecognised is NAT.
func ParseNetworkingMode(s string) NetworkingMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mirrored":
		return NetworkingMirrored
	case "bridged":
		return NetworkingBridged
	default:
		return NetworkingNAT
	}
}

// UnmarshalText accepts any case and falls back to NAT.
func (m *NetworkingMode) UnmarshalText(text []byte) error {
	*m = ParseNetworkingMode(string(text))
	return nil
}

// WSLConfig is a typed .wslconfig. A nil field is absent from the file.
type WSLConfig struct {
	// [wsl2]
	Memory               *string         `json:"memory,omitempty"`
	Processors           *int            `json:"processors,omitempty"`
	Swap                 *string         `json:"swap,omitempty"`
	SwapFile             *string         `json:"swapFile,omitempty"`
	LocalhostForwarding  *bool           `json:"localhostForwarding,omitempty"`
	Kernel               *string         `json:"kernel,omitempty"`
	KernelCommandLine    *string         `json:"kernelCommandLine,omitempty"`
	SafeMode             *bool           `json:"safeMode,omitempty"`
	NestedVirtualization *bool           `json:"nestedVirtualization,omitempty"`
	PageReporting        *bool           `json:"pageReporting,omitempty"`
	DebugConsole         *bool           `json:"debugConsole,omitempty"`
	GUIApplications      *bool           `json:"guiApplications,omitempty"`
	NetworkingMode       *NetworkingMode `json:"networkingMode,omitempty"`
	Firewall             *bool           `json:"firewall,omitempty"`
	DNSTunneling         *bool           `json:"dnsTunneling,omitempty"`

	// [experimental]
	AutoProxy *bool `json:"autoProxy,omitempty"`
	SparseVHD *bool `json:"sparseVhd,omitempty"`
}

// Ptr returns a pointer to v, for filling optional fields.
func Ptr[T any](v T) *T {
	return &v
}

// Parse reads .wslconfig text. Unknown keys and sections are ignored; an
// unparsable processors value is treated as absent.
func Parse(text string) (WSLConfig, error) {
	f, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, []byte(text))
	if err != nil {
		return WSLConfig{}, fmt.Errorf("invalid INI format: %w", err)
	}

	var c WSLConfig
	if sec, err := f.GetSection(SectionWSL2); err == nil {
		c.Memory = stringKey(sec, "memory")
		c.Processors = intKey(sec, "processors")
		c.Swap = stringKey(sec, "swap")
		c.SwapFile = stringKey(sec, "swapFile")
		c.LocalhostForwarding = boolKey(sec, "localhostForwarding")
		c.Kernel = stringKey(sec, "kernel")
		c.KernelCommandLine = stringKey(sec, "kernelCommandLine")
		c.SafeMode = boolKey(sec, "safeMode")
		c.NestedVirtualization = boolKey(sec, "nestedVirtualization")
		c.PageReporting = boolKey(sec, "pageReporting")
		c.DebugConsole = boolKey(sec, "debugConsole")
		c.GUIApplications = boolKey(sec, "guiApplications")
		if v := stringKey(sec, "networkingMode"); v != nil {
			c.NetworkingMode = Ptr(ParseNetworkingMode(*v))
		}
		c.Firewall = boolKey(sec, "firewall")
		c.DNSTunneling = boolKey(sec, "dnsTunneling")
	}
	if sec, err := f.GetSection(SectionExperimental); err == nil {
		c.AutoProxy = boolKey(sec, "autoProxy")
		c.SparseVHD = boolKey(sec, "sparseVhd")
	}
	return c, nil
}

// Render writes c as .wslconfig text. Only set fields are written, in a
// fixed order. An empty config renders as "".
func (c WSLConfig) Render() string {
	f := ini.Empty()

	wsl2 := f.Section(SectionWSL2)
	setString(wsl2, "memory", c.Memory)
	if c.Processors != nil {
		setValue(wsl2, "processors", strconv.Itoa(*c.Processors))
	}
	setString(wsl2, "swap", c.Swap)
	setString(wsl2, "swapFile", c.SwapFile)
	setBool(wsl2, "localhostForwarding", c.LocalhostForwarding)
	setString(wsl2, "kernel", c.Kernel)
	setString(wsl2, "kernelCommandLine", c.KernelCommandLine)
	setBool(wsl2, "safeMode", c.SafeMode)
	setBool(wsl2, "nestedVirtualization", c.NestedVirtualization)
	setBool(wsl2, "pageReporting", c.PageReporting)
	setBool(wsl2, "debugConsole", c.DebugConsole)
	setBool(wsl2, "guiApplications", c.GUIApplications)
	if c.NetworkingMode != nil {
		setValue(wsl2, "networkingMode", string(*c.NetworkingMode))
	}
	setBool(wsl2, "firewall", c.Firewall)
	setBool(wsl2, "dnsTunneling", c.DNSTunneling)

	if c.AutoProxy != nil || c.SparseVHD != nil {
		exp := f.Section(SectionExperimental)
		setBool(exp, "autoProxy", c.AutoProxy)
		setBool(exp, "sparseVhd", c.SparseVHD)
	}
	if len(wsl2.Keys()) == 0 {
		f.DeleteSection(SectionWSL2)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return ""
	}
	out := strings.TrimSpace(buf.String())
	if out == "" {
		return ""
	}
	return out + "\n"
}

// Validate returns a warning for every value wsl.exe would reject or
// ignore. It never fails.
func (c WSLConfig) Validate() []string {
	var warnings []string

	if c.Memory != nil && !hasSizeSuffix(*c.Memory) {
		warnings = append(warnings,
			fmt.Sprintf("Invalid memory format '%s': expected e.g. '4GB' or '512MB'", *c.Memory))
	}
	if c.Processors != nil && (*c.Processors < 1 || *c.Processors > 128) {
		warnings = append(warnings,
			fmt.Sprintf("Processor count %d out of range (1-128)", *c.Processors))
	}
	if c.Swap != nil && *c.Swap != "0" && !hasSizeSuffix(*c.Swap) {
		warnings = append(warnings,
			fmt.Sprintf("Invalid swap format '%s': expected e.g. '2GB', '512MB', or '0'", *c.Swap))
	}
	return warnings
}

func hasSizeSuffix(s string) bool {
	upper := strings.ToUpper(s)
	return strings.HasSuffix(upper, "GB") || strings.HasSuffix(upper, "MB")
}

func stringKey(sec *ini.Section, name string) *string {
	if !sec.HasKey(name) {
		return nil
	}
	return Ptr(sec.Key(name).String())
}

func intKey(sec *ini.Section, name string) *int {
	if !sec.HasKey(name) {
		return nil
	}
	n, err := sec.Key(name).Int()
	if err != nil {
		return nil
	}
	return &n
}

func boolKey(sec *ini.Section, name string) *bool {
	if !sec.HasKey(name) {
		return nil
	}
	return Ptr(strings.EqualFold(sec.Key(name).String(), "true"))
}

func setValue(sec *ini.Section, name, value string) {
	// NewKey only fails on an empty name.
	_, _ = sec.NewKey(name, value)
}

func setString(sec *ini.Section, name string, v *string) {
	if v != nil {
		setValue(sec, name, *v)
	}
}

func setBool(sec *ini.Section, name string, v *bool) {
	if v != nil {
		setValue(sec, name, strconv.FormatBool(*v))
	}
}
