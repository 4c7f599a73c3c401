package wsl

import (
	"strings"
	"unicode"
)

// defaultVersion is assumed when `wsl --list --verbose` omits the column.
const defaultVersion = "2"

// ParseInstances parses `wsl --list --verbose` output.
//
//	  NAME      STATE           VERSION
//	* Ubuntu    Running         2
//	  Debian    Stopped         2
func ParseInstances(output string) []Instance {
	lines := strings.Split(output, "\n")
	if len(lines) > 0 && strings.Contains(lines[0], "NAME") {
		lines = lines[1:]
	}

	instances := make([]Instance, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		isDefault := strings.HasPrefix(line, "*")
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		name := CleanName(parts[0])
		if name == "" {
			continue
		}

		version := defaultVersion
		if len(parts) >= 3 {
			version = parts[2]
		}

		instances = append(instances, Instance{
			Name:      name,
			State:     ParseState(parts[1]),
			Version:   version,
			IsDefault: isDefault,
		})
	}
	return instances
}

// ParseOnline parses `wsl --list --online` output. Everything up to and
// including the NAME/FRIENDLY NAME header is preamble.
func ParseOnline(output string) []OnlineDistribution {
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == "NAME" {
			lines = lines[i+1:]
			break
		}
	}

	var distros []OnlineDistribution
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, friendly, found := strings.Cut(line, " ")
		name = CleanName(name)
		if name == "" {
			continue
		}
		friendly = strings.TrimSpace(friendly)
		if !found || friendly == "" {
			friendly = name
		}
		distros = append(distros, OnlineDistribution{Name: name, FriendlyName: friendly})
	}
	return distros
}

// ParseStatus extracts the default and kernel versions from `wsl --status`.
func ParseStatus(output string) Status {
	status := Status{Installed: true}
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		idx := strings.LastIndex(line, ":")
		if idx < 0 {
			continue
		}
		value := strings.TrimSpace(line[idx+1:])
		switch {
		case strings.Contains(lower, "default version"):
			status.DefaultVersion = value
		case strings.Contains(lower, "kernel version"):
			status.KernelVersion = value
		}
	}
	return status
}

// CleanName strips non-printable characters that leak out of wsl.exe's
// UTF-16 output.
func CleanName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsGraphic(r) || r == ' ') {
			return r
		}
		return -1
	}, name)
	return strings.TrimSpace(cleaned)
}
