package automation

import (
	"strings"

	"github.com/javanstorm/wsltamer/internal/profile"
)

// Evaluate reports whether rule fires in state. A disabled rule never
// fires, nor does one whose trigger value is not understood.
func Evaluate(rule profile.Rule, state SystemState) bool {
	if !rule.Enabled {
		return false
	}
	switch rule.TriggerType {
	case profile.TriggerTime:
		return matchTime(rule.TriggerValue, state.CurrentTime)
	case profile.TriggerProcess:
		return matchProcess(rule.TriggerValue, state.RunningProcesses)
	case profile.TriggerPowerState:
		return matchPower(rule.TriggerValue, state.Power)
	case profile.TriggerNetwork:
		return matchNetwork(rule.TriggerValue, state.NetworkConnected)
	default:
		return false
	}
}

// FirstMatch returns the first rule, in order, that fires in state.
func FirstMatch(rules []profile.Rule, state SystemState) (profile.Rule, bool) {
	for _, r := range rules {
		if Evaluate(r, state) {
			return r, true
		}
	}
	return profile.Rule{}, false
}

// ParseTimeRange splits "HH:MM-HH:MM" into its two ends.
func ParseTimeRange(value string) (start, end string, ok bool) {
	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return "", "", false
	}
	start, end = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if !validClock(start) || !validClock(end) {
		return "", "", false
	}
	return start, end, true
}

// matchTime compares zero-padded clocks lexically; a range whose start is
// after its end wraps past midnight.
func matchTime(value, now string) bool {
	start, end, ok := ParseTimeRange(value)
	if !ok || !validClock(now) {
		return false
	}
	if start <= end {
		return now >= start && now <= end
	}
	return now >= start || now <= end
}

func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s[:2] <= "23" && s[3:] <= "59"
}

func normalizeProcess(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".exe")
}

func matchProcess(value string, running []string) bool {
	target := normalizeProcess(value)
	if target == "" {
		return false
	}
	for _, p := range running {
		if normalizeProcess(p) == target {
			return true
		}
	}
	return false
}

func matchPower(value string, power PowerState) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "battery", "on_battery":
		return power == PowerBattery
	case "ac", "plugged", "plugged_in":
		return power == PowerAC
	default:
		return false
	}
}

func matchNetwork(value string, connected bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "connected", "online":
		return connected
	case "disconnected", "offline":
		return !connected
	default:
		return false
	}
}
