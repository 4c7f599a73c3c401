package automation

import (
	"fmt"
	"strings"

	"github.com/javanstorm/wsltamer/internal/profile"
)

// ValidateRule returns a warning for every problem that would keep rule
// from ever firing or from applying anything. When profiles is non-nil the
// target must be one of them.
func ValidateRule(rule profile.Rule, profiles []profile.Profile) []string {
	var warnings []string

	if strings.TrimSpace(rule.Name) == "" {
		warnings = append(warnings, "Rule name is required")
	}
	if strings.TrimSpace(rule.TargetProfileID) == "" {
		warnings = append(warnings, "Target profile is required")
	} else if profiles != nil && !hasProfile(profiles, rule.TargetProfileID) {
		warnings = append(warnings, fmt.Sprintf("Target profile '%s' does not exist", rule.TargetProfileID))
	}

	value := strings.TrimSpace(rule.TriggerValue)
	if value == "" {
		warnings = append(warnings, "Trigger value is required")
		return warnings
	}

	switch rule.TriggerType {
	case profile.TriggerTime:
		if _, _, ok := ParseTimeRange(value); !ok {
			warnings = append(warnings,
				fmt.Sprintf("Invalid time range '%s': expected e.g. '22:00-06:00'", value))
		}
	case profile.TriggerPowerState:
		if !oneOf(value, "battery", "on_battery", "ac", "plugged", "plugged_in") {
			warnings = append(warnings,
				fmt.Sprintf("Unknown power state '%s': expected 'battery' or 'ac'", value))
		}
	case profile.TriggerNetwork:
		if !oneOf(value, "connected", "online", "disconnected", "offline") {
			warnings = append(warnings,
				fmt.Sprintf("Unknown network state '%s': expected 'connected' or 'disconnected'", value))
		}
	case profile.TriggerProcess:
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown trigger type '%s'", rule.TriggerType))
	}
	return warnings
}

func oneOf(value string, options ...string) bool {
	value = strings.ToLower(value)
	for _, o := range options {
		if value == o {
			return true
		}
	}
	return false
}

func hasProfile(profiles []profile.Profile, id string) bool {
	for _, p := range profiles {
		if p.ID == id {
			return true
		}
	}
	return false
}
