package config

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// ValidationError represents a configuration issue.
type ValidationError struct {
	Field   string
	Message string
	Fatal   bool // true = can't proceed, false = default is used instead
}

// ValidateConfig checks settings that cannot be caught by unmarshaling.
func ValidateConfig(cfg *Config) []ValidationError {
	var errors []ValidationError

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		errors = append(errors, ValidationError{
			Field:   "LogLevel",
			Message: fmt.Sprintf("Unknown log level %q: expected debug, info, warn or error", cfg.LogLevel),
			Fatal:   true,
		})
	}

	if cfg.WSLPath == "" {
		errors = append(errors, ValidationError{
			Field:   "WSLPath",
			Message: "wsl.exe path is empty",
			Fatal:   true,
		})
	}

	if cfg.StatePath == "" {
		errors = append(errors, ValidationError{
			Field:   "StatePath",
			Message: "Profile state path is empty",
			Fatal:   true,
		})
	}

	durations := []struct {
		field string
		value time.Duration
	}{
		{"CommandTimeout", cfg.CommandTimeout},
		{"CacheTTL", cfg.CacheTTL},
		{"MetricsInterval", cfg.MetricsInterval},
		{"AutomationInterval", cfg.AutomationInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, ValidationError{
				Field:   d.field,
				Message: fmt.Sprintf("Must be positive, got %s", d.value),
				Fatal:   true,
			})
		}
	}

	if cfg.ApplyCooldown < 0 {
		errors = append(errors, ValidationError{
			Field:   "ApplyCooldown",
			Message: fmt.Sprintf("Negative cooldown %s will be treated as zero", cfg.ApplyCooldown),
			Fatal:   false,
		})
	}

	if cfg.AutomationInterval > 0 && cfg.AutomationInterval < 5*time.Second {
		errors = append(errors, ValidationError{
			Field:   "AutomationInterval",
			Message: "Polling more often than every 5s spawns PowerShell continuously",
			Fatal:   false,
		})
	}

	return errors
}

// HasFatal reports whether any of errors prevents startup.
func HasFatal(errors []ValidationError) bool {
	for _, e := range errors {
		if e.Fatal {
			return true
		}
	}
	return false
}

// FormatValidationErrors returns human-readable error summary.
func FormatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Configuration warnings:\n")
	for _, e := range errors {
		prefix := "Warning"
		if e.Fatal {
			prefix = "Error"
		}
		fmt.Fprintf(&b, "  %s [%s]: %s\n", prefix, e.Field, e.Message)
	}
	return b.String()
}
