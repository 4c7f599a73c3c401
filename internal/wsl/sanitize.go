package wsl

import (
	"fmt"
	"strings"
	"unicode"
)

const maxNameLen = 100

// ValidateName checks an instance name before it is passed to wsl.exe.
// Names may hold letters, digits, '-', '_' and '.', but never "..".
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: name too long (max %d chars)", ErrInvalidName, maxNameLen)
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '.' {
			return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidName, name)
		}
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ValidateLinuxPath checks an absolute path inside a distribution.
func ValidateLinuxPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}
	if strings.ContainsAny(path, "'\"`$;&|\n\r\x00") {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPath, path)
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: linux path must be absolute", ErrInvalidPath)
	}
	return nil
}

// ValidateWindowsPath checks a host path such as an install location or an
// export file.
func ValidateWindowsPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}
	if strings.ContainsAny(path, "'\"`$;&|\n\r\x00<>") {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPath, path)
	}
	return nil
}
