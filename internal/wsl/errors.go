package wsl

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBusy means a refresh of the instance list is in flight and there
	// is no earlier snapshot to fall back to.
	ErrBusy = errors.New("wsl: instance list is being refreshed, retry shortly")

	ErrInvalidName = errors.New("wsl: invalid instance name")
	ErrInvalidPath = errors.New("wsl: invalid path")
)

// CommandError reports a failed external command: a non-zero exit status
// or an I/O failure. Stderr holds the command's own message.
type CommandError struct {
	Op     string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "wsl %s failed", e.Op)
	switch {
	case e.Stderr != "":
		b.WriteString(": ")
		b.WriteString(e.Stderr)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CommandError) Unwrap() error { return e.Err }

// PartialFailureError is returned when a move failed after the original
// instance had already been unregistered. The instance survives as Survivor;
// renaming it back to Name has to be finished by hand. If even that
// registration could not be kept, Artifact names the export that still holds
// the instance's filesystem.
type PartialFailureError struct {
	Name     string
	Survivor string
	Artifact string
	Err      error
}

func (e *PartialFailureError) Error() string {
	if e.Artifact != "" {
		return fmt.Sprintf("move of %q failed after unregistering it; its export is kept at %q: %v",
			e.Name, e.Artifact, e.Err)
	}
	return fmt.Sprintf("move of %q succeeded but rename failed (instance available as %q): %v",
		e.Name, e.Survivor, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
