package wsl

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"Ubuntu", false},
		{"Ubuntu-22.04", false},
		{"my_distro", false},
		{"", true},
		{strings.Repeat("a", 101), true},
		{"a b", true},
		{"rm;-rf", true},
		{"$(whoami)", true},
		{"..", true},
		{"a..b", true},
	}
	for _, tt := range tests {
		err := ValidateName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) error = %v, want ErrInvalidName", tt.name, err)
		}
	}
}

func TestValidateLinuxPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"/etc/wsl.conf", false},
		{"relative/path", true},
		{"", true},
		{"/tmp/$(id)", true},
		{"/tmp/a;b", true},
	}
	for _, tt := range tests {
		err := ValidateLinuxPath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateLinuxPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
	}
}

func TestValidateWindowsPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{`C:\WSL\Ubuntu`, false},
		{`D:\backups\ubuntu.tar`, false},
		{"", true},
		{`C:\a|b`, true},
		{`C:\<x>`, true},
	}
	for _, tt := range tests {
		err := ValidateWindowsPath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateWindowsPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ValidateWindowsPath(%q) error = %v, want ErrInvalidPath", tt.path, err)
		}
	}
}

func TestCommandErrorMessage(t *testing.T) {
	base := errors.New("exit status 1")
	tests := []struct {
		err  *CommandError
		want string
	}{
		{&CommandError{Op: "export", Stderr: "There is no distribution", Err: base}, "wsl export failed: There is no distribution"},
		{&CommandError{Op: "import", Err: base}, "wsl import failed: exit status 1"},
		{&CommandError{Op: "list"}, "wsl list failed"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
	if !errors.Is(tests[0].err, base) {
		t.Error("CommandError does not unwrap to its cause")
	}
}
