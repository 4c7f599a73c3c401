package wsl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ExecGateway implements Gateway by running wsl.exe.
type ExecGateway struct {
	binary           string
	powershell       string
	timeout          time.Duration
	globalConfigPath string
	log              *zap.Logger
}

// ExecOption configures an ExecGateway.
type ExecOption func(*ExecGateway)

// WithBinary sets the wsl executable (default "wsl.exe").
func WithBinary(path string) ExecOption {
	return func(g *ExecGateway) { g.binary = path }
}

// WithPowerShell sets the PowerShell executable used by KillAll (default
// "powershell.exe").
func WithPowerShell(path string) ExecOption {
	return func(g *ExecGateway) { g.powershell = path }
}

// WithQueryTimeout bounds read-only commands. Mutating commands such as
// export and import are never given a deadline.
func WithQueryTimeout(d time.Duration) ExecOption {
	return func(g *ExecGateway) { g.timeout = d }
}

// WithGlobalConfigPath overrides the location of .wslconfig.
func WithGlobalConfigPath(path string) ExecOption {
	return func(g *ExecGateway) { g.globalConfigPath = path }
}

// WithExecLogger sets the logger.
func WithExecLogger(log *zap.Logger) ExecOption {
	return func(g *ExecGateway) { g.log = log }
}

// NewExecGateway creates a gateway backed by wsl.exe.
func NewExecGateway(opts ...ExecOption) *ExecGateway {
	g := &ExecGateway{
		binary:     "wsl.exe",
		powershell: "powershell.exe",
		timeout:    30 * time.Second,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.globalConfigPath == "" {
		g.globalConfigPath = DefaultGlobalConfigPath()
	}
	return g
}

// DefaultGlobalConfigPath returns %USERPROFILE%\.wslconfig.
func DefaultGlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".wslconfig")
}

// GlobalConfigPath returns the .wslconfig path this gateway writes.
func (g *ExecGateway) GlobalConfigPath() string {
	return g.globalConfigPath
}

func (g *ExecGateway) ListInstances(ctx context.Context) (string, error) {
	return g.query(ctx, "list", "--list", "--verbose")
}

func (g *ExecGateway) ListOnline(ctx context.Context) (string, error) {
	return g.query(ctx, "list-online", "--list", "--online")
}

func (g *ExecGateway) Status(ctx context.Context) (string, error) {
	return g.query(ctx, "status", "--status")
}

func (g *ExecGateway) ReadMemInfo(ctx context.Context, distro string) (string, error) {
	return g.catFile(ctx, "meminfo", distro, "", "/proc/meminfo")
}

func (g *ExecGateway) ReadInstanceConfig(ctx context.Context, name string) (string, error) {
	return g.catFile(ctx, "read-config", name, "root", "/etc/wsl.conf")
}

// catFile prints a file from inside distro (the default one when empty),
// as user when set.
func (g *ExecGateway) catFile(ctx context.Context, op, distro, user, path string) (string, error) {
	if err := ValidateLinuxPath(path); err != nil {
		return "", err
	}
	var args []string
	if distro != "" {
		if err := ValidateName(distro); err != nil {
			return "", err
		}
		args = append(args, "-d", distro)
	}
	if user != "" {
		args = append(args, "-u", user)
	}
	args = append(args, "--", "cat", path)
	return g.query(ctx, op, args...)
}

func (g *ExecGateway) ReadGlobalConfig(ctx context.Context) (string, error) {
	data, err := os.ReadFile(g.globalConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", &CommandError{Op: "read-global-config", Err: err}
	}
	return string(data), nil
}

func (g *ExecGateway) Export(ctx context.Context, name, artifactPath string) error {
	_, err := g.command(ctx, "export", nil, "--export", name, artifactPath)
	return err
}

func (g *ExecGateway) Import(ctx context.Context, name, location, artifactPath string) error {
	_, err := g.command(ctx, "import", nil, "--import", name, location, artifactPath)
	return err
}

func (g *ExecGateway) Unregister(ctx context.Context, name string) error {
	_, err := g.command(ctx, "unregister", nil, "--unregister", name)
	return err
}

func (g *ExecGateway) SetDefault(ctx context.Context, name string) error {
	_, err := g.command(ctx, "set-default", nil, "--set-default", name)
	return err
}

func (g *ExecGateway) Install(ctx context.Context, name string) error {
	_, err := g.command(ctx, "install", nil, "--install", "-d", name)
	return err
}

func (g *ExecGateway) Terminate(ctx context.Context, name string) error {
	_, err := g.command(ctx, "terminate", nil, "--terminate", name)
	return err
}

func (g *ExecGateway) Shutdown(ctx context.Context) error {
	_, err := g.command(ctx, "shutdown", nil, "--shutdown")
	return err
}

func (g *ExecGateway) Start(ctx context.Context, name string) error {
	_, err := g.command(ctx, "start", nil, "-d", name, "--", "echo", "started")
	return err
}

func (g *ExecGateway) ReclaimMemory(ctx context.Context) error {
	_, err := g.command(ctx, "reclaim-memory", nil,
		"-u", "root", "--", "sh", "-c", "echo 1 > /proc/sys/vm/drop_caches")
	return err
}

func (g *ExecGateway) KillAll(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, g.powershell, "-NoProfile", "-NonInteractive", "-Command",
		"Get-Process vmmemWSL -ErrorAction SilentlyContinue | Stop-Process -Force")
	if out, err := cmd.CombinedOutput(); err != nil {
		return &CommandError{Op: "kill-vm", Stderr: strings.TrimSpace(string(out)), Err: err}
	}
	return g.Shutdown(ctx)
}

func (g *ExecGateway) WriteGlobalConfig(ctx context.Context, text string) error {
	if err := os.WriteFile(g.globalConfigPath, []byte(text), 0644); err != nil {
		return &CommandError{Op: "write-global-config", Err: err}
	}
	return nil
}

// WriteInstanceConfig pipes text on stdin so no user content ends up in the
// command line.
func (g *ExecGateway) WriteInstanceConfig(ctx context.Context, name, text string) error {
	_, err := g.command(ctx, "write-config", strings.NewReader(text),
		"-d", name, "-u", "root", "--", "sh", "-c", "cat > /etc/wsl.conf")
	return err
}

func (g *ExecGateway) query(ctx context.Context, op string, args ...string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return g.run(ctx, op, nil, args)
}

func (g *ExecGateway) command(ctx context.Context, op string, stdin io.Reader, args ...string) (string, error) {
	return g.run(ctx, op, stdin, args)
}

func (g *ExecGateway) run(ctx context.Context, op string, stdin io.Reader, args []string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	g.log.Debug("wsl command",
		zap.String("op", op),
		zap.Strings("args", args),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))

	if err != nil {
		msg := strings.TrimSpace(DecodeOutput(stderr.Bytes()))
		if msg == "" {
			// wsl.exe reports most failures on stdout.
			msg = strings.TrimSpace(DecodeOutput(stdout.Bytes()))
		}
		return "", &CommandError{Op: op, Args: args, Stderr: msg, Err: err}
	}
	return DecodeOutput(stdout.Bytes()), nil
}
