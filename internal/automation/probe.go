package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	scriptProcesses = "Get-Process | Select-Object -ExpandProperty ProcessName -Unique | ConvertTo-Json"
	scriptBattery   = "(Get-CimInstance -ClassName Win32_Battery).BatteryStatus"
	scriptNetwork   = "(Get-NetConnectionProfile | Where-Object {$_.IPv4Connectivity -eq 'Internet'}).Count -gt 0"
)

// ExecProbe implements Probe with PowerShell.
type ExecProbe struct {
	powershell string
	timeout    time.Duration
	now        func() time.Time
	log        *zap.Logger
}

// NewExecProbe creates a probe running the given PowerShell executable.
// Each script is bounded by timeout when it is positive.
func NewExecProbe(powershell string, timeout time.Duration, log *zap.Logger) *ExecProbe {
	if powershell == "" {
		powershell = "powershell"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ExecProbe{powershell: powershell, timeout: timeout, now: time.Now, log: log}
}

func (p *ExecProbe) RunningProcesses(ctx context.Context) ([]string, error) {
	out, err := p.run(ctx, scriptProcesses)
	if err != nil {
		return nil, err
	}
	return parseProcessList(out)
}

// PowerSource reads Win32_Battery.BatteryStatus: 1 is discharging, 2 is on
// AC. Machines without a battery report nothing.
func (p *ExecProbe) PowerSource(ctx context.Context) (string, error) {
	out, err := p.run(ctx, scriptBattery)
	if err != nil {
		return "", err
	}
	switch strings.TrimSpace(out) {
	case "1":
		return PowerBattery.String(), nil
	case "2":
		return PowerAC.String(), nil
	default:
		return PowerUnknown.String(), nil
	}
}

func (p *ExecProbe) LocalTime(ctx context.Context) (string, error) {
	return p.now().Format("15:04"), nil
}

func (p *ExecProbe) Connected(ctx context.Context) (bool, error) {
	out, err := p.run(ctx, scriptNetwork)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(out), "true"), nil
}

func (p *ExecProbe) run(ctx context.Context, script string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.powershell, "-NoProfile", "-Command", script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	p.log.Debug("powershell probe", zap.String("script", script), zap.Duration("took", time.Since(start)), zap.Error(err))
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("powershell: %s: %w", msg, err)
		}
		return "", fmt.Errorf("powershell: %w", err)
	}
	return stdout.String(), nil
}

// parseProcessList decodes ConvertTo-Json output, which is a bare string
// when only one process name is selected.
func parseProcessList(out string) ([]string, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(out), &names); err == nil {
		return names, nil
	}
	var single string
	if err := json.Unmarshal([]byte(out), &single); err != nil {
		return nil, fmt.Errorf("decode process list: %w", err)
	}
	return []string{single}, nil
}
