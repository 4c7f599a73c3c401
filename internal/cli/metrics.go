package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/javanstorm/wsltamer/internal/monitor"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show WSL memory usage",
	Long: `Show memory used inside the WSL 2 VM against the .wslconfig limit, and
the state of each distribution. With --watch, repeat until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runMetrics,
}

var metricsWatch bool

func init() {
	metricsCmd.Flags().BoolVarP(&metricsWatch, "watch", "w", false, "Refresh until interrupted")
}

type metricsReport struct {
	System  monitor.SystemMetrics   `json:"system"`
	Distros []monitor.DistroMetrics `json:"distros"`
}

func runMetrics(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	out := cmd.OutOrStdout()

	for {
		report, err := collectMetrics(cmd)
		if err != nil {
			return err
		}
		if jsonOutput {
			if err := printJSON(out, report); err != nil {
				return err
			}
		} else {
			printMetrics(out, report)
		}
		if !metricsWatch {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(app.cfg.MetricsInterval):
		}
		fmt.Fprintln(out)
	}
}

func collectMetrics(cmd *cobra.Command) (metricsReport, error) {
	var report metricsReport
	var err error
	report.System, err = app.collector.System(cmd.Context())
	if err != nil {
		return report, fmt.Errorf("collect system metrics: %w", err)
	}
	report.Distros, err = app.collector.Distros(cmd.Context())
	if err != nil {
		return report, fmt.Errorf("collect distribution metrics: %w", err)
	}
	return report, nil
}

func printMetrics(w io.Writer, r metricsReport) {
	sys := r.System
	fmt.Fprintf(w, "WSL %s at %s\n", runningLabel(sys.Running), sys.Timestamp.Format("15:04:05"))
	fmt.Fprintf(w, "Memory limit: %s\n", formatMB(sys.MemoryLimitMB))
	if m := sys.Memory; m != nil {
		fmt.Fprintf(w, "Memory used:  %s of %s", formatMB(m.UsedMB), formatMB(m.TotalMB))
		if m.TotalMB > 0 {
			fmt.Fprintf(w, " (%s%%)", humanize.FtoaWithDigits(m.UsedMB/m.TotalMB*100, 1))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  available %s, cached %s, buffers %s\n",
			formatMB(m.AvailableMB), formatMB(m.CachedMB), formatMB(m.BuffersMB))
		if m.SwapTotalMB > 0 {
			fmt.Fprintf(w, "Swap used:    %s of %s\n", formatMB(m.SwapUsedMB), formatMB(m.SwapTotalMB))
		}
	}

	if len(r.Distros) == 0 {
		return
	}
	fmt.Fprintln(w)
	t := newTable(w, "NAME", "VERSION", "RUNNING")
	for _, d := range r.Distros {
		t.row(d.Name, d.Version, yesNo(d.Running))
	}
	t.flush()
}

func runningLabel(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}
