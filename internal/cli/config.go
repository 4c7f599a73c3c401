package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanstorm/wsltamer/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show wsltamer settings",
	Long: `Show the effective wsltamer settings and any validation warnings.

Settings come from config.yaml in the config directory and from
WSLTAMER_* environment variables, e.g. WSLTAMER_CACHE_TTL=5s.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := app.cfg
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, cfg)
	}

	file := config.ConfigFileUsed()
	if file == "" {
		file = "(none, using defaults)"
	}
	fmt.Fprintln(out, "wsltamer Configuration")
	fmt.Fprintln(out, "======================")
	fmt.Fprintf(out, "Config file:         %s\n", file)
	fmt.Fprintf(out, "Profile state:       %s\n", cfg.StatePath)
	fmt.Fprintf(out, "Temp dir:            %s\n", cfg.TempDir)
	fmt.Fprintf(out, "wsl.exe:             %s\n", cfg.WSLPath)
	fmt.Fprintf(out, "PowerShell:          %s\n", cfg.PowerShellPath)
	fmt.Fprintf(out, "Command timeout:     %s\n", cfg.CommandTimeout)
	fmt.Fprintf(out, "Cache TTL:           %s\n", cfg.CacheTTL)
	fmt.Fprintf(out, "Metrics interval:    %s\n", cfg.MetricsInterval)
	fmt.Fprintf(out, "Automation interval: %s\n", cfg.AutomationInterval)
	fmt.Fprintf(out, "Apply cooldown:      %s\n", cfg.ApplyCooldown)
	fmt.Fprintf(out, "Log level:           %s\n", cfg.LogLevel)

	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, config.FormatValidationErrors(errs))
	}
	return nil
}
