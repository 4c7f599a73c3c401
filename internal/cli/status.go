package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanstorm/wsltamer/internal/wsl"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show WSL installation status",
	Long:  `Display whether WSL is installed and running, and its default and kernel versions.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, err := wsl.Inspect(cmd.Context(), app.gateway, app.cache)
	if err != nil {
		return fmt.Errorf("inspect wsl: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, status)
	}
	if !status.Installed {
		fmt.Fprintln(out, "WSL: not installed")
		return nil
	}
	fmt.Fprintf(out, "WSL: installed\n")
	fmt.Fprintf(out, "  Running:         %s\n", yesNo(status.Running))
	if status.DefaultVersion != "" {
		fmt.Fprintf(out, "  Default version: %s\n", status.DefaultVersion)
	}
	if status.KernelVersion != "" {
		fmt.Fprintf(out, "  Kernel version:  %s\n", status.KernelVersion)
	}
	return nil
}
