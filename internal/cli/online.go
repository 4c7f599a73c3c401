package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanstorm/wsltamer/internal/wsl"
)

var onlineCmd = &cobra.Command{
	Use:   "online",
	Short: "List distributions available to install",
	Args:  cobra.NoArgs,
	RunE:  runOnline,
}

func runOnline(cmd *cobra.Command, args []string) error {
	distros, err := wsl.ListOnline(cmd.Context(), app.gateway)
	if err != nil {
		return fmt.Errorf("list online distributions: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, distros)
	}
	t := newTable(out, "NAME", "FRIENDLY NAME")
	for _, d := range distros {
		t.row(d.Name, d.FriendlyName)
	}
	return t.flush()
}
