package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cloneCmd = &cobra.Command{
	Use:   "clone SOURCE NEW_NAME LOCATION",
	Short: "Copy a distribution under a new name",
	Long: `Export SOURCE and import the export as NEW_NAME with its disk under
LOCATION (a Windows path such as D:\WSL\Ubuntu-copy). SOURCE is left as is.

Once started, the copy runs to completion even if interrupted.`,
	Args: cobra.ExactArgs(3),
	RunE: runClone,
}

func runClone(cmd *cobra.Command, args []string) error {
	source, newName, location := args[0], args[1], args[2]
	fmt.Fprintf(cmd.OutOrStdout(), "Cloning %s to %s at %s...\n", source, newName, location)
	if err := app.mutator.Clone(cmd.Context(), source, newName, location); err != nil {
		return fmt.Errorf("clone %s: %w", source, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cloned %s as %s.\n", source, newName)
	return nil
}
