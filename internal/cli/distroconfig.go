package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var distroConfigCmd = &cobra.Command{
	Use:   "distro-config NAME",
	Short: "Show or replace a distribution's /etc/wsl.conf",
	Long: `Print /etc/wsl.conf of distribution NAME, or replace it with the
contents of a file using --write FILE ('-' for stdin).`,
	Args: cobra.ExactArgs(1),
	RunE: runDistroConfig,
}

var distroConfigWrite string

func init() {
	distroConfigCmd.Flags().StringVar(&distroConfigWrite, "write", "", "Replace wsl.conf with this file ('-' for stdin)")
}

func runDistroConfig(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := cmd.Context()

	if distroConfigWrite == "" {
		text, err := app.gateway.ReadInstanceConfig(ctx, name)
		if err != nil {
			return fmt.Errorf("read wsl.conf of %s: %w", name, err)
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}

	text, err := readInput(cmd, distroConfigWrite)
	if err != nil {
		return err
	}
	if err := app.mutator.WriteInstanceConfig(ctx, name, text); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wsl.conf of %s updated. Run 'wsltamer terminate %s' to apply.\n", name, name)
	return nil
}
