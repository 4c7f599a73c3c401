package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unregisterCmd = &cobra.Command{
	Use:   "unregister NAME",
	Short: "Unregister a distribution and delete its disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !unregisterYes {
			return fmt.Errorf("unregistering %s deletes its disk; pass --yes to confirm", args[0])
		}
		if err := app.mutator.Unregister(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Unregistered %s.\n", args[0])
		return nil
	},
}

var unregisterYes bool

var installCmd = &cobra.Command{
	Use:   "install NAME",
	Short: "Install a distribution from the online catalog",
	Long:  `Install NAME as listed by 'wsltamer online'.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.mutator.Install(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %s.\n", args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import NAME LOCATION ARCHIVE",
	Short: "Register a distribution from an exported archive",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.mutator.Import(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s.\n", args[0])
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export NAME ARCHIVE",
	Short: "Export a distribution to a tar archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.mutator.Export(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s.\n", args[0], args[1])
		return nil
	},
}

var setDefaultCmd = &cobra.Command{
	Use:   "set-default NAME",
	Short: "Make a distribution the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.mutator.SetDefault(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now the default distribution.\n", args[0])
		return nil
	},
}

var terminateCmd = &cobra.Command{
	Use:   "terminate NAME",
	Short: "Stop a running distribution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.mutator.Terminate(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Terminated %s.\n", args[0])
		return nil
	},
}

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Stop all distributions and the WSL 2 VM",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.mutator.Shutdown(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "WSL shut down.")
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start NAME",
	Short: "Boot a distribution in the background",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.mutator.Start(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Started %s.\n", args[0])
		return nil
	},
}

var reclaimCmd = &cobra.Command{
	Use:   "reclaim",
	Short: "Drop the Linux page cache so the VM returns memory to Windows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.mutator.ReclaimMemory(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Page cache dropped.")
		return nil
	},
}

var killAllYes bool

var killAllCmd = &cobra.Command{
	Use:   "kill-all",
	Short: "Force-stop the WSL 2 VM process and shut WSL down",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !killAllYes {
			return fmt.Errorf("kill-all terminates every distribution without a clean shutdown; pass --yes to confirm")
		}
		if err := app.mutator.KillAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "WSL VM killed.")
		return nil
	},
}

func init() {
	killAllCmd.Flags().BoolVarP(&killAllYes, "yes", "y", false, "Confirm force-stopping the VM")
	unregisterCmd.Flags().BoolVarP(&unregisterYes, "yes", "y", false, "Confirm deleting the distribution's disk")
}
