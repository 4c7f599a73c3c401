package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/javanstorm/wsltamer/internal/profile"
	"github.com/javanstorm/wsltamer/internal/wslconf"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"profiles"},
	Short:   "Manage resource profiles for .wslconfig",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a profile and the .wslconfig it produces",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCreate,
}

var profileSetCmd = &cobra.Command{
	Use:   "set ID",
	Short: "Change settings of a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSet,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a profile",
	Long:  `Delete a profile. The last remaining profile cannot be deleted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileDefaultCmd = &cobra.Command{
	Use:   "default ID",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.store.SetDefaultProfile(args[0]); err != nil {
			return profileError(args[0], err)
		}
		if err := app.saveState(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default profile is now %s.\n", args[0])
		return nil
	},
}

var profileApplyCmd = &cobra.Command{
	Use:   "apply ID",
	Short: "Write a profile to .wslconfig and make it current",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileApply,
}

var profileCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := app.store.CurrentProfile()
		if errors.Is(err, profile.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No profile is current.")
			return nil
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", p.Name, p.ID)
		return nil
	},
}

// profileFlags holds the settings flags shared by create and set.
var profileFlags struct {
	memory       string
	processors   int
	swap         string
	localhost    bool
	kernel       string
	networking   string
	gui          bool
	debugConsole bool
	name         string
}

func addProfileFlags(fs *pflag.FlagSet) {
	fs.StringVar(&profileFlags.memory, "memory", "4GB", "Memory limit, e.g. 8GB")
	fs.IntVar(&profileFlags.processors, "processors", 2, "Number of processors")
	fs.StringVar(&profileFlags.swap, "swap", "0", "Swap size, e.g. 2GB")
	fs.BoolVar(&profileFlags.localhost, "localhost-forwarding", true, "Forward localhost ports")
	fs.StringVar(&profileFlags.kernel, "kernel", "", "Custom kernel path")
	fs.StringVar(&profileFlags.networking, "networking", "nat", "Networking mode: nat, mirrored or bridged")
	fs.BoolVar(&profileFlags.gui, "gui", true, "Enable GUI applications")
	fs.BoolVar(&profileFlags.debugConsole, "debug-console", false, "Open a debug console on start")
}

func init() {
	addProfileFlags(profileCreateCmd.Flags())
	addProfileFlags(profileSetCmd.Flags())
	profileSetCmd.Flags().StringVar(&profileFlags.name, "name", "", "New display name")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileDefaultCmd)
	profileCmd.AddCommand(profileApplyCmd)
	profileCmd.AddCommand(profileCurrentCmd)
}

// applyProfileFlags copies the flags the user set onto p.
func applyProfileFlags(fs *pflag.FlagSet, p *profile.Profile) {
	if fs.Changed("name") {
		p.Name = profileFlags.name
	}
	if fs.Changed("memory") {
		p.Memory = profileFlags.memory
	}
	if fs.Changed("processors") {
		p.Processors = profileFlags.processors
	}
	if fs.Changed("swap") {
		p.Swap = profileFlags.swap
	}
	if fs.Changed("localhost-forwarding") {
		p.LocalhostForwarding = profileFlags.localhost
	}
	if fs.Changed("kernel") {
		if profileFlags.kernel == "" {
			p.KernelPath = nil
		} else {
			p.KernelPath = wslconf.Ptr(profileFlags.kernel)
		}
	}
	if fs.Changed("networking") {
		p.NetworkingMode = wslconf.ParseNetworkingMode(profileFlags.networking)
	}
	if fs.Changed("gui") {
		p.GUIApplications = profileFlags.gui
	}
	if fs.Changed("debug-console") {
		p.DebugConsole = profileFlags.debugConsole
	}
}

func profileError(id string, err error) error {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		return fmt.Errorf("no profile with id %q", id)
	case errors.Is(err, profile.ErrLastProfile):
		return fmt.Errorf("%s is the only profile left and cannot be deleted", id)
	}
	return err
}

func runProfileList(cmd *cobra.Command, args []string) error {
	profiles, err := app.store.ListProfiles()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, profiles)
	}

	snap, err := app.store.Snapshot()
	if err != nil {
		return err
	}
	t := newTable(out, "", "ID", "NAME", "MEMORY", "CPUS", "SWAP", "NETWORKING")
	for _, p := range profiles {
		marker := ""
		switch p.ID {
		case snap.CurrentProfileID:
			marker = ">"
		case snap.DefaultProfileID:
			marker = "*"
		}
		t.row(marker, p.ID, p.Name, p.Memory, fmt.Sprint(p.Processors), p.Swap, string(p.NetworkingMode))
	}
	return t.flush()
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	p, err := app.store.GetProfile(args[0])
	if err != nil {
		return profileError(args[0], err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, p)
	}
	conf := p.WSLConfig()
	fmt.Fprintf(out, "# %s (%s)\n", p.Name, p.ID)
	fmt.Fprint(out, conf.Render())
	printWarnings(cmd.ErrOrStderr(), conf.Validate())
	return nil
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	p := profile.NewProfile(args[0])
	applyProfileFlags(cmd.Flags(), &p)
	if err := app.store.SaveProfile(p); err != nil {
		return err
	}
	if err := app.saveState(); err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), p.WSLConfig().Validate())
	fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s (%s).\n", p.Name, p.ID)
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	p, err := app.store.GetProfile(args[0])
	if err != nil {
		return profileError(args[0], err)
	}
	applyProfileFlags(cmd.Flags(), &p)
	if err := app.store.SaveProfile(p); err != nil {
		return err
	}
	if err := app.saveState(); err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), p.WSLConfig().Validate())
	fmt.Fprintf(cmd.OutOrStdout(), "Updated profile %s.\n", p.ID)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	if _, err := app.store.GetProfile(args[0]); err != nil {
		return profileError(args[0], err)
	}
	if err := app.store.DeleteProfile(args[0]); err != nil {
		return profileError(args[0], err)
	}
	if err := app.saveState(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %s.\n", args[0])
	return nil
}

func runProfileApply(cmd *cobra.Command, args []string) error {
	warnings, err := app.store.ApplyProfile(cmd.Context(), args[0], app.gateway)
	if err != nil {
		return profileError(args[0], err)
	}
	if err := app.saveState(); err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), warnings)
	fmt.Fprintf(cmd.OutOrStdout(), "Applied profile %s. Run 'wsltamer shutdown' to restart WSL with it.\n", args[0])
	return nil
}
