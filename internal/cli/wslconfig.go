package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/javanstorm/wsltamer/internal/wslconf"
)

var wslconfigCmd = &cobra.Command{
	Use:   "wslconfig",
	Short: "Read, check and write the global .wslconfig",
}

var wslconfigShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current .wslconfig and any warnings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := app.gateway.ReadGlobalConfig(cmd.Context())
		if err != nil {
			return fmt.Errorf("read .wslconfig: %w", err)
		}
		conf, err := wslconf.Parse(text)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, conf)
		}
		rendered := conf.Render()
		if rendered == "" {
			fmt.Fprintln(out, "No .wslconfig settings.")
		} else {
			fmt.Fprint(out, rendered)
		}
		printWarnings(cmd.ErrOrStderr(), conf.Validate())
		return nil
	},
}

var wslconfigWriteCmd = &cobra.Command{
	Use:   "write FILE",
	Short: "Replace .wslconfig with the settings in FILE ('-' for stdin)",
	Long: `Parse FILE as a .wslconfig, normalise it and write it as the global
.wslconfig. Out-of-range values are written anyway and reported as
warnings. Changes take effect after 'wsltamer shutdown'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		conf, err := wslconf.Parse(text)
		if err != nil {
			return err
		}
		if err := app.gateway.WriteGlobalConfig(cmd.Context(), conf.Render()); err != nil {
			return fmt.Errorf("write .wslconfig: %w", err)
		}
		printWarnings(cmd.ErrOrStderr(), conf.Validate())
		fmt.Fprintln(cmd.OutOrStdout(), ".wslconfig updated. Run 'wsltamer shutdown' to apply.")
		return nil
	},
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func init() {
	wslconfigCmd.AddCommand(wslconfigShowCmd)
	wslconfigCmd.AddCommand(wslconfigWriteCmd)
}
