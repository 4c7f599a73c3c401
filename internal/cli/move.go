package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanstorm/wsltamer/internal/timing"
	"github.com/javanstorm/wsltamer/internal/wsl"
)

var moveCmd = &cobra.Command{
	Use:   "move NAME LOCATION",
	Short: "Relocate a distribution's disk",
	Long: `Move NAME so that its disk lives under LOCATION, keeping its name.

The distribution is first copied to LOCATION under a temporary name and
only then unregistered from its old location, so a failure before that
point leaves it untouched. If the final rename fails, the copy stays
registered under the temporary name and the command reports it.`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

var moveTimings bool

func init() {
	moveCmd.Flags().BoolVar(&moveTimings, "timings", false, "Print how long each phase took")
}

var movePhaseLabels = map[wsl.MovePhase]string{
	wsl.MoveExport:  "Exporting",
	wsl.MoveStage:   "Importing at new location",
	wsl.MoveRelease: "Unregistering original",
	wsl.MoveRestore: "Restoring original name",
}

func runMove(cmd *cobra.Command, args []string) error {
	name, location := args[0], args[1]
	out := cmd.OutOrStdout()

	timer := timing.New()
	var last wsl.MovePhase
	mutator := wsl.NewMutator(app.gateway, app.cache,
		wsl.WithTempDir(app.cfg.TempDir),
		wsl.WithMutatorLogger(app.log.Named("mutator")),
		wsl.WithPhaseHook(func(_ string, phase wsl.MovePhase) {
			if last != 0 {
				timer.Mark(last.String())
			}
			last = phase
			if phase != wsl.MoveDone {
				fmt.Fprintf(out, "[%d/4] %s...\n", int(phase), movePhaseLabels[phase])
			}
		}))

	err := mutator.Move(cmd.Context(), name, location)

	var partial *wsl.PartialFailureError
	if errors.As(err, &partial) {
		fmt.Fprintf(cmd.ErrOrStderr(), "The distribution is registered as %q.\n", partial.Survivor)
		if partial.Artifact != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Its export is kept at %s; import it with: wsltamer import %s %s %s\n",
				partial.Artifact, name, location, partial.Artifact)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Finish the rename by cloning %q back to %q.\n", partial.Survivor, name)
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("move %s: %w", name, err)
	}

	fmt.Fprintf(out, "Moved %s to %s.\n", name, location)
	if moveTimings {
		timer.Report(out, "Move timings")
	}
	return nil
}
