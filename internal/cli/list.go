package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javanstorm/wsltamer/internal/ratelimit"
	"github.com/javanstorm/wsltamer/internal/wsl"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered WSL distributions",
	Long: `List registered distributions with their state and WSL version.

Results are served from a short-lived cache; use --refresh to query
wsl.exe immediately.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listRefresh bool

func init() {
	listCmd.Flags().BoolVar(&listRefresh, "refresh", false, "Bypass the cache and query wsl.exe")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var (
		instances []wsl.Instance
		err       error
	)
	if listRefresh {
		if err := app.limiter.CheckAndSet(ratelimit.KeyDistroList, time.Second); err != nil {
			return err
		}
		instances, err = app.cache.ForceRefresh(ctx)
	} else {
		instances, err = app.cache.Get(ctx)
	}
	if err != nil {
		return fmt.Errorf("list instances: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, instances)
	}
	if len(instances) == 0 {
		fmt.Fprintln(out, "No distributions installed.")
		return nil
	}

	t := newTable(out, "", "NAME", "STATE", "VERSION")
	for _, inst := range instances {
		marker := ""
		if inst.IsDefault {
			marker = "*"
		}
		t.row(marker, inst.Name, inst.State.String(), inst.Version)
	}
	return t.flush()
}
