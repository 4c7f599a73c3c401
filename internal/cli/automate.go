package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/javanstorm/wsltamer/internal/automation"
	"github.com/javanstorm/wsltamer/internal/profile"
)

var automateCmd = &cobra.Command{
	Use:   "automate",
	Short: "Switch profiles automatically until interrupted",
	Long: `Evaluate automation rules periodically and apply the target profile of
the first matching rule. Profiles are applied at most once per cooldown.

Edits to the profile file made while running (for example by another
wsltamer invocation) are picked up without a restart.`,
	Args: cobra.NoArgs,
	RunE: runAutomate,
}

var automateOnce bool

func init() {
	automateCmd.Flags().BoolVar(&automateOnce, "once", false, "Evaluate rules a single time and exit")
}

func runAutomate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	log := app.log.Named("automate")
	runner := automation.NewRunner(app.store, app.probe, app.gateway,
		automation.WithInterval(app.cfg.AutomationInterval),
		automation.WithCooldown(max(app.cfg.ApplyCooldown, 0)),
		automation.WithLimiter(app.limiter),
		automation.WithRunnerLogger(log),
		automation.OnApply(func(rule profile.Rule, warnings []string) {
			fmt.Fprintf(out, "Rule %q applied profile %s\n", rule.Name, rule.TargetProfileID)
			printWarnings(cmd.ErrOrStderr(), warnings)
			if err := app.saveState(); err != nil {
				log.Error("persist current profile", zap.Error(err))
			}
		}))

	if automateOnce {
		rule, err := runner.Tick(ctx)
		if err != nil {
			return err
		}
		if rule == nil {
			fmt.Fprintln(out, "No profile change needed.")
		}
		return nil
	}

	fmt.Fprintf(out, "Watching %d rules every %s (Ctrl+C to stop)\n", ruleCount(), app.cfg.AutomationInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(ctx)
	})
	g.Go(func() error {
		return app.files.Watch(ctx, func(cfg profile.AppConfig) {
			if err := app.store.Load(cfg); err != nil {
				log.Error("reload profiles", zap.Error(err))
				return
			}
			if err := app.store.InitDefaults(); err != nil {
				log.Error("reload profiles", zap.Error(err))
				return
			}
			log.Info("profiles reloaded", zap.Int("rules", len(cfg.Rules)))
		})
	})
	return g.Wait()
}

func ruleCount() int {
	rules, err := app.store.ListRules()
	if err != nil {
		return 0
	}
	return len(rules)
}
