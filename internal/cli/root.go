// Package cli provides the command-line interface for wsltamer.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javanstorm/wsltamer/internal/automation"
	"github.com/javanstorm/wsltamer/internal/config"
	"github.com/javanstorm/wsltamer/internal/logging"
	"github.com/javanstorm/wsltamer/internal/monitor"
	"github.com/javanstorm/wsltamer/internal/profile"
	"github.com/javanstorm/wsltamer/internal/ratelimit"
	"github.com/javanstorm/wsltamer/internal/wsl"
)

// services is the composition root shared by all commands.
type services struct {
	cfg       *config.Config
	log       *zap.Logger
	gateway   wsl.Gateway
	cache     *wsl.Cache
	mutator   *wsl.Mutator
	limiter   *ratelimit.Cooldown
	store     *profile.Store
	files     *profile.FileStore
	collector *monitor.Collector
	probe     automation.Probe
}

// Overridden by tests.
var (
	newGateway = func(cfg *config.Config, log *zap.Logger) wsl.Gateway {
		return wsl.NewExecGateway(
			wsl.WithBinary(cfg.WSLPath),
			wsl.WithPowerShell(cfg.PowerShellPath),
			wsl.WithQueryTimeout(cfg.CommandTimeout),
			wsl.WithGlobalConfigPath(cfg.GlobalConfigPath),
			wsl.WithExecLogger(log.Named("gateway")),
		)
	}
	newProbe = func(cfg *config.Config, log *zap.Logger) automation.Probe {
		return automation.NewExecProbe(cfg.PowerShellPath, cfg.CommandTimeout, log.Named("probe"))
	}
)

var app *services

var (
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "wsltamer",
	Short: "wsltamer - manage WSL distributions and resource profiles",
	Long: `wsltamer manages WSL distributions from the command line.

It lists, clones and relocates distributions, keeps named resource
profiles for .wslconfig, and can switch profiles automatically based on
time of day, running processes, power source or network state.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip service construction for commands that don't need it
		switch cmd.Name() {
		case "version", "completion", "help":
			return nil
		}
		if app != nil {
			return nil
		}
		if err := config.Load(); err != nil {
			return err
		}
		cfg := config.Global
		if verbose {
			cfg.LogLevel = "debug"
		}
		errs := config.ValidateConfig(cfg)
		if config.HasFatal(errs) {
			return errors.New(config.FormatValidationErrors(errs))
		}

		log, err := logging.New(cfg.LogLevel, cfg.LogJSON)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		for _, e := range errs {
			log.Warn("configuration", zap.String("field", e.Field), zap.String("message", e.Message))
		}

		s, err := buildServices(cfg, log, newGateway(cfg, log), newProbe(cfg, log))
		if err != nil {
			return err
		}
		app = s
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			_ = app.log.Sync()
		}
	},
}

func buildServices(cfg *config.Config, log *zap.Logger, gw wsl.Gateway, probe automation.Probe) (*services, error) {
	s := &services{
		cfg:     cfg,
		log:     log,
		gateway: gw,
		probe:   probe,
		limiter: ratelimit.New(),
	}
	s.cache = wsl.NewCache(gw,
		wsl.WithTTL(cfg.CacheTTL),
		wsl.WithCacheLogger(log.Named("cache")))
	s.mutator = wsl.NewMutator(gw, s.cache,
		wsl.WithTempDir(cfg.TempDir),
		wsl.WithMutatorLogger(log.Named("mutator")))
	s.collector = monitor.NewCollector(gw, s.cache,
		monitor.WithInterval(cfg.MetricsInterval),
		monitor.WithLimiter(s.limiter),
		monitor.WithLogger(log.Named("monitor")))

	s.store = profile.NewStore(profile.WithLogger(log.Named("store")))
	s.files = profile.NewFileStore(cfg.StatePath, log.Named("files"))
	if err := s.files.LoadInto(s.store); err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return s, nil
}

// saveState persists the profile store after a mutation.
func (s *services) saveState() error {
	if err := s.files.SaveFrom(s.store); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx passed to every command.
func ExecuteContext(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(onlineCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(unregisterCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(setDefaultCmd)
	rootCmd.AddCommand(terminateCmd)
	rootCmd.AddCommand(shutdownCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(reclaimCmd)
	rootCmd.AddCommand(killAllCmd)
	rootCmd.AddCommand(wslconfigCmd)
	rootCmd.AddCommand(distroConfigCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(ruleCmd)
	rootCmd.AddCommand(automateCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(configCmd)
}
