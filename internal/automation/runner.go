package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/javanstorm/wsltamer/internal/profile"
	"github.com/javanstorm/wsltamer/internal/ratelimit"
)

// Default polling settings.
const (
	DefaultInterval = 30 * time.Second
	DefaultCooldown = 5 * time.Minute
)

// Runner polls the host and applies the target profile of the first rule
// that fires. Applies are spaced at least one cooldown apart.
type Runner struct {
	store    *profile.Store
	probe    Probe
	writer   profile.ConfigWriter
	limiter  *ratelimit.Cooldown
	interval time.Duration
	cooldown time.Duration
	log      *zap.Logger
	onApply  func(rule profile.Rule, warnings []string)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithInterval sets how often Run polls.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.interval = d }
}

// WithCooldown sets the minimum time between two applies.
func WithCooldown(d time.Duration) RunnerOption {
	return func(r *Runner) { r.cooldown = d }
}

// WithLimiter shares a Cooldown with other components.
func WithLimiter(c *ratelimit.Cooldown) RunnerOption {
	return func(r *Runner) { r.limiter = c }
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(log *zap.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// OnApply is called after a rule's profile was applied.
func OnApply(fn func(rule profile.Rule, warnings []string)) RunnerOption {
	return func(r *Runner) { r.onApply = fn }
}

// NewRunner creates a Runner.
func NewRunner(store *profile.Store, probe Probe, writer profile.ConfigWriter, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:    store,
		probe:    probe,
		writer:   writer,
		interval: DefaultInterval,
		cooldown: DefaultCooldown,
		log:      zap.NewNop(),
		onApply:  func(profile.Rule, []string) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.limiter == nil {
		r.limiter = ratelimit.New()
	}
	return r
}

// Run polls until ctx is done. Errors from a single tick are logged and do
// not stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.Tick(ctx); err != nil {
			var limited *ratelimit.LimitedError
			switch {
			case errors.As(err, &limited):
				r.log.Debug("profile switch deferred", zap.Duration("remaining", limited.Remaining))
			case ctx.Err() != nil:
			default:
				r.log.Warn("automation tick failed", zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick takes one snapshot and applies the first matching rule's profile if
// it is not already current. Matching rules whose target profile no longer
// exists are skipped. It returns the applied rule, if any.
func (r *Runner) Tick(ctx context.Context) (*profile.Rule, error) {
	state, err := Snapshot(ctx, r.probe, r.log)
	if err != nil {
		return nil, err
	}
	rules, err := r.store.ListRules()
	if err != nil {
		return nil, err
	}
	rule, ok, err := r.firstApplicable(rules, state)
	if err != nil || !ok {
		return nil, err
	}

	current, err := r.store.CurrentProfile()
	if err == nil && current.ID == rule.TargetProfileID {
		return nil, nil
	}
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		return nil, err
	}

	if err := r.limiter.CheckAndSet(ratelimit.KeyApplyProfile, r.cooldown); err != nil {
		return nil, err
	}

	warnings, err := r.store.ApplyProfile(ctx, rule.TargetProfileID, r.writer)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
	}
	r.log.Info("rule applied profile",
		zap.String("rule", rule.Name),
		zap.String("profile", rule.TargetProfileID),
		zap.Strings("warnings", warnings))
	r.onApply(rule, warnings)
	return &rule, nil
}

// firstApplicable returns the first rule that matches state and targets a
// profile the store still holds.
func (r *Runner) firstApplicable(rules []profile.Rule, state SystemState) (profile.Rule, bool, error) {
	for _, rule := range rules {
		if !Evaluate(rule, state) {
			continue
		}
		_, err := r.store.GetProfile(rule.TargetProfileID)
		if errors.Is(err, profile.ErrNotFound) {
			r.log.Warn("rule targets a missing profile",
				zap.String("rule", rule.Name),
				zap.String("profile", rule.TargetProfileID))
			continue
		}
		if err != nil {
			return profile.Rule{}, false, err
		}
		return rule, true, nil
	}
	return profile.Rule{}, false, nil
}
