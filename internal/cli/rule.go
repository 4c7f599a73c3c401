package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/javanstorm/wsltamer/internal/automation"
	"github.com/javanstorm/wsltamer/internal/profile"
)

var ruleCmd = &cobra.Command{
	Use:     "rule",
	Aliases: []string{"rules"},
	Short:   "Manage automation rules",
	Long: `Automation rules switch the current profile when a trigger fires.

Trigger types and values:
  Time        a range such as 22:00-06:00
  Process     a process name such as steam or steam.exe
  PowerState  battery or ac
  Network     connected or disconnected

Rules are evaluated in order by 'wsltamer automate'; the first enabled
rule that matches wins.`,
}

var ruleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE:  runRuleList,
}

var ruleAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRuleAdd,
}

var ruleDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.store.DeleteRule(args[0]); err != nil {
			return err
		}
		if err := app.saveState(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted rule %s.\n", args[0])
		return nil
	},
}

var ruleToggleCmd = &cobra.Command{
	Use:   "toggle ID",
	Short: "Enable or disable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := app.store.ToggleRule(args[0])
		if errors.Is(err, profile.ErrNotFound) {
			return fmt.Errorf("no rule with id %q", args[0])
		}
		if err != nil {
			return err
		}
		if err := app.saveState(); err != nil {
			return err
		}
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rule %s %s.\n", args[0], state)
		return nil
	},
}

var ruleCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Show which rule matches the system right now",
	Args:  cobra.NoArgs,
	RunE:  runRuleCheck,
}

var ruleFlags struct {
	trigger  string
	value    string
	target   string
	disabled bool
}

func init() {
	ruleAddCmd.Flags().StringVar(&ruleFlags.trigger, "trigger", "", "Trigger type: Time, Process, PowerState or Network")
	ruleAddCmd.Flags().StringVar(&ruleFlags.value, "value", "", "Trigger value")
	ruleAddCmd.Flags().StringVar(&ruleFlags.target, "profile", "", "Profile to switch to")
	ruleAddCmd.Flags().BoolVar(&ruleFlags.disabled, "disabled", false, "Add the rule disabled")

	ruleCmd.AddCommand(ruleListCmd)
	ruleCmd.AddCommand(ruleAddCmd)
	ruleCmd.AddCommand(ruleDeleteCmd)
	ruleCmd.AddCommand(ruleToggleCmd)
	ruleCmd.AddCommand(ruleCheckCmd)
}

// parseTriggerType accepts trigger names in any case.
func parseTriggerType(s string) profile.TriggerType {
	for _, t := range []profile.TriggerType{
		profile.TriggerTime, profile.TriggerProcess, profile.TriggerPowerState, profile.TriggerNetwork,
	} {
		if strings.EqualFold(string(t), s) {
			return t
		}
	}
	return profile.TriggerType(s)
}

func runRuleList(cmd *cobra.Command, args []string) error {
	rules, err := app.store.ListRules()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, rules)
	}
	if len(rules) == 0 {
		fmt.Fprintln(out, "No rules.")
		return nil
	}
	t := newTable(out, "ID", "NAME", "ENABLED", "TRIGGER", "VALUE", "PROFILE")
	for _, r := range rules {
		t.row(r.ID, r.Name, yesNo(r.Enabled), string(r.TriggerType), r.TriggerValue, r.TargetProfileID)
	}
	return t.flush()
}

func runRuleAdd(cmd *cobra.Command, args []string) error {
	rule := profile.Rule{
		ID:              uuid.NewString(),
		Name:            args[0],
		Enabled:         !ruleFlags.disabled,
		TriggerType:     parseTriggerType(ruleFlags.trigger),
		TriggerValue:    ruleFlags.value,
		TargetProfileID: ruleFlags.target,
	}

	profiles, err := app.store.ListProfiles()
	if err != nil {
		return err
	}
	if problems := automation.ValidateRule(rule, profiles); len(problems) > 0 {
		return fmt.Errorf("invalid rule:\n  %s", strings.Join(problems, "\n  "))
	}

	if err := app.store.SaveRule(rule); err != nil {
		return err
	}
	if err := app.saveState(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added rule %s (%s).\n", rule.Name, rule.ID)
	return nil
}

func runRuleCheck(cmd *cobra.Command, args []string) error {
	state, err := automation.Snapshot(cmd.Context(), app.probe, app.log)
	if err != nil {
		return err
	}
	rules, err := app.store.ListRules()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rule, ok := automation.FirstMatch(rules, state)
	if jsonOutput {
		result := struct {
			State automation.SystemState `json:"state"`
			Match *profile.Rule          `json:"match,omitempty"`
		}{State: state}
		if ok {
			result.Match = &rule
		}
		return printJSON(out, result)
	}

	fmt.Fprintf(out, "Time:    %s\n", state.CurrentTime)
	fmt.Fprintf(out, "Power:   %s\n", state.Power)
	fmt.Fprintf(out, "Network: %s\n", yesNo(state.NetworkConnected))
	fmt.Fprintf(out, "Processes running: %d\n", len(state.RunningProcesses))
	if !ok {
		fmt.Fprintln(out, "No rule matches.")
		return nil
	}
	fmt.Fprintf(out, "Matching rule: %s -> profile %s\n", rule.Name, rule.TargetProfileID)
	return nil
}
