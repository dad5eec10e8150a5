package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/goap-planner/internal/scenario"
)

// queryFlags holds the flags shared by enabled, step and satisfied.
type queryFlags struct {
	sets    factFlag
	jsonOut bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().Var(&f.sets, "set", "state override fact=bool (repeatable)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the result as JSON")
}

// load reads one scenario file and applies the overrides.
func (f *queryFlags) load(path string) (scenario.Scenario, error) {
	file, err := scenario.LoadFile(path)
	if err != nil {
		return scenario.Scenario{}, err
	}
	return file.Scenario.WithOverrides(f.sets), nil
}

type enabledResult struct {
	Scenario string   `json:"scenario"`
	Enabled  []string `json:"enabled"`
}

type stepResult struct {
	Scenario string         `json:"scenario"`
	Action   string         `json:"action"`
	Enabled  bool           `json:"enabled"`
	State    []scenario.Var `json:"state"`
}

type satisfiedResult struct {
	Scenario  string `json:"scenario"`
	Satisfied bool   `json:"satisfied"`
}

func newEnabledCmd(c *cli) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "enabled <file>",
		Short: "List the actions enabled in a scenario's state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.load(args[0])
			if err != nil {
				return err
			}
			names, err := scenario.Enabled(s)
			if err != nil {
				return err
			}
			c.logger.Info("enabled actions", zap.String("scenario", s.ID), zap.Strings("enabled", names))
			out := cmd.OutOrStdout()
			if flags.jsonOut {
				return writeResult(out, enabledResult{Scenario: s.ID, Enabled: names})
			}
			if len(names) == 0 {
				fmt.Fprintf(out, "%s: no actions enabled\n", s.ID)
				return nil
			}
			fmt.Fprintf(out, "%s: %s\n", s.ID, strings.Join(names, ", "))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newStepCmd(c *cli) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "step <file> <action>",
		Short: "Fire one action from a scenario's state and print the result",
		Long: `Applies a single action to the scenario's state. The command fails when
the action is unknown or its preconditions do not hold.

Example:
  goap step scenarios/lumberjack.yaml chopTree --set hasAxe=true --set atTree=true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.load(args[0])
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[1])
			next, err := scenario.Step(s, name)
			if err != nil {
				return err
			}
			res := stepResult{Scenario: s.ID, Action: name, Enabled: next != nil, State: next}
			c.logger.Info("step", zap.String("scenario", s.ID), zap.String("action", name), zap.Bool("enabled", res.Enabled))
			out := cmd.OutOrStdout()
			if flags.jsonOut {
				if err := writeResult(out, res); err != nil {
					return err
				}
			} else if res.Enabled {
				fmt.Fprintf(out, "%s after %s:\n", s.ID, name)
				for _, v := range next {
					fmt.Fprintf(out, "  %s: %t\n", v.ID, v.Val)
				}
			}
			if !res.Enabled {
				return fmt.Errorf("%s is not enabled in %s", name, s.ID)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newSatisfiedCmd(c *cli) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "satisfied <file>",
		Short: "Report whether a scenario's state already meets its goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.load(args[0])
			if err != nil {
				return err
			}
			ok, err := scenario.Satisfied(s)
			if err != nil {
				return err
			}
			c.logger.Info("goal check", zap.String("scenario", s.ID), zap.Bool("satisfied", ok))
			out := cmd.OutOrStdout()
			if flags.jsonOut {
				return writeResult(out, satisfiedResult{Scenario: s.ID, Satisfied: ok})
			}
			if ok {
				fmt.Fprintf(out, "%s: goal satisfied\n", s.ID)
			} else {
				fmt.Fprintf(out, "%s: goal not satisfied\n", s.ID)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func writeResult(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
