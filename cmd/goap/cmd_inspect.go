package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/goap-planner/internal/planner"
	"github.com/kingrea/goap-planner/internal/scenario"
	"github.com/kingrea/goap-planner/internal/server"
	"github.com/kingrea/goap-planner/internal/tui"
)

func newInspectCmd(c *cli) *cobra.Command {
	var budget planBudget
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Plan one scenario and browse the steps in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildInspector(cmd, c, &budget, args[0])
			if err != nil {
				return err
			}
			return tui.Run(app)
		},
	}
	budget.register(cmd)
	return cmd
}

// buildInspector plans the scenario at path and prepares the terminal view.
func buildInspector(cmd *cobra.Command, c *cli, budget *planBudget, path string) (*tui.App, error) {
	file, err := scenario.LoadFile(path)
	if err != nil {
		return nil, err
	}
	sc := file.Scenario.WithOverrides(budget.sets)
	problem, err := sc.Compile()
	if err != nil {
		return nil, err
	}
	ctx := cmdContext(cmd)
	if _, timeout := budget.resolve(c); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	plan, err := planner.Calculate(ctx, problem.Start, problem.Goal, problem.Catalog, budget.plannerOptions(c)...)
	if err != nil {
		c.logger.Warn("plan failed", zap.String("scenario", sc.ID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", sc.ID, err)
	}
	c.logger.Info("plan finished", zap.String("scenario", sc.ID), zap.String("plan_id", plan.ID), zap.Int("steps", plan.Len()))
	return tui.NewApp(sc.ID, problem, plan)
}

func newInfoCmd(c *cli) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the service description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(server.ServiceInfo)
			}
			fmt.Fprintf(out, "%s\n%s\n%s\n", server.ServiceInfo.ID, server.ServiceInfo.Name, server.ServiceInfo.Description)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print as JSON")
	return cmd
}
