package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/goap-planner/internal/planner"
	"github.com/kingrea/goap-planner/internal/scenario"
)

// planBudget holds the flags shared by plan and inspect.
type planBudget struct {
	sets          factFlag
	maxExpansions int
	timeout       time.Duration
}

func (b *planBudget) register(cmd *cobra.Command) {
	cmd.Flags().Var(&b.sets, "set", "start-state override fact=bool (repeatable)")
	cmd.Flags().IntVar(&b.maxExpansions, "max-expansions", -1, "expansion cap per scenario; 0 = unlimited (default: config)")
	cmd.Flags().DurationVar(&b.timeout, "timeout", 0, "time budget per scenario (default: config)")
}

// resolve merges the flags with the project config.
func (b *planBudget) resolve(c *cli) (int, time.Duration) {
	limit := c.cfg.MaxExpansions()
	if b.maxExpansions >= 0 {
		limit = b.maxExpansions
	}
	timeout := c.cfg.PlannerTimeout()
	if b.timeout > 0 {
		timeout = b.timeout
	}
	return limit, timeout
}

func (b *planBudget) plannerOptions(c *cli) []planner.Option {
	limit, _ := b.resolve(c)
	var opts []planner.Option
	if limit > 0 {
		opts = append(opts, planner.WithMaxExpansions(limit))
	}
	if c.verbose {
		logger := c.logger
		opts = append(opts, planner.WithObserver(func(e planner.Expansion) {
			logger.Debug("expand",
				zap.Stringer("state", e.State),
				zap.Float64("g", e.G),
				zap.Float64("h", e.H),
				zap.Int("depth", e.Depth),
				zap.Int("frontier", e.Frontier))
		}))
	}
	return opts
}

func newPlanCmd(c *cli) *cobra.Command {
	var (
		budget   planBudget
		jsonOut  bool
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "plan [files|dirs...]",
		Short: "Plan scenario files (default: the configured scenarios dir)",
		Long: `Plans every scenario file given on the command line. Directories are
scanned for *.yaml, *.yml and *.json files. Without arguments the configured
scenarios directory is used.

Example:
  goap plan scenarios/lumberjack.yaml --set hasAxe=true`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, c, &budget, jsonOut, parallel, args)
		},
	}
	budget.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print results as JSON")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "scenarios planned concurrently; 0 = unlimited")
	return cmd
}

type planResult struct {
	Scenario     string         `json:"scenario"`
	Path         string         `json:"path"`
	ID           string         `json:"id,omitempty"`
	Plan         []string       `json:"plan"`
	Cost         float64        `json:"cost"`
	TotalSteps   int            `json:"total_steps"`
	Expansions   int            `json:"expansions"`
	InitialState []scenario.Var `json:"initial_state,omitempty"`
	FinalState   []scenario.Var `json:"final_state,omitempty"`
	Status       string         `json:"status"`
	Error        string         `json:"error,omitempty"`
}

func runPlan(cmd *cobra.Command, c *cli, budget *planBudget, jsonOut bool, parallel int, args []string) error {
	paths := args
	var (
		files []scenario.File
		err   error
	)
	if len(paths) == 0 {
		paths = []string{c.cfg.ScenariosDir()}
		files, err = scenario.LoadDir(paths[0])
	} else {
		files, err = scenario.LoadPaths(paths...)
	}
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no scenario files found in %s", strings.Join(paths, ", "))
	}
	scenarios := make([]scenario.Scenario, len(files))
	for i, file := range files {
		scenarios[i] = file.Scenario.WithOverrides(budget.sets)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, timeout := budget.resolve(c)
	started := time.Now()
	outcomes := scenario.PlanAllWithin(ctx, scenarios, parallel, timeout, budget.plannerOptions(c)...)

	results := make([]planResult, len(outcomes))
	failed := 0
	for i, out := range outcomes {
		res := planResult{
			Scenario:   out.ScenarioID,
			Path:       files[i].Path,
			ID:         out.Plan.ID,
			Plan:       out.Plan.Actions,
			Cost:       out.Plan.Cost,
			Expansions: out.Plan.Expansions,
			Status:     string(out.Plan.Status),
		}
		if res.Plan == nil {
			res.Plan = []string{}
		}
		res.TotalSteps = len(res.Plan)
		if out.Err != nil {
			failed++
			res.Status = string(planner.StatusFailed)
			res.Error = out.Err.Error()
			c.logger.Warn("plan failed", zap.String("scenario", res.Scenario), zap.String("path", res.Path), zap.Error(out.Err))
		} else {
			res.InitialState = scenario.StateVars(out.Plan.Start)
			res.FinalState = scenario.StateVars(out.Plan.Final)
			c.logger.Info("plan finished",
				zap.String("scenario", res.Scenario),
				zap.String("plan_id", res.ID),
				zap.Int("steps", len(res.Plan)),
				zap.Float64("cost", res.Cost),
				zap.Int("expansions", res.Expansions))
		}
		results[i] = res
	}
	c.logger.Debug("batch finished", zap.Int("scenarios", len(results)), zap.Duration("elapsed", time.Since(started)))

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := writeResult(out, results); err != nil {
			return err
		}
	} else {
		printResults(out, results)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}

func printResults(w io.Writer, results []planResult) {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if res.Error != "" {
			fmt.Fprintf(w, "%s (%s): %s\n", res.Scenario, res.Path, res.Error)
			continue
		}
		fmt.Fprintf(w, "%s (%s): %d steps, cost %g, %d expansions\n", res.Scenario, res.Path, len(res.Plan), res.Cost, res.Expansions)
		if len(res.Plan) == 0 {
			fmt.Fprintln(w, "  goal already satisfied")
		}
		for n, name := range res.Plan {
			fmt.Fprintf(w, "  %d. %s\n", n+1, name)
		}
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
