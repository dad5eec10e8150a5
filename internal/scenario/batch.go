package scenario

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/goap-planner/internal/planner"
)

// Outcome is the result of planning one scenario in a batch.
type Outcome struct {
	ScenarioID string
	Plan       planner.Plan
	Err        error
}

// PlanAll plans every scenario concurrently, running at most limit planners at
// once (limit <= 0 means no limit). A failing scenario does not stop the
// others. Outcomes are returned in input order. Observers passed through opts
// are shared across goroutines and must be safe for concurrent use.
func PlanAll(ctx context.Context, scenarios []Scenario, limit int, opts ...planner.Option) []Outcome {
	return PlanAllWithin(ctx, scenarios, limit, 0, opts...)
}

// PlanAllWithin is PlanAll with a deadline applied to each planner call
// separately. perCall <= 0 leaves calls bounded only by ctx.
func PlanAllWithin(ctx context.Context, scenarios []Scenario, limit int, perCall time.Duration, opts ...planner.Option) []Outcome {
	outcomes := make([]Outcome, len(scenarios))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			callCtx := ctx
			if perCall > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, perCall)
				defer cancel()
			}
			plan, err := Plan(callCtx, s, opts...)
			outcomes[i] = Outcome{ScenarioID: s.Normalized().ID, Plan: plan, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
