package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/kingrea/goap-planner/internal/action"
	"github.com/kingrea/goap-planner/internal/planner"
	"github.com/kingrea/goap-planner/internal/world"
)

// Var is one {id, val} pair of a goal, state, precondition, or effect list.
type Var struct {
	ID  string `json:"id" yaml:"id"`
	Val bool   `json:"val" yaml:"val"`
}

// ActionSpec declares an action as submitted by a caller.
type ActionSpec struct {
	ID   string  `json:"id" yaml:"id"`
	Pre  []Var   `json:"pre" yaml:"pre"`
	Post []Var   `json:"post" yaml:"post"`
	Cost float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
}

// Scenario is the planning request exchanged with front ends: a start state,
// a partial goal, and the actions available to reach it.
type Scenario struct {
	ID      string       `json:"id" yaml:"id"`
	Goal    []Var        `json:"goal" yaml:"goal"`
	State   []Var        `json:"state" yaml:"state"`
	Actions []ActionSpec `json:"actions" yaml:"actions"`
}

// Problem is a compiled scenario ready for the planner.
type Problem struct {
	Index   *world.Index
	Start   world.State
	Goal    world.Conditions
	Catalog *action.Catalog
}

// Clone returns a deep copy of the scenario.
func (s Scenario) Clone() Scenario {
	clone := Scenario{
		ID:    s.ID,
		Goal:  cloneVars(s.Goal),
		State: cloneVars(s.State),
	}
	if len(s.Actions) > 0 {
		clone.Actions = make([]ActionSpec, len(s.Actions))
		for i, act := range s.Actions {
			clone.Actions[i] = ActionSpec{
				ID:   act.ID,
				Pre:  cloneVars(act.Pre),
				Post: cloneVars(act.Post),
				Cost: act.Cost,
			}
		}
	}
	return clone
}

// Normalized returns a trimmed copy of the scenario.
func (s Scenario) Normalized() Scenario {
	clone := s.Clone()
	clone.ID = strings.TrimSpace(clone.ID)
	trimVars(clone.Goal)
	trimVars(clone.State)
	for i := range clone.Actions {
		clone.Actions[i].ID = strings.TrimSpace(clone.Actions[i].ID)
		trimVars(clone.Actions[i].Pre)
		trimVars(clone.Actions[i].Post)
	}
	return clone
}

// Validate checks the structural rules a front end can enforce before the
// fact model sees the scenario.
func (s Scenario) Validate() error {
	normalized := s.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("scenario: id is required")
	}
	if err := validateVars("goal", normalized.Goal); err != nil {
		return fmt.Errorf("scenario %s: %w", normalized.ID, err)
	}
	if err := validateVars("state", normalized.State); err != nil {
		return fmt.Errorf("scenario %s: %w", normalized.ID, err)
	}
	seen := make(map[string]struct{}, len(normalized.Actions))
	for idx, act := range normalized.Actions {
		if act.ID == "" {
			return fmt.Errorf("scenario %s: actions[%d]: id is required", normalized.ID, idx)
		}
		if _, exists := seen[act.ID]; exists {
			return fmt.Errorf("scenario %s: actions[%d]: %w", normalized.ID, idx, &action.DuplicateActionError{Name: act.ID})
		}
		seen[act.ID] = struct{}{}
		if err := validateVars("pre", act.Pre); err != nil {
			return fmt.Errorf("scenario %s: action %s: %w", normalized.ID, act.ID, err)
		}
		if err := validateVars("post", act.Post); err != nil {
			return fmt.Errorf("scenario %s: action %s: %w", normalized.ID, act.ID, err)
		}
		if act.Cost < 0 {
			return fmt.Errorf("scenario %s: action %s: %w", normalized.ID, act.ID, action.ErrInvalidCost)
		}
	}
	return nil
}

// WithOverrides returns a copy whose start state has the given facts set,
// replacing any existing binding for the same fact.
func (s Scenario) WithOverrides(overrides map[string]bool) Scenario {
	clone := s.Clone()
	wanted := make(map[string]bool, len(overrides))
	for id, val := range overrides {
		if id = strings.TrimSpace(id); id != "" {
			wanted[id] = val
		}
	}
	if len(wanted) == 0 {
		return clone
	}
	applied := make(map[string]bool, len(wanted))
	for i, v := range clone.State {
		id := strings.TrimSpace(v.ID)
		if val, ok := wanted[id]; ok {
			clone.State[i].Val = val
			applied[id] = true
		}
	}
	for _, id := range sortedKeys(wanted) {
		if !applied[id] {
			clone.State = append(clone.State, Var{ID: id, Val: wanted[id]})
		}
	}
	return clone
}

// Compile declares every fact (state, goal, then each action's pre/post in
// order) and builds the start state, goal, and catalog.
func (s Scenario) Compile() (Problem, error) {
	if err := s.Validate(); err != nil {
		return Problem{}, err
	}
	normalized := s.Normalized()
	ix, err := world.NewIndex()
	if err != nil {
		return Problem{}, err
	}
	start, err := ix.State(toBindings(normalized.State))
	if err != nil {
		return Problem{}, fmt.Errorf("scenario %s: state: %w", normalized.ID, err)
	}
	goal, err := ix.Conditions(toBindings(normalized.Goal))
	if err != nil {
		return Problem{}, fmt.Errorf("scenario %s: goal: %w", normalized.ID, err)
	}
	catalog := action.NewCatalog(ix)
	for _, def := range normalized.Actions {
		var opts []action.Option
		if def.Cost > 0 {
			opts = append(opts, action.WithCost(def.Cost))
		}
		if err := catalog.AddAction(def.ID, toBindings(def.Pre), toBindings(def.Post), opts...); err != nil {
			return Problem{}, fmt.Errorf("scenario %s: %w", normalized.ID, err)
		}
	}
	return Problem{Index: ix, Start: start, Goal: goal, Catalog: catalog}, nil
}

// Plan compiles the scenario and runs the planner on it.
func Plan(ctx context.Context, s Scenario, opts ...planner.Option) (planner.Plan, error) {
	problem, err := s.Compile()
	if err != nil {
		return planner.Plan{}, err
	}
	return planner.Calculate(ctx, problem.Start, problem.Goal, problem.Catalog, opts...)
}

func validateVars(label string, vars []Var) error {
	for idx, v := range vars {
		if v.ID == "" {
			return fmt.Errorf("%s[%d]: %w", label, idx, &world.MalformedStateError{Reason: "has an empty identifier"})
		}
	}
	return nil
}

func toBindings(vars []Var) []world.Binding {
	if len(vars) == 0 {
		return nil
	}
	out := make([]world.Binding, len(vars))
	for i, v := range vars {
		out[i] = world.Binding{ID: v.ID, Val: v.Val}
	}
	return out
}

func trimVars(vars []Var) {
	for i := range vars {
		vars[i].ID = strings.TrimSpace(vars[i].ID)
	}
}

func cloneVars(vars []Var) []Var {
	if len(vars) == 0 {
		return nil
	}
	clone := make([]Var, len(vars))
	copy(clone, vars)
	return clone
}
