package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/goap-planner/internal/action"
	"github.com/kingrea/goap-planner/internal/world"
)

// ErrUnknownAction is returned by Step for a name missing from the catalog.
var ErrUnknownAction = errors.New("scenario: unknown action")

// Enabled lists the actions whose preconditions hold in state, in catalog
// order.
func (p Problem) Enabled(state world.State) []string {
	names := []string{}
	p.Catalog.Each(func(a action.Action) bool {
		if action.Applicable(a, state) {
			names = append(names, a.Name)
		}
		return true
	})
	return names
}

// Step applies the named action to state. ok is false, and state is returned
// unchanged, when the action's preconditions do not hold.
func (p Problem) Step(state world.State, name string) (next world.State, ok bool, err error) {
	name = strings.TrimSpace(name)
	act, found := p.Catalog.Lookup(name)
	if !found {
		return state, false, fmt.Errorf("%w %q", ErrUnknownAction, name)
	}
	if !action.Applicable(act, state) {
		return state, false, nil
	}
	return action.Apply(act, state), true, nil
}

// Satisfied reports whether state meets the goal.
func (p Problem) Satisfied(state world.State) bool {
	return state.Satisfies(p.Goal)
}

// Enabled compiles s and lists the actions enabled in its state.
func Enabled(s Scenario) ([]string, error) {
	problem, err := s.Compile()
	if err != nil {
		return nil, err
	}
	return problem.Enabled(problem.Start), nil
}

// Satisfied compiles s and reports whether its state meets its goal.
func Satisfied(s Scenario) (bool, error) {
	problem, err := s.Compile()
	if err != nil {
		return false, err
	}
	return problem.Satisfied(problem.Start), nil
}

// Step compiles s and fires one action from its state. The returned state
// lists every fact the scenario declares. It is nil when the action is not
// enabled.
func Step(s Scenario, name string) ([]Var, error) {
	problem, err := s.Compile()
	if err != nil {
		return nil, err
	}
	next, ok, err := problem.Step(problem.Start, name)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", strings.TrimSpace(s.ID), err)
	}
	if !ok {
		return nil, nil
	}
	return StateVars(next), nil
}

// StateVars lists every fact of state with its value in declaration order.
func StateVars(state world.State) []Var {
	if state.Index() == nil {
		return []Var{}
	}
	bindings := state.Bindings()
	out := make([]Var, len(bindings))
	for i, b := range bindings {
		out[i] = Var{ID: b.ID, Val: b.Val}
	}
	return out
}
