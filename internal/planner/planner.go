// Package planner finds minimum-cost action sequences with A* search over the
// implicit graph of world states. Calculate is a pure function: every call
// owns its frontier and visited set, and nothing survives the call.
package planner

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kingrea/goap-planner/internal/action"
	"github.com/kingrea/goap-planner/internal/world"
)

// Status enumerates the per-call engine lifecycle.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSearching Status = "searching"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Plan is the result of a single Calculate call.
type Plan struct {
	// ID tags the planning run so hosts can correlate logs.
	ID string
	// Actions lists action names in application order. It is empty (not nil)
	// when the start state already satisfies the goal.
	Actions    []string
	Cost       float64
	Expansions int
	Start      world.State
	Final      world.State
	Status     Status
}

// Len reports the number of steps in the plan.
func (p Plan) Len() int {
	return len(p.Actions)
}

// Expansion describes one closed node and is handed to observers.
type Expansion struct {
	State    world.State
	G        float64
	H        float64
	Depth    int
	Frontier int
}

type options struct {
	maxExpansions int
	observer      func(Expansion)
}

// Option customizes a Calculate call.
type Option func(*options)

// WithMaxExpansions bounds how many states may be expanded. Values <= 0 mean
// no limit.
func WithMaxExpansions(n int) Option {
	return func(o *options) {
		o.maxExpansions = n
	}
}

// WithObserver registers a callback invoked for every expansion.
func WithObserver(fn func(Expansion)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

type node struct {
	state  world.State
	parent *node
	action string
	g      float64
	depth  int
	seq    uint64
	closed bool
}

type search struct {
	status  Status
	goal    world.Conditions
	catalog *action.Catalog
	opts    options

	nodes      map[world.State]*node
	open       frontier
	seq        uint64
	expansions int

	coverage int
	minCost  float64
}

// Calculate searches for the cheapest action sequence that turns start into a
// state satisfying goal. The catalog is only read. ctx is checked before every
// expansion.
func Calculate(ctx context.Context, start world.State, goal world.Conditions, catalog *action.Catalog, opts ...Option) (Plan, error) {
	if catalog == nil {
		return Plan{}, fmt.Errorf("planner: action catalog is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !world.Compatible(start.Index(), catalog.Index()) || !world.Compatible(goal.Index(), catalog.Index()) || !world.Compatible(start.Index(), goal.Index()) {
		return Plan{}, &world.MalformedStateError{Reason: "start, goal, and catalog use different fact indexes"}
	}
	s := &search{
		status:   StatusIdle,
		goal:     goal,
		catalog:  catalog,
		nodes:    make(map[world.State]*node),
		coverage: catalog.MaxGoalCoverage(goal),
		minCost:  catalog.MinCost(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s.opts)
		}
	}
	return s.run(ctx, start)
}

func (s *search) run(ctx context.Context, start world.State) (Plan, error) {
	s.status = StatusSearching
	plan := Plan{ID: uuid.NewString(), Start: start}
	if start.Satisfies(s.goal) {
		s.status = StatusSucceeded
		plan.Actions = []string{}
		plan.Final = start
		plan.Status = s.status
		return plan, nil
	}
	root := &node{state: start}
	s.nodes[start] = root
	s.push(root)
	for s.open.Len() > 0 {
		item := heap.Pop(&s.open).(*frontierItem)
		current := item.node
		if current.closed || item.seq != current.seq {
			continue
		}
		if current.state.Satisfies(s.goal) {
			s.status = StatusSucceeded
			plan.Actions = current.path()
			plan.Cost = current.g
			plan.Final = current.state
			plan.Expansions = s.expansions
			plan.Status = s.status
			return plan, nil
		}
		if err := ctx.Err(); err != nil {
			return s.fail(plan, &PlanCancelledError{Expansions: s.expansions, Cause: err})
		}
		if s.opts.maxExpansions > 0 && s.expansions >= s.opts.maxExpansions {
			return s.fail(plan, &ExpansionLimitError{Limit: s.opts.maxExpansions})
		}
		current.closed = true
		s.expansions++
		if s.opts.observer != nil {
			s.opts.observer(Expansion{
				State:    current.state,
				G:        current.g,
				H:        s.heuristic(current.state),
				Depth:    current.depth,
				Frontier: s.open.Len(),
			})
		}
		s.expand(current)
	}
	return s.fail(plan, &PlanNotFoundError{Expansions: s.expansions})
}

func (s *search) expand(current *node) {
	s.catalog.Each(func(act action.Action) bool {
		if !action.Applicable(act, current.state) {
			return true
		}
		next := action.Apply(act, current.state)
		if next == current.state {
			return true
		}
		g := current.g + act.Cost
		if known, ok := s.nodes[next]; ok {
			if g >= known.g {
				return true
			}
			// Strictly cheaper path: re-parent and reopen.
			known.parent = current
			known.action = act.Name
			known.g = g
			known.depth = current.depth + 1
			known.closed = false
			s.push(known)
			return true
		}
		child := &node{
			state:  next,
			parent: current,
			action: act.Name,
			g:      g,
			depth:  current.depth + 1,
		}
		s.nodes[next] = child
		s.push(child)
		return true
	})
}

func (s *search) push(n *node) {
	s.seq++
	n.seq = s.seq
	heap.Push(&s.open, &frontierItem{node: n, f: n.g + s.heuristic(n.state), seq: n.seq})
}

// heuristic scales the goal mismatch count so it never overestimates: one
// action fixes at most coverage goal facts and costs at least minCost.
func (s *search) heuristic(state world.State) float64 {
	missing := state.Mismatch(s.goal)
	if missing == 0 {
		return 0
	}
	steps := (missing + s.coverage - 1) / s.coverage
	return float64(steps) * s.minCost
}

func (s *search) fail(plan Plan, err error) (Plan, error) {
	s.status = StatusFailed
	plan.Expansions = s.expansions
	plan.Status = s.status
	return plan, err
}

func (n *node) path() []string {
	steps := make([]string, 0, n.depth)
	for cur := n; cur.parent != nil; cur = cur.parent {
		steps = append(steps, cur.action)
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}
