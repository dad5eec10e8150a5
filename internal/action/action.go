package action

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kingrea/goap-planner/internal/world"
)

// DefaultCost is the edge cost of an action registered without WithCost.
const DefaultCost = 1.0

// ErrInvalidCost is returned for negative or NaN action costs.
var ErrInvalidCost = errors.New("action: cost must be a non-negative number")

// DuplicateActionError reports a second registration under an existing name.
type DuplicateActionError struct {
	Name string
}

func (e *DuplicateActionError) Error() string {
	return fmt.Sprintf("action: duplicate action %q", e.Name)
}

// Action is a named transition rule. Effects are applied unconditionally when
// the action is chosen; an action without effects is a legal no-op.
type Action struct {
	Name          string
	Preconditions world.Conditions
	Effects       world.Conditions
	Cost          float64
}

// Applicable reports whether state satisfies the action's preconditions.
func Applicable(a Action, state world.State) bool {
	return state.Satisfies(a.Preconditions)
}

// Apply returns the state produced by applying the action's effects. It does
// not check preconditions; callers use Applicable first.
func Apply(a Action, state world.State) world.State {
	return state.Apply(a.Effects)
}

// Option customizes an action during registration.
type Option func(*Action)

// WithCost overrides the action's edge cost.
func WithCost(cost float64) Option {
	return func(a *Action) {
		a.Cost = cost
	}
}

// Catalog is the insertion-ordered, name-unique set of actions available to a
// planning call. Register everything before planning; the planner only reads
// the catalog, so one catalog may back concurrent calls.
type Catalog struct {
	index   *world.Index
	actions []Action
	byName  map[string]int
}

// NewCatalog creates an empty catalog bound to a fact index.
func NewCatalog(ix *world.Index) *Catalog {
	return &Catalog{index: ix, byName: map[string]int{}}
}

// Index returns the fact table the catalog's actions were built against.
func (c *Catalog) Index() *world.Index {
	if c == nil {
		return nil
	}
	return c.index
}

// AddAction registers an action. Facts referenced by the bindings are
// declared on the catalog's index as a side effect.
func (c *Catalog) AddAction(name string, preconditions, effects []world.Binding, opts ...Option) error {
	if c == nil {
		return fmt.Errorf("action: catalog is nil")
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("action: name is required")
	}
	if _, exists := c.byName[trimmed]; exists {
		return &DuplicateActionError{Name: trimmed}
	}
	pre, err := c.index.Conditions(preconditions)
	if err != nil {
		return fmt.Errorf("action %s: preconditions: %w", trimmed, err)
	}
	eff, err := c.index.Conditions(effects)
	if err != nil {
		return fmt.Errorf("action %s: effects: %w", trimmed, err)
	}
	act := Action{Name: trimmed, Preconditions: pre, Effects: eff, Cost: DefaultCost}
	for _, opt := range opts {
		if opt != nil {
			opt(&act)
		}
	}
	if math.IsNaN(act.Cost) || act.Cost < 0 {
		return fmt.Errorf("action %s: %w", trimmed, ErrInvalidCost)
	}
	if c.byName == nil {
		c.byName = map[string]int{}
	}
	c.byName[trimmed] = len(c.actions)
	c.actions = append(c.actions, act)
	return nil
}

// Actions returns the registered actions in insertion order.
func (c *Catalog) Actions() []Action {
	if c == nil || len(c.actions) == 0 {
		return nil
	}
	out := make([]Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// Each calls fn for every action in insertion order without copying the
// catalog. Iteration stops when fn returns false.
func (c *Catalog) Each(fn func(Action) bool) {
	if c == nil {
		return
	}
	for _, act := range c.actions {
		if !fn(act) {
			return
		}
	}
}

// Lookup finds an action by name.
func (c *Catalog) Lookup(name string) (Action, bool) {
	if c == nil {
		return Action{}, false
	}
	idx, ok := c.byName[strings.TrimSpace(name)]
	if !ok {
		return Action{}, false
	}
	return c.actions[idx], true
}

// Len reports how many actions are registered.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.actions)
}

// MinCost returns the cheapest action cost, or zero for an empty catalog.
func (c *Catalog) MinCost() float64 {
	if c == nil || len(c.actions) == 0 {
		return 0
	}
	least := c.actions[0].Cost
	for _, act := range c.actions[1:] {
		if act.Cost < least {
			least = act.Cost
		}
	}
	return least
}

// MaxGoalCoverage returns the largest number of goal facts a single action's
// effects set to their goal value. It is at least one so it can divide a
// mismatch count.
func (c *Catalog) MaxGoalCoverage(goal world.Conditions) int {
	most := 1
	c.Each(func(act Action) bool {
		if n := act.Effects.Agreements(goal); n > most {
			most = n
		}
		return true
	})
	return most
}
