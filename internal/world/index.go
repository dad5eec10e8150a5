package world

import (
	"fmt"
	"strings"
)

// Binding pairs a fact identifier with a boolean value. It is the {id, val}
// shape used by every input boundary.
type Binding struct {
	ID  string `json:"id" yaml:"id"`
	Val bool   `json:"val" yaml:"val"`
}

// MalformedStateError reports a state, goal, precondition, or effect set that
// cannot be turned into an assignment.
type MalformedStateError struct {
	Fact   string
	Reason string
}

func (e *MalformedStateError) Error() string {
	if e.Fact == "" {
		return "world: malformed state: " + e.Reason
	}
	return fmt.Sprintf("world: malformed state: fact %q %s", e.Fact, e.Reason)
}

// Index is the per-scenario fact table. Positions are handed out in
// declaration order and never change.
type Index struct {
	facts []string
	pos   map[string]int
}

// NewIndex declares the provided facts in order.
func NewIndex(facts ...string) (*Index, error) {
	ix := &Index{pos: make(map[string]int, len(facts))}
	for _, fact := range facts {
		if _, err := ix.Declare(fact); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Declare registers a fact and returns its position. Declaring a known fact
// returns the existing position. Identifiers are trimmed, so "a " and "a"
// name the same fact.
func (ix *Index) Declare(fact string) (int, error) {
	if ix == nil {
		return 0, &MalformedStateError{Reason: "fact index is nil"}
	}
	name := strings.TrimSpace(fact)
	if name == "" {
		return 0, &MalformedStateError{Fact: fact, Reason: "has an empty identifier"}
	}
	if ix.pos == nil {
		ix.pos = map[string]int{}
	}
	if pos, ok := ix.pos[name]; ok {
		return pos, nil
	}
	pos := len(ix.facts)
	ix.facts = append(ix.facts, name)
	ix.pos[name] = pos
	return pos, nil
}

// Len reports how many facts are declared.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.facts)
}

// Facts returns the declared facts in declaration order.
func (ix *Index) Facts() []string {
	if ix == nil || len(ix.facts) == 0 {
		return nil
	}
	out := make([]string, len(ix.facts))
	copy(out, ix.facts)
	return out
}

// Position looks up the bit position of a fact.
func (ix *Index) Position(fact string) (int, bool) {
	if ix == nil {
		return 0, false
	}
	pos, ok := ix.pos[strings.TrimSpace(fact)]
	return pos, ok
}

// Fact returns the identifier stored at pos.
func (ix *Index) Fact(pos int) string {
	if ix == nil || pos < 0 || pos >= len(ix.facts) {
		return ""
	}
	return ix.facts[pos]
}

// Zero returns the state where every fact is false.
func (ix *Index) Zero() State {
	return State{ix: ix}
}

// State builds a complete assignment from bindings. Facts that are not bound
// default to false.
func (ix *Index) State(bindings []Binding) (State, error) {
	cond, err := ix.Conditions(bindings)
	if err != nil {
		return State{}, err
	}
	return ix.Zero().Apply(cond), nil
}

// Conditions builds a partial assignment from bindings. A fact listed twice
// with the same value is accepted; conflicting values are not.
func (ix *Index) Conditions(bindings []Binding) (Conditions, error) {
	if ix == nil {
		return Conditions{}, &MalformedStateError{Reason: "fact index is nil"}
	}
	if len(bindings) == 0 {
		return Conditions{ix: ix}, nil
	}
	seen := make(map[int]bool, len(bindings))
	for _, b := range bindings {
		pos, err := ix.Declare(b.ID)
		if err != nil {
			return Conditions{}, err
		}
		if prev, ok := seen[pos]; ok {
			if prev != b.Val {
				return Conditions{}, &MalformedStateError{Fact: ix.facts[pos], Reason: "has conflicting values"}
			}
			continue
		}
		seen[pos] = b.Val
	}
	return newConditions(ix, seen), nil
}

// Compatible reports whether two indexes can be mixed. A nil index belongs to
// a zero value and mixes with anything.
func Compatible(a, b *Index) bool {
	return a == nil || b == nil || a == b
}
