package world

import (
	"sort"
	"strings"
)

type entry struct {
	pos int
	val bool
}

// Conditions is a partial assignment: only the listed facts are constrained.
// Goals, preconditions, and effects all share this shape. Entries are kept
// sorted by position and never mutated after construction.
type Conditions struct {
	ix      *Index
	entries []entry
}

func newConditions(ix *Index, values map[int]bool) Conditions {
	entries := make([]entry, 0, len(values))
	for pos, val := range values {
		entries = append(entries, entry{pos: pos, val: val})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].pos < entries[j].pos })
	return Conditions{ix: ix, entries: entries}
}

// Index returns the fact table the conditions were built against.
func (c Conditions) Index() *Index {
	return c.ix
}

// Len reports how many facts are constrained.
func (c Conditions) Len() int {
	return len(c.entries)
}

// IsEmpty reports whether the conditions constrain nothing.
func (c Conditions) IsEmpty() bool {
	return len(c.entries) == 0
}

// Value returns the required value for fact, if it is constrained.
func (c Conditions) Value(fact string) (bool, bool) {
	pos, ok := c.ix.Position(fact)
	if !ok {
		return false, false
	}
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].pos >= pos })
	if i < len(c.entries) && c.entries[i].pos == pos {
		return c.entries[i].val, true
	}
	return false, false
}

// Bindings lists the constrained facts in declaration order.
func (c Conditions) Bindings() []Binding {
	if len(c.entries) == 0 {
		return nil
	}
	out := make([]Binding, len(c.entries))
	for i, e := range c.entries {
		out[i] = Binding{ID: c.ix.Fact(e.pos), Val: e.val}
	}
	return out
}

// Agreements counts the facts both sets constrain to the same value.
func (c Conditions) Agreements(other Conditions) int {
	count := 0
	i, j := 0, 0
	for i < len(c.entries) && j < len(other.entries) {
		a, b := c.entries[i], other.entries[j]
		switch {
		case a.pos < b.pos:
			i++
		case a.pos > b.pos:
			j++
		default:
			if a.val == b.val {
				count++
			}
			i++
			j++
		}
	}
	return count
}

func (c Conditions) String() string {
	if len(c.entries) == 0 {
		return "{}"
	}
	return formatBindings(c.Bindings())
}

func formatBindings(bindings []Binding) string {
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].ID < bindings[j].ID })
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		if b.Val {
			parts[i] = b.ID + ": true"
		} else {
			parts[i] = b.ID + ": false"
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
