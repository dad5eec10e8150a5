package world

// State is a complete assignment over an Index. Bit i holds the value of the
// fact at position i; facts past the end of the bit-set are false. Trailing
// zero bytes are always trimmed so equal assignments share one
// representation, which keeps == and map lookups exact.
type State struct {
	ix   *Index
	bits string
}

// Index returns the fact table the state was built against.
func (s State) Index() *Index {
	return s.ix
}

func (s State) bit(pos int) bool {
	i := pos / 8
	if i >= len(s.bits) {
		return false
	}
	return s.bits[i]&(1<<uint(pos%8)) != 0
}

// Value returns the value of fact. The second result is false when the fact
// is not declared in the state's Index.
func (s State) Value(fact string) (bool, bool) {
	pos, ok := s.ix.Position(fact)
	if !ok {
		return false, false
	}
	return s.bit(pos), true
}

// Satisfies reports whether every constrained fact in c holds in s.
func (s State) Satisfies(c Conditions) bool {
	for _, e := range c.entries {
		if s.bit(e.pos) != e.val {
			return false
		}
	}
	return true
}

// Mismatch counts the constrained facts in c that do not hold in s.
func (s State) Mismatch(c Conditions) int {
	n := 0
	for _, e := range c.entries {
		if s.bit(e.pos) != e.val {
			n++
		}
	}
	return n
}

// Apply returns a copy of s with every fact in c overwritten. s is unchanged.
func (s State) Apply(c Conditions) State {
	ix := s.ix
	if ix == nil {
		ix = c.ix
	}
	if len(c.entries) == 0 {
		return State{ix: ix, bits: s.bits}
	}
	size := len(s.bits)
	if need := c.entries[len(c.entries)-1].pos/8 + 1; need > size {
		size = need
	}
	buf := make([]byte, size)
	copy(buf, s.bits)
	for _, e := range c.entries {
		mask := byte(1) << uint(e.pos%8)
		if e.val {
			buf[e.pos/8] |= mask
		} else {
			buf[e.pos/8] &^= mask
		}
	}
	end := len(buf)
	for end > 0 && buf[end-1] == 0 {
		end--
	}
	return State{ix: ix, bits: string(buf[:end])}
}

// Equal reports whether both states hold the same assignment over the same
// Index.
func (s State) Equal(other State) bool {
	return s == other
}

// Bindings lists every declared fact with its value in declaration order.
func (s State) Bindings() []Binding {
	n := s.ix.Len()
	if n == 0 {
		return nil
	}
	out := make([]Binding, n)
	for pos := 0; pos < n; pos++ {
		out[pos] = Binding{ID: s.ix.Fact(pos), Val: s.bit(pos)}
	}
	return out
}

// Diff lists the facts whose values differ between s and other, in
// declaration order.
func (s State) Diff(other State) []string {
	var out []string
	for pos := 0; pos < s.ix.Len(); pos++ {
		if s.bit(pos) != other.bit(pos) {
			out = append(out, s.ix.Fact(pos))
		}
	}
	return out
}

func (s State) String() string {
	bindings := s.Bindings()
	if len(bindings) == 0 {
		return "{}"
	}
	return formatBindings(bindings)
}
