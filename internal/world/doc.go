// Package world models the boolean facts a planner reasons about.
//
// An Index assigns every declared fact a stable bit position. States are
// complete assignments over an Index packed into an immutable bit-set, so
// they compare with == and can key maps directly. Conditions are partial
// assignments used for goals, preconditions, and effects.
//
// Facts are declared implicitly: building a State or Conditions from
// bindings declares any fact the Index has not seen yet. Declaring facts
// must finish before the Index is shared across goroutines.
package world
