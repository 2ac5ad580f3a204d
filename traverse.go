package react

import (
	"fmt"
	"strings"
)

// Members is an object's member structure. Traversal order is declared order
// and is stable; the shape (count, names, kinds) of an object never changes
// over its life, only member values do.
type Members []*Member

// Visitor transforms one member, typically into another phase. It receives
// the member's declared name so implementations can do name-based native
// registration.
type Visitor func(name string, m *Member) (*Member, error)

// Traverse applies the visitor to every member in declared order, producing
// a new structure. The first error aborts the walk.
func (ms Members) Traverse(v Visitor) (Members, error) {
	out := make(Members, len(ms))

	for i, m := range ms {
		next, err := v(m.name, m)
		if err != nil {
			return nil, err
		}
		out[i] = next
	}

	return out, nil
}

// Map is the pure traversal: no error, no effect threading.
func (ms Members) Map(f func(m *Member) *Member) Members {
	out := make(Members, len(ms))
	for i, m := range ms {
		out[i] = f(m)
	}
	return out
}

// Walk visits every member in declared order with its name, aggregating the
// logical AND of the results. The walk always visits all members.
func (ms Members) Walk(f func(name string, m *Member) bool) bool {
	ok := true
	for _, m := range ms {
		ok = f(m.name, m) && ok
	}
	return ok
}

// zipMembers pairs two same-shape structures field by field.
func zipMembers(a, b Members, f func(name string, x, y *Member) (*Member, error)) (Members, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: structures differ in member count (%d vs %d)", ErrBadShape, len(a), len(b))
	}

	out := make(Members, len(a))
	for i := range a {
		next, err := f(a[i].name, a[i], b[i])
		if err != nil {
			return nil, err
		}
		out[i] = next
	}

	return out, nil
}

// validateShape enforces the structural rules: at least one member, every
// member present, unique non-empty names. Violations are fatal definition
// errors, reported before anything native is created.
func validateShape(ms Members) error {
	if len(ms) == 0 {
		return fmt.Errorf("%w: object needs at least one member", ErrBadShape)
	}

	seen := make(map[string]bool, len(ms))
	for i, m := range ms {
		if m == nil {
			return fmt.Errorf("%w: member %d is nil", ErrBadShape, i)
		}
		if m.name == "" {
			return fmt.Errorf("%w: member %d has no name", ErrBadShape, i)
		}
		if seen[m.name] {
			return fmt.Errorf("%w: duplicate member %q", ErrBadShape, m.name)
		}
		seen[m.name] = true

		if m.def != nil && m.def.err != nil {
			return m.def.err
		}
	}

	return nil
}

// empty derives the Empty phase: pure structure, no data. Used to probe and
// compare shapes.
func (ms Members) empty() Members {
	return ms.Map(func(m *Member) *Member {
		return &Member{name: m.name, kind: m.kind, phase: PhaseEmpty}
	})
}

// shapeTag is the canonical signature of a structure: member names and kinds
// in declared order. Two objects are shape-compatible iff their tags match.
func shapeTag(ms Members) string {
	var b strings.Builder
	for i, m := range ms.empty() {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%s:%s", m.name, m.kind)
	}
	return b.String()
}
