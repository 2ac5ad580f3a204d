package internal

import "iter"

// Derived is a behavior computed from other cells. Unlike a plain cell it
// owns a lifecycle (child owners, cleanups) and a dependency list.
//
// Evaluation is demand-driven: a Derived is not computed when created but on
// its first read (or when drained from the dirty heap). Definitions may
// therefore refer to values that only exist once a whole structure has been
// built, as long as no value computation reaches back into itself.
type Derived struct {
	*Owner
	*Cell

	initialized bool
	computing   bool

	// compute produces the next value; runs tracked
	compute func() any

	// onDirty, if set, replaces the default recompute when the node is
	// drained from the heap (used by effects and watchers)
	onDirty func()

	depsHead *link
}

func (r *Runtime) NewDerived(compute func() any) *Derived {
	d := &Derived{
		Owner:   r.NewOwner(),
		Cell:    r.NewCell(nil),
		compute: compute,
	}

	d.OnDispose(func() {
		if d.depsHead != nil {
			r.heap.Remove(d)
			d.ClearDeps()
			d.SetFlags(flagNone)
		}
	})

	r.adopt(d.Owner)

	return d
}

// Read forces the value if it has not been computed yet, then reads it with
// dependency tracking. Reading a Derived from inside its own computation is
// a fatal author error (a value that depends on itself cannot settle).
func (d *Derived) Read() any {
	if d.computing {
		panic("react: a value computation depends on its own result")
	}

	if !d.initialized {
		GetRuntime().recompute(d)
	}

	return d.Cell.Read()
}

// run is invoked when the node is drained from the dirty heap.
func (d *Derived) run(r *Runtime) {
	if d.onDirty != nil {
		d.onDirty()
		return
	}

	r.recompute(d)
}

// Link records a dependency edge from this derivation to the given cell.
func (d *Derived) Link(dep *Cell) {
	// dont link if already present as the most recent dependency
	if d.depsHead != nil {
		tail := d.depsHead.prevDep
		if tail.dep == dep {
			return
		}
	}

	l := &link{dep: dep, sub: d}

	d.addDepLink(l)
	dep.node.addSubLink(l)

	if dep.Height() >= d.Height() {
		d.Cell.node.height = dep.Height() + 1
	}
}

// Deps returns an iterator over all dependencies.
func (d *Derived) Deps() iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		l := d.depsHead
		for l != nil {
			if !yield(l.dep) {
				return
			}
			l = l.nextDep
		}
	}
}

// ClearDeps removes all dependency edges, leaving subscriber lists clean.
func (d *Derived) ClearDeps() {
	for l := d.depsHead; l != nil; {
		next := l.nextDep
		l.dep.node.removeSubLink(l)
		l = next
	}

	d.depsHead = nil
}

func (d *Derived) addDepLink(l *link) {
	if d.depsHead == nil {
		d.depsHead = l
		l.prevDep = l // loop to self
		l.nextDep = nil
	} else {
		tail := d.depsHead.prevDep
		tail.nextDep = l
		l.prevDep = tail
		l.nextDep = nil
		d.depsHead.prevDep = l
	}
}
