package internal

import "reflect"

// Cell is a writable behavior cell. Writes stage a pending value; the staged
// value becomes visible to reads immediately but is only committed at the end
// of the step, so every observer of one step sees a consistent world.
type Cell struct {
	*node

	value        any
	pendingValue *any // nil if no pending value
}

func (r *Runtime) NewCell(initial any) *Cell {
	return &Cell{
		node:  &node{},
		value: initial,
	}
}

// NewTransientCell creates a cell whose value lives for a single step.
// Event occurrences are staged into transient cells and cleared on commit.
func (r *Runtime) NewTransientCell() *Cell {
	c := r.NewCell(nil)
	c.AddFlag(flagTransient)
	return c
}

// Read the current value, tracking the dependency if within a derivation.
func (c *Cell) Read() any {
	r := GetRuntime()

	if r.tracker.ShouldTrack() {
		r.tracker.currentDerivation.Link(c)
	}

	return c.Value()
}

// Write stages a new value and schedules a step, unless the value is
// unchanged. Transient cells always propagate: every occurrence counts.
func (c *Cell) Write(v any) {
	r := GetRuntime()

	if !c.HasFlag(flagTransient) && isEqual(c.Value(), v) {
		return
	}

	c.stage(r, v)
	r.heap.InsertAll(c.Subs())
	r.Schedule()
}

func (c *Cell) stage(r *Runtime, v any) {
	if c.pendingValue == nil {
		r.commits.Enqueue(c)
	}
	c.pendingValue = &v
	c.SetVersion(r.scheduler.Time())
}

func (c *Cell) Value() any {
	if c.pendingValue != nil {
		return *c.pendingValue
	}

	return c.value
}

// Commit applies the pending value. Transient cells reset instead: their
// staged occurrence must not outlive the step.
func (c *Cell) Commit() {
	if c.HasFlag(flagTransient) {
		c.value = nil
		c.pendingValue = nil
		return
	}

	if c.pendingValue != nil {
		c.value = *c.pendingValue
		c.pendingValue = nil
	}
}

// isEqual compares without panicking on uncomparable values (funcs, maps,
// slices all count as changed).
func isEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}

	return a == b
}
