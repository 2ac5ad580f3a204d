package internal

// occurrence wraps an event payload so that a nil payload is still
// distinguishable from "did not occur".
type occurrence struct {
	value any
}

// Event is a discrete occurrence stream. An emitted payload is visible to
// reads for the duration of one step and cleared on commit.
type Event struct {
	cell *Cell
}

func (r *Runtime) NewEvent() *Event {
	return &Event{cell: r.NewTransientCell()}
}

// Emit stages an occurrence for the current step and schedules a flush.
func (e *Event) Emit(v any) {
	e.cell.Write(&occurrence{value: v})
}

// Occurring reports whether the event occurs in the current step, tracking
// the dependency if within a derivation.
func (e *Event) Occurring() (any, bool) {
	occ, ok := e.cell.Read().(*occurrence)
	if !ok {
		return nil, false
	}
	return occ.value, true
}

// Subscribe runs fn after the end of every step in which the event occurs.
// The payload is captured during the step, before the occurrence is cleared.
// The subscription lives until the current owner is disposed.
func (e *Event) Subscribe(fn func(any)) *Derived {
	r := GetRuntime()

	d := r.NewDerived(func() any {
		return e.cell.Read()
	})

	d.onDirty = func() {
		r.recompute(d)

		if occ, ok := d.Value().(*occurrence); ok {
			payload := occ.value
			r.effects.Enqueue(EffectUser, func() { fn(payload) })
		}
	}

	// initial run establishes the dependency edge without firing
	r.recompute(d)

	return d
}
