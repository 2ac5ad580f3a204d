// Package react binds a functional-reactive dependency network to long-lived
// native objects with named properties and methods. Application state lives
// in behaviors and events; the bridge projects it onto objects an external,
// imperative UI runtime can read, call, and mutate, with the reactive
// network staying the single source of truth.
package react

import "github.com/bennofs/hsqml-react/internal"

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

// Behavior is a continuous reactive value, sampled at any logical time.
type Behavior[T any] struct {
	cell    *internal.Cell
	derived *internal.Derived
}

// NewBehavior creates a writable behavior holding initial, returning the
// behavior and its setter.
func NewBehavior[T any](initial T) (*Behavior[T], func(T)) {
	c := internal.GetRuntime().NewCell(initial)
	return &Behavior[T]{cell: c}, func(v T) { c.Write(v) }
}

// Derive creates a behavior computed from other behaviors. The computation
// runs on demand and reruns whenever a sampled dependency changes.
func Derive[T any](compute func() T) *Behavior[T] {
	d := internal.GetRuntime().NewDerived(func() any { return compute() })
	return &Behavior[T]{derived: d}
}

// Sample reads the current value, tracking the dependency if within a
// reactive computation.
func (b *Behavior[T]) Sample() T {
	return as[T](b.sampleAny())
}

func (b *Behavior[T]) sampleAny() any {
	if b.derived != nil {
		return b.derived.Read()
	}
	return b.cell.Read()
}

// untyped erases the element type for the member machinery.
func (b *Behavior[T]) untyped() *anyBehavior {
	return &anyBehavior{sample: b.sampleAny}
}

// anyBehavior is the untyped view of a behavior carried through member
// structures.
type anyBehavior struct {
	sample func() any
}

// Event is a discrete reactive occurrence stream carrying payloads.
type Event[T any] struct {
	ev *internal.Event
}

// NewEvent creates an event and its emit function. Each emitted payload is
// observable for exactly one step.
func NewEvent[T any]() (*Event[T], func(T)) {
	ev := internal.GetRuntime().NewEvent()
	return &Event[T]{ev: ev}, func(v T) { ev.Emit(v) }
}

// Subscribe runs fn after every step in which the event occurs. The
// subscription is owned by the current owner.
func (e *Event[T]) Subscribe(fn func(T)) {
	e.ev.Subscribe(func(v any) { fn(as[T](v)) })
}

// Hold creates a behavior that holds the event's most recent payload,
// starting at initial.
func Hold[T any](initial T, e *Event[T]) *Behavior[T] {
	b, set := NewBehavior(initial)
	e.Subscribe(set)
	return b
}

// MapEvent derives an event that occurs whenever e occurs, with payloads
// transformed by f.
func MapEvent[T, U any](e *Event[T], f func(T) U) *Event[U] {
	out, emit := NewEvent[U]()
	e.Subscribe(func(v T) { emit(f(v)) })
	return out
}

// Effect runs fn now and again after every step in which a sampled
// dependency changed. fn may return a cleanup, run before each rerun.
func Effect(fn func() func()) {
	internal.GetRuntime().NewEffect(internal.EffectUser, fn)
}

// Batch groups multiple writes into a single step.
func Batch(fn func()) {
	internal.GetRuntime().NewBatch(fn)
}

// Untrack runs fn without recording reactive dependencies.
func Untrack[T any](fn func() T) T {
	var result T
	internal.GetRuntime().Untrack(func() { result = fn() })
	return result
}

// OnCleanup registers fn to run when the current owner is disposed.
func OnCleanup(fn func()) {
	internal.GetRuntime().OnCleanup(fn)
}

// Owner manages the lifecycle of reactive nodes created within its scope.
type Owner struct {
	owner *internal.Owner
}

func NewOwner() *Owner {
	return &Owner{internal.GetRuntime().NewOwner()}
}

// Run executes fn with this owner current; nodes created inside are disposed
// with the owner.
func (o *Owner) Run(fn func()) { o.owner.Run(fn) }

// Dispose the owner and everything it owns.
func (o *Owner) Dispose() { o.owner.Dispose() }

// OnError registers a handler for panics raised under this owner.
func (o *Owner) OnError(fn func(any)) { o.owner.OnError(fn) }
