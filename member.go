package react

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/bennofs/hsqml-react/internal"
	"github.com/bennofs/hsqml-react/registry"
)

// Kind is the behavioral category of a member. It never changes over a
// member's life; only the phase does.
type Kind int

const (
	KindConstant Kind = iota
	KindReadOnly
	KindMutable
	KindCallable
	KindEmbedded
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindReadOnly:
		return "readonly"
	case KindMutable:
		return "mutable"
	case KindCallable:
		return "callable"
	case KindEmbedded:
		return "embedded"
	}
	return "unknown"
}

// Phase is how far a member has progressed from authored definition to live
// native binding.
type Phase int

const (
	// PhaseEmpty members carry no data; they exist to probe shape.
	PhaseEmpty Phase = iota
	// PhaseDefinition carries the author's recipe.
	PhaseDefinition
	// PhaseInputs carries only the member's reactive input channels.
	PhaseInputs
	// PhaseFinal is the recipe bound together with its inputs.
	PhaseFinal
	// PhaseRegistered is bound to a native descriptor and update procedure.
	PhaseRegistered
	// PhaseSnapshot is a pure current value with no reactivity.
	PhaseSnapshot
)

// Member is one exposed property or method slot of an object, tagged by kind
// and phase.
type Member struct {
	name  string
	kind  Kind
	phase Phase

	def  *memberDef
	in   *memberInputs
	fin  *memberFinal
	reg  *memberReg
	snap any
}

func (m *Member) Name() string { return m.name }
func (m *Member) Kind() Kind   { return m.kind }
func (m *Member) Phase() Phase { return m.phase }

// Value returns the member's current value; valid for Snapshot members.
func (m *Member) Value() any { return m.snap }

// memberDef is the Definition-phase payload: the author's recipe plus any
// error detected while the typed constructor ran.
type memberDef struct {
	err    error
	recipe func(self *Self, in *memberInputs) *memberFinal
}

// memberInputs is the Inputs-phase payload: the reactive channels a member
// needs from the runtime, created before any value exists.
type memberInputs struct {
	changes *internal.Event // inbound change requests (mutable, embedded)
	calls   *internal.Event // inbound invocations (callable)
	results *internal.Event // outbound results (callable)
}

// memberFinal is the Final-phase payload: the bound value source.
type memberFinal struct {
	inputs *memberInputs

	// value is the member's value behavior: the exposed value for constant,
	// readonly and mutable members, a function value for callable members,
	// and an *Embed recipe for embedded members.
	value *anyBehavior

	// fnType is the callable's static signature.
	fnType reflect.Type
}

// newInputs synthesizes the Inputs phase for a member of the given kind.
// This needs no knowledge of values and runs before the recipe.
func newInputs(rt *internal.Runtime, kind Kind) *memberInputs {
	in := &memberInputs{}

	switch kind {
	case KindMutable, KindEmbedded:
		in.changes = rt.NewEvent()
	case KindCallable:
		in.calls = rt.NewEvent()
		in.results = rt.NewEvent()
	}

	return in
}

// Constant defines a member with one fixed value, exposed read-only.
// Constants can never be rebound in place: updating an object that contains
// one always reports failure.
func Constant[T any](name string, value T) *Member {
	return &Member{
		name:  name,
		kind:  KindConstant,
		phase: PhaseDefinition,
		def: &memberDef{
			recipe: func(*Self, *memberInputs) *memberFinal {
				return &memberFinal{
					value: &anyBehavior{sample: func() any { return value }},
				}
			},
		},
	}
}

// ReadOnly defines a member mirroring a behavior, exposed read-only with
// change notification.
func ReadOnly[T any](name string, def func(self *Self) *Behavior[T]) *Member {
	return &Member{
		name:  name,
		kind:  KindReadOnly,
		phase: PhaseDefinition,
		def: &memberDef{
			recipe: func(self *Self, in *memberInputs) *memberFinal {
				return &memberFinal{inputs: in, value: def(self).untyped()}
			},
		},
	}
}

// MutableIn carries the reactive inputs of a mutable member.
type MutableIn[T any] struct {
	// Changes occurs once for every inbound native-side write, carrying the
	// requested value. The author's behavior stays authoritative: a change
	// only takes effect if the behavior derives from this event.
	Changes *Event[T]
}

// Mutable defines a read/write member. The returned behavior is the exposed
// value; inbound writes surface on in.Changes.
func Mutable[T any](name string, def func(self *Self, in *MutableIn[T]) *Behavior[T]) *Member {
	return &Member{
		name:  name,
		kind:  KindMutable,
		phase: PhaseDefinition,
		def: &memberDef{
			recipe: func(self *Self, in *memberInputs) *memberFinal {
				typed := &MutableIn[T]{Changes: &Event[T]{ev: in.changes}}
				return &memberFinal{inputs: in, value: def(self, typed).untyped()}
			},
		},
	}
}

// Call is one inbound method invocation. The native caller blocks until
// Return delivers the result.
type Call struct {
	Args []any

	reply chan any
	once  sync.Once
}

func newCall(args []any) *Call {
	return &Call{Args: args, reply: make(chan any, 1)}
}

// Return delivers the call's result, exactly once. A second Return is a
// fatal author error; never returning leaves the caller blocked forever.
func (c *Call) Return(v any) {
	delivered := false
	c.once.Do(func() {
		c.reply <- v
		delivered = true
	})
	if !delivered {
		panic("react: call result delivered twice")
	}
}

func (c *Call) wait() any { return <-c.reply }

// CallableIn carries the reactive inputs of a callable member.
type CallableIn struct {
	// Calls occurs once per inbound invocation. The default consumer applies
	// the member's current function value and returns the result; authors
	// only observe this event.
	Calls *Event[*Call]

	// Results occurs with each produced result.
	Results *Event[any]
}

// Callable defines a method member. F must be a non-variadic func type with
// at most one result whose parameter and result types are convertible at the
// native boundary; a mismatch is a construction-time error.
func Callable[F any](name string, def func(self *Self, in *CallableIn) *Behavior[F]) *Member {
	fnType := reflect.TypeOf((*F)(nil)).Elem()
	err := checkCallable(name, fnType)

	return &Member{
		name:  name,
		kind:  KindCallable,
		phase: PhaseDefinition,
		def: &memberDef{
			err: err,
			recipe: func(self *Self, in *memberInputs) *memberFinal {
				typed := &CallableIn{
					Calls:   &Event[*Call]{ev: in.calls},
					Results: &Event[any]{ev: in.results},
				}
				return &memberFinal{
					inputs: in,
					value:  def(self, typed).untyped(),
					fnType: fnType,
				}
			},
		},
	}
}

func checkCallable(name string, t reflect.Type) error {
	if t.Kind() != reflect.Func {
		return fmt.Errorf("%w: member %q: %s is not a func type", ErrNotConvertible, name, t)
	}
	if t.IsVariadic() {
		return fmt.Errorf("%w: member %q: variadic funcs cannot cross the native boundary", ErrNotConvertible, name)
	}
	if t.NumOut() > 1 {
		return fmt.Errorf("%w: member %q: at most one result supported", ErrNotConvertible, name)
	}

	for i := 0; i < t.NumIn(); i++ {
		if !registry.Convertible(t.In(i)) {
			return fmt.Errorf("%w: member %q: argument %d (%s)", ErrNotConvertible, name, i, t.In(i))
		}
	}
	for i := 0; i < t.NumOut(); i++ {
		if !registry.Convertible(t.Out(i)) {
			return fmt.Errorf("%w: member %q: result (%s)", ErrNotConvertible, name, t.Out(i))
		}
	}

	return nil
}

// invokeFunc applies a dynamically held function value to native-side
// arguments, converting each to the declared parameter type. An argument
// whose dynamic type cannot be converted is a fatal author/runtime mismatch.
func invokeFunc(name string, f any, t reflect.Type, args []any) any {
	fv := reflect.ValueOf(f)

	in := make([]reflect.Value, t.NumIn())
	for i := range in {
		if i < len(args) && args[i] != nil {
			av := reflect.ValueOf(args[i])
			if !av.Type().ConvertibleTo(t.In(i)) {
				panic(fmt.Sprintf("react: call to %q: argument %d (%s) is not convertible to %s",
					name, i, av.Type(), t.In(i)))
			}
			in[i] = av.Convert(t.In(i))
		} else {
			in[i] = reflect.Zero(t.In(i))
		}
	}

	out := fv.Call(in)
	if len(out) == 0 {
		return nil
	}
	return out[0].Interface()
}

// EmbedIn carries the reactive inputs of an embedded member.
type EmbedIn struct {
	// Changes occurs for inbound native-side writes against the embedded
	// slot. Most authors ignore it; the embedded value itself is rebuilt
	// from the returned behavior.
	Changes *Event[any]
}

// Embedded defines a member holding dynamically created sub-objects. The
// behavior produces an *Embed recipe, re-evaluated against the member's
// cache whenever it or any embedded object's own behaviors change.
func Embedded(name string, def func(self *Self, in *EmbedIn) *Behavior[*Embed]) *Member {
	return &Member{
		name:  name,
		kind:  KindEmbedded,
		phase: PhaseDefinition,
		def: &memberDef{
			recipe: func(self *Self, in *memberInputs) *memberFinal {
				typed := &EmbedIn{Changes: &Event[any]{ev: in.changes}}
				return &memberFinal{inputs: in, value: def(self, typed).untyped()}
			},
		},
	}
}
