package react

import (
	"fmt"

	"github.com/bennofs/hsqml-react/internal"
	"github.com/bennofs/hsqml-react/registry"
)

// ObjectDef is an object definition: a function from the eventual finalized
// object ("self") to the member structure. Definitions may refer to other
// members through self as long as no member's value computation reaches back
// into its own value.
type ObjectDef func(self *Self) Members

// Self is the fixpoint placeholder handed to a definition. Its members
// resolve lazily, once the whole object has been finalized; forcing one
// earlier is a fatal author error.
type Self struct {
	finals map[string]*memberFinal
}

func (s *Self) mustFinal(name string) *memberFinal {
	if s.finals == nil {
		panic(fmt.Sprintf("react: self member %q forced before the object was finalized", name))
	}

	fin, ok := s.finals[name]
	if !ok {
		panic(fmt.Sprintf("react: self has no member %q", name))
	}
	return fin
}

func (s *Self) resolve(finals Members) {
	s.finals = make(map[string]*memberFinal, len(finals))
	for _, m := range finals {
		s.finals[m.name] = m.fin
	}
}

// SelfBehavior returns the named member's value behavior, resolved on
// demand. Sampling it before finalization completes panics.
func SelfBehavior[T any](self *Self, name string) *Behavior[T] {
	return Derive(func() T {
		return as[T](self.mustFinal(name).value.sample())
	})
}

// Object is a finalized member structure bound to one native instance. The
// shape is fixed for the object's life; only member values change.
type Object struct {
	handle  registry.Handle
	class   registry.Class
	runtime *internal.Runtime
	reg     registry.Registry
	owner   *internal.Owner

	// inputs stay stable across updates so native descriptors keep feeding
	// the same channels
	inputs Members // Inputs phase
	final  Members // Final phase, current definition
	regs   Members // Registered phase

	// defOwner scopes the current definition's derivations and
	// subscriptions; rebinding replaces it and tears the old one down
	defOwner *internal.Owner

	signals registry.SignalID
	tag     string
}

// New finalizes a definition into a live object: synthesizes inputs, binds
// the definition against them (closing the self fixpoint), registers every
// member with the native registry and performs first-time binding.
// Structural and definition errors are fatal and reported here, before
// anything native exists.
func New(reg registry.Registry, def ObjectDef) (*Object, error) {
	rt := internal.GetRuntime()

	o := &Object{reg: reg, runtime: rt, owner: rt.NewOwner()}

	var err error
	o.owner.Run(func() {
		err = o.build(def)
	})
	if err != nil {
		o.owner.Dispose()
		return nil, err
	}

	// a top-level object belongs to the owner building the network; objects
	// built inside a derivation (embedding) manage their own teardown
	if !rt.InDerivation() {
		rt.AdoptOwner(o.owner)
	}

	return o, nil
}

func (o *Object) build(def ObjectDef) error {
	self := &Self{}
	defs := def(self)

	if err := validateShape(defs); err != nil {
		return err
	}

	// pass 1: synthesize input channels; needs no values
	inputs, err := defs.Traverse(func(name string, m *Member) (*Member, error) {
		return &Member{name: name, kind: m.kind, phase: PhaseInputs, in: newInputs(o.runtime, m.kind)}, nil
	})
	if err != nil {
		return err
	}

	// pass 2: bind each recipe with its inputs, scoped to its own owner so
	// a later rebinding can tear this definition down
	finals, defOwner, err := o.bindUnderOwner(self, defs, inputs)
	if err != nil {
		return err
	}

	self.resolve(finals)

	o.owner.AddChild(defOwner)
	o.defOwner = defOwner
	o.inputs = inputs
	o.final = finals
	o.tag = shapeTag(finals)

	return o.register()
}

// bindUnderOwner runs pass 2 inside a fresh owner, so every derivation and
// subscription a recipe creates belongs to that definition and dies with it.
func (o *Object) bindUnderOwner(self *Self, defs, inputs Members) (Members, *internal.Owner, error) {
	defOwner := o.runtime.NewOwner()

	var (
		finals Members
		err    error
	)
	defOwner.Run(func() {
		finals, err = bindDefinitions(self, defs, inputs)
	})
	if err != nil {
		defOwner.Dispose()
		return nil, nil, err
	}

	return finals, defOwner, nil
}

// bindDefinitions runs pass 2: each Definition member paired with its
// matching Inputs member yields a Final member. No value is forced here;
// evaluation stays demand-driven so reference cycles cannot diverge.
func bindDefinitions(self *Self, defs, inputs Members) (Members, error) {
	return zipMembers(defs, inputs, func(name string, d, in *Member) (*Member, error) {
		if d.kind != in.kind {
			return nil, fmt.Errorf("%w: member %q is %s, expected %s", ErrBadShape, name, d.kind, in.kind)
		}

		fin := d.def.recipe(self, in.in)
		fin.inputs = in.in

		return &Member{name: name, kind: d.kind, phase: PhaseFinal, in: in.in, fin: fin}, nil
	})
}

func (o *Object) register() error {
	regs, err := o.final.Traverse(func(name string, m *Member) (*Member, error) {
		rec := o.newRegistration(name, m)
		return &Member{name: name, kind: m.kind, phase: PhaseRegistered, in: m.in, fin: m.fin, reg: rec}, nil
	})
	if err != nil {
		return err
	}

	descs := make([]registry.Descriptor, len(regs))
	for i, m := range regs {
		descs[i] = m.reg.desc
	}

	class, err := o.reg.CreateClass(descs)
	if err != nil {
		return fmt.Errorf("react: registering class: %w", err)
	}

	handle, err := o.reg.CreateInstance(class)
	if err != nil {
		return fmt.Errorf("react: creating instance: %w", err)
	}

	o.class = class
	o.handle = handle
	o.regs = regs

	// first-time binding: subscribe to future changes, push initial values
	for _, m := range regs {
		if m.reg.bind != nil {
			m.reg.bind(m.fin)
		}
	}

	return nil
}

// Handle returns the object's native handle. One handle per object, for the
// object's whole life.
func (o *Object) Handle() registry.Handle { return o.handle }

// Update rebinds the object to a new definition without recreating the
// native instance or its descriptors: only pass 2 reruns, against the
// existing inputs, and every member's update procedure must accept the
// rebinding. Constants always refuse. On refusal nothing is rebound and the
// caller decides, typically by reconstructing from scratch.
func (o *Object) Update(def ObjectDef) bool {
	ok := false
	o.owner.Run(func() {
		ok = o.update(def)
	})
	return ok
}

func (o *Object) update(def ObjectDef) bool {
	self := &Self{}
	defs := def(self)

	if validateShape(defs) != nil {
		return false
	}
	if shapeTag(defs) != o.tag {
		return false
	}

	// constants cannot be rebound in place; refuse before touching anything
	for _, m := range defs {
		if m.kind == KindConstant {
			return false
		}
	}

	finals, defOwner, err := o.bindUnderOwner(self, defs, o.inputs)
	if err != nil {
		return false
	}

	self.resolve(finals)

	// rebind every member in one step, so no observer sees a mix of old
	// and new sources
	ok := false
	o.runtime.NewBatch(func() {
		i := 0
		ok = o.regs.Walk(func(name string, m *Member) bool {
			fin := finals[i].fin
			i++
			return m.reg.update(fin)
		})
	})
	if !ok {
		// unreachable for the built-in kinds: constants were refused above
		// and the remaining kinds always accept
		defOwner.Dispose()
		return false
	}

	o.owner.AddChild(defOwner)
	o.defOwner.Dispose()
	o.defOwner = defOwner
	o.final = finals

	return true
}

// Snapshot derives the Snapshot phase: every member's pure current value,
// sampled without reactivity.
func (o *Object) Snapshot() map[string]any {
	snaps := o.snapshotMembers()

	out := make(map[string]any, len(snaps))
	snaps.Walk(func(name string, m *Member) bool {
		out[name] = m.snap
		return true
	})
	return out
}

func (o *Object) snapshotMembers() Members {
	return o.regs.Map(func(m *Member) *Member {
		var v any
		switch {
		case m.reg.store != nil:
			v = m.reg.store.Read()
		case m.reg.desc.Read != nil:
			v = m.reg.desc.Read(o.handle)
		default:
			fin := m.reg.current()
			o.runtime.Untrack(func() { v = fin.value.sample() })
		}
		return &Member{name: m.name, kind: m.kind, phase: PhaseSnapshot, snap: v}
	})
}

// touch samples every member's value behavior, so the surrounding
// derivation re-evaluates whenever any of the object's own behaviors change.
func (o *Object) touch() {
	for _, m := range o.final {
		if m.fin != nil && m.fin.value != nil {
			m.fin.value.sample()
		}
	}
}

func (o *Object) dispose() {
	o.owner.Dispose()
}

// memberReg is the Registered-phase payload: the native descriptor plus the
// procedures binding it to the reactive side.
type memberReg struct {
	desc registry.Descriptor

	// source holds the member's current Final payload; rebinding swaps it
	source *internal.Cell

	// store mirrors the value for native reads; nil for methods
	store *store

	// bind performs first-time binding against the live instance
	bind func(fin *memberFinal)

	// update rebinds in place; false means the kind refuses
	update func(fin *memberFinal) bool
}

func (r *memberReg) current() *memberFinal {
	return r.source.Value().(*memberFinal)
}

func (o *Object) newRegistration(name string, m *Member) *memberReg {
	rec := &memberReg{
		source: o.runtime.NewCell(m.fin),
	}

	swap := func(fin *memberFinal) bool {
		rec.source.Write(fin)
		return true
	}

	switch m.kind {
	case KindConstant:
		value := m.fin.value.sample()
		rec.desc = registry.ConstantProperty(name, func(registry.Handle) any { return value })
		rec.update = func(*memberFinal) bool { return false }

	case KindReadOnly:
		rec.store = newStore(nil)
		sig := o.nextSignal()
		rec.desc = registry.ReadOnlyProperty(name, sig, func(registry.Handle) any { return rec.store.Read() })
		rec.update = swap
		rec.bind = func(*memberFinal) { o.bindStore(rec, sig) }

	case KindMutable:
		rec.store = newStore(nil)
		sig := o.nextSignal()
		changes := m.fin.inputs.changes
		rec.desc = registry.ReadWriteProperty(name, sig,
			func(registry.Handle) any { return rec.store.Read() },
			func(_ registry.Handle, v any) {
				o.runtime.Dispatch(func() { changes.Emit(v) })
			})
		rec.update = swap
		rec.bind = func(*memberFinal) { o.bindStore(rec, sig) }

	case KindCallable:
		calls := m.fin.inputs.calls
		rec.desc = registry.Method(name, func(_ registry.Handle, args []any) any {
			c := newCall(args)
			o.runtime.Dispatch(func() { calls.Emit(c) })
			return c.wait()
		})
		rec.update = swap
		rec.bind = func(*memberFinal) { o.bindCallable(rec) }

	case KindEmbedded:
		rec.store = newStore(nil)
		sig := o.nextSignal()
		rec.desc = registry.ReadOnlyProperty(name, sig, func(registry.Handle) any { return rec.store.Read() })
		rec.update = swap
		rec.bind = func(*memberFinal) { o.bindEmbedded(rec, sig) }
	}

	return rec
}

// signal ids are assigned in member order over signal-bearing members
func (o *Object) nextSignal() registry.SignalID {
	sig := o.signals
	o.signals++
	return sig
}

// bindStore mirrors the member's value behavior into its store and fires the
// change signal after each step in which the value changed. The store is
// written during the recomputation, before any of the step's signals fire,
// so a read triggered by one member's signal observes every member's new
// value.
func (o *Object) bindStore(rec *memberReg, sig registry.SignalID) {
	o.runtime.Watch(func() any {
		v := rec.source.Read().(*memberFinal).value.sample()
		rec.store.set(v)
		return v
	}, func(any) {
		o.reg.FireChangeSignal(o.handle, sig)
	})
}

// bindCallable consumes inbound calls: apply the member's current function
// value, deliver exactly one result to the blocked caller, and surface the
// result as an event.
func (o *Object) bindCallable(rec *memberReg) {
	calls := rec.current().inputs.calls

	calls.Subscribe(func(v any) {
		c := v.(*Call)
		fin := rec.current()

		res := invokeFunc(rec.desc.Name, fin.value.sample(), fin.fnType, c.Args)
		c.Return(res)
		fin.inputs.results.Emit(res)
	})
}

// bindEmbedded evaluates the member's embed recipe against its cache on
// every step in which the recipe or any embedded object's own behaviors
// change, diffing the cache so unrelated structure survives. Objects that
// fall out of the cache have their reactive side torn down; their native
// handles are abandoned to the runtime's ownership rules.
func (o *Object) bindEmbedded(rec *memberReg, sig registry.SignalID) {
	cache := Cache{}

	o.owner.OnCleanup(func() {
		for _, ent := range cache.keyed {
			ent.obj.dispose()
		}
		for _, obj := range cache.unkeyed {
			obj.dispose()
		}
	})

	o.runtime.Watch(func() any {
		emb, ok := rec.source.Read().(*memberFinal).value.sample().(*Embed)
		if !ok || emb == nil {
			emb = EmbedConst(nil)
		}

		next, val := emb.eval(o.reg, cache)

		for k, old := range cache.keyed {
			if now, kept := next.keyed[k]; !kept || now.obj != old.obj {
				old.obj.dispose()
			}
		}
		// unkeyed objects are never reused, so the previous evaluation's
		// are dead as soon as this one lands
		for _, old := range cache.unkeyed {
			old.dispose()
		}
		cache = next

		rec.store.set(val)
		return embedResult{value: val}
	}, func(any) {
		o.reg.FireChangeSignal(o.handle, sig)
	})
}

// embedResult forces every re-evaluation to count as a change: a reused
// handle with updated contents must still notify upward. The func field
// makes the type uncomparable, so change detection never considers two
// results equal.
type embedResult struct {
	_     [0]func()
	value any
}
