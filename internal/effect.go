package internal

type EffectType int

const (
	// EffectRender effects carry state out of the network (store mirrors,
	// change signals) and run before user effects.
	EffectRender EffectType = iota
	EffectUser
)

// Effect reruns a function after every step in which one of its dependencies
// changed. The function may return a cleanup, invoked before each rerun and
// on disposal.
type Effect struct {
	*Derived

	typ EffectType
}

func (r *Runtime) NewEffect(typ EffectType, effect func() func()) *Effect {
	d := r.NewDerived(func() any {
		return effect()
	})

	e := &Effect{Derived: d, typ: typ}

	d.onDirty = func() {
		r.effects.Enqueue(typ, func() {
			if cleanup, ok := d.Value().(func()); ok && cleanup != nil {
				cleanup()
			}

			r.recompute(d)
		})
	}

	d.OnDispose(func() {
		if cleanup, ok := d.Value().(func()); ok && cleanup != nil {
			cleanup()
		}
	})

	// effects run eagerly once to establish their dependencies
	r.recompute(d)

	return e
}

// Watch samples a value on every step and hands each changed result to
// onChange after the step commits. The initial sample does not fire.
// The sampled value is captured during the step, so watchers on transient
// state observe it before it clears.
func (r *Runtime) Watch(sample func() any, onChange func(any)) *Derived {
	d := r.NewDerived(sample)

	d.onDirty = func() {
		old := d.Value()
		r.recompute(d)
		now := d.Value()

		if !isEqual(old, now) {
			r.effects.Enqueue(EffectRender, func() { onChange(now) })
		}
	}

	r.recompute(d)

	return d
}
