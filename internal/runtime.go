package internal

import "sync"

// maxFlushPasses bounds cascading steps within one flush; hitting it means
// the network feeds itself forever, which is an author error.
const maxFlushPasses = 100000

// Runtime evaluates a reactive network in discrete logical steps. Within a
// step every cell and derivation settles before any externally observable
// effect runs. A runtime belongs to the goroutine that created it; other
// goroutines enter through Dispatch.
type Runtime struct {
	// serializes inbound work from foreign goroutines
	extMu sync.Mutex

	heap      *PriorityHeap
	tracker   *Tracker
	batcher   *Batcher
	scheduler *Scheduler
	commits   *CommitQueue
	effects   *EffectQueue
}

func NewRuntime() *Runtime {
	return &Runtime{
		heap:      NewHeap(),
		tracker:   NewTracker(),
		batcher:   NewBatcher(),
		scheduler: NewScheduler(),
		commits:   NewCommitQueue(),
		effects:   NewEffectQueue(),
	}
}

func (r *Runtime) Schedule() {
	r.scheduler.Schedule()

	if !r.batcher.IsBatching() {
		r.Flush()
	}
}

// Flush settles the network: drain dirty derivations in topological order,
// commit staged values, then run effects. Effects may stage further work, in
// which case another pass runs, each pass being one logical step.
func (r *Runtime) Flush() {
	r.scheduler.Run(func() {
		for pass := 0; ; pass++ {
			if pass > maxFlushPasses {
				panic("react: network did not settle")
			}

			r.heap.Drain(func(d *Derived) { d.run(r) })
			r.commits.Commit()
			r.scheduler.Tick()

			r.effects.RunEffects(EffectRender)
			r.effects.RunEffects(EffectUser)

			if r.heap.Empty() && r.effects.Empty() && r.commits.Empty() {
				break
			}
		}
	})
}

// Dispatch marshals work from a foreign goroutine (typically the native UI
// runtime) into this runtime. fn runs with the runtime bound to the calling
// goroutine and its writes land in the next logical step, flushed before
// Dispatch returns.
func (r *Runtime) Dispatch(fn func()) {
	r.extMu.Lock()
	defer r.extMu.Unlock()

	unbind := bindRuntime(r)
	defer unbind()

	r.NewBatch(fn)
}

func (r *Runtime) NewBatch(fn func()) {
	r.batcher.Batch(fn, r.Flush)
}

func (r *Runtime) Untrack(fn func()) {
	r.tracker.RunUntracked(fn)
}

func (r *Runtime) CurrentOwner() *Owner {
	return r.tracker.CurrentOwner()
}

// InDerivation reports whether a derivation is currently computing.
func (r *Runtime) InDerivation() bool {
	return r.tracker.CurrentDerivation() != nil
}

// AdoptOwner attaches an owner to the current owner, if any.
func (r *Runtime) AdoptOwner(o *Owner) {
	r.adopt(o)
}

func (r *Runtime) OnCleanup(fn func()) {
	if owner := r.CurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}

func (r *Runtime) recompute(d *Derived) {
	if d.computing {
		panic("react: a value computation depends on its own result")
	}

	d.computing = true
	defer func() { d.computing = false }()

	old := d.Value()

	d.DisposeChildren()
	d.ClearDeps()
	d.SetVersion(r.scheduler.Time())

	r.tracker.RunWithDerivation(d, func() {
		d.Cell.stage(r, d.compute())
	})
	d.initialized = true

	if !isEqual(old, d.Value()) {
		r.heap.InsertAll(d.Subs())
	}
}
