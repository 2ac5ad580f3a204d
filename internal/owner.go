package internal

import "iter"

// Owner manages the lifecycle of reactive nodes created within its scope.
// Owners form a tree; disposing an owner disposes all of its children first.
type Owner struct {
	// cleanup functions called once on the first dispose
	cleanups []func()

	// disposers called on every dispose
	disposers []func()

	// panic handlers
	catchers []func(any)

	disposed bool

	parent       *Owner
	prevSibling  *Owner
	nextSibling  *Owner
	childrenHead *Owner
}

func (r *Runtime) NewOwner() *Owner {
	return &Owner{}
}

// Run executes fn with this owner current, so every node created inside
// becomes a child. Panics are delivered to OnError catchers if any exist.
func (o *Owner) Run(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			if len(o.catchers) == 0 {
				panic(rec)
			}

			for _, catcher := range o.catchers {
				catcher(rec)
			}
		}
	}()

	GetRuntime().tracker.RunWithOwner(o, fn)
}

func (parent *Owner) AddChild(child *Owner) {
	child.parent = parent
	child.prevSibling = nil
	child.nextSibling = parent.childrenHead

	if parent.childrenHead != nil {
		parent.childrenHead.prevSibling = child
	}

	parent.childrenHead = child
}

func (o *Owner) Children() iter.Seq[*Owner] {
	return func(yield func(*Owner) bool) {
		child := o.childrenHead

		for child != nil {
			if !yield(child) {
				return
			}

			child = child.nextSibling
		}
	}
}

func (o *Owner) Dispose() {
	o.DisposeChildren()

	for _, fn := range o.disposers {
		fn()
	}

	if !o.disposed {
		o.disposed = true
		for i := 0; i < len(o.cleanups); i++ {
			o.cleanups[i]()
		}
		o.cleanups = nil
	}

	o.detach()
}

func (o *Owner) DisposeChildren() {
	// each child detaches itself from the list as it is disposed
	for o.childrenHead != nil {
		o.childrenHead.Dispose()
	}
}

// detach unlinks the owner from its parent, so a disposed subtree does not
// accumulate in the parent's children list.
func (o *Owner) detach() {
	if o.parent == nil {
		return
	}

	if o.parent.childrenHead == o {
		o.parent.childrenHead = o.nextSibling
	}
	if o.prevSibling != nil {
		o.prevSibling.nextSibling = o.nextSibling
	}
	if o.nextSibling != nil {
		o.nextSibling.prevSibling = o.prevSibling
	}

	o.parent = nil
	o.prevSibling = nil
	o.nextSibling = nil
}

// OnCleanup registers a function called once when the owner is disposed.
func (o *Owner) OnCleanup(fn func()) {
	o.cleanups = append(o.cleanups, fn)
}

// OnDispose registers a function called each time Dispose runs.
func (o *Owner) OnDispose(fn func()) {
	o.disposers = append(o.disposers, fn)
}

// OnError registers a panic handler for code run under this owner.
func (o *Owner) OnError(fn func(any)) {
	o.catchers = append(o.catchers, fn)
}

// adopt attaches o to the current owner, if any, so it is disposed with it.
func (r *Runtime) adopt(o *Owner) {
	if current := r.tracker.CurrentOwner(); current != nil && current != o {
		current.AddChild(o)
	}
}
