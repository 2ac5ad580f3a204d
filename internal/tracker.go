package internal

// Tracker knows which owner and which derivation are currently executing.
// The owner is used for lifecycle bookkeeping, the derivation for dependency
// tracking.
type Tracker struct {
	tracking bool

	currentOwner      *Owner
	currentDerivation *Derived
}

func NewTracker() *Tracker {
	return &Tracker{
		tracking: true,
	}
}

func (t *Tracker) CurrentOwner() *Owner { return t.currentOwner }

func (t *Tracker) CurrentDerivation() *Derived { return t.currentDerivation }

func (t *Tracker) RunWithOwner(owner *Owner, fn func()) {
	prev := t.currentOwner
	t.currentOwner = owner
	defer func() { t.currentOwner = prev }()

	fn()
}

func (t *Tracker) RunWithDerivation(d *Derived, fn func()) {
	prevOwner := t.currentOwner
	prevDerivation := t.currentDerivation

	t.currentOwner = d.Owner
	t.currentDerivation = d

	defer func() {
		t.currentOwner = prevOwner
		t.currentDerivation = prevDerivation
	}()

	fn()
}

func (t *Tracker) RunUntracked(fn func()) {
	prev := t.tracking
	t.tracking = false
	defer func() { t.tracking = prev }()

	fn()
}

func (t *Tracker) ShouldTrack() bool {
	return t.currentDerivation != nil && t.tracking
}
