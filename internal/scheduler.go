package internal

// Scheduler tracks the logical step clock and whether a flush is in flight.
type Scheduler struct {
	// incremented once per step; used for staleness detection
	clock int

	scheduled bool
	running   bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Run(fn func()) {
	if s.running || !s.scheduled {
		return
	}

	s.scheduled = false
	s.running = true
	defer func() { s.running = false }()

	fn()
}

func (s *Scheduler) Schedule() {
	s.scheduled = true
}

// Tick advances the step clock.
func (s *Scheduler) Tick() {
	s.clock++
}

func (s *Scheduler) Time() int {
	return s.clock
}

// Batcher defers flushing while one or more batches are open.
type Batcher struct {
	// each nested batch increases the depth by 1
	depth int
}

func NewBatcher() *Batcher {
	return &Batcher{}
}

func (b *Batcher) IsBatching() bool {
	return b.depth > 0
}

func (b *Batcher) Batch(fn, onComplete func()) {
	b.depth++
	defer func() {
		b.depth--
		if b.depth == 0 && onComplete != nil {
			onComplete()
		}
	}()

	fn()
}
