package internal

// EffectQueue holds externally observable work deferred past the commit
// point of the current step.
type EffectQueue struct {
	effects map[EffectType][]func()
}

func NewEffectQueue() *EffectQueue {
	effects := make(map[EffectType][]func())
	effects[EffectRender] = make([]func(), 0)
	effects[EffectUser] = make([]func(), 0)

	return &EffectQueue{effects}
}

func (q *EffectQueue) Empty() bool {
	return len(q.effects[EffectRender]) == 0 && len(q.effects[EffectUser]) == 0
}

func (q *EffectQueue) Enqueue(typ EffectType, fn func()) {
	q.effects[typ] = append(q.effects[typ], fn)
}

func (q *EffectQueue) RunEffects(typ EffectType) {
	effects := q.effects[typ]
	q.effects[typ] = q.effects[typ][:0]

	for _, effect := range effects {
		effect()
	}
}

// CommitQueue collects cells with staged values, to be committed together at
// the end of the step.
type CommitQueue struct {
	cells []*Cell
}

func NewCommitQueue() *CommitQueue {
	return &CommitQueue{
		cells: make([]*Cell, 0),
	}
}

func (q *CommitQueue) Empty() bool {
	return len(q.cells) == 0
}

func (q *CommitQueue) Enqueue(c *Cell) {
	q.cells = append(q.cells, c)
}

func (q *CommitQueue) Commit() {
	for _, c := range q.cells {
		c.Commit()
	}

	q.cells = q.cells[:0]
}
